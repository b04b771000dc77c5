package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"pricing-engine/internal/errors"
)

// blockShape says where a block lands in the normalized document
type blockShape struct {
	// list collects repeated blocks under this key
	list string

	// object stores a single block under this key
	object string

	// label is the key the block's one label is stored under
	label string
}

var blockShapes = map[string]blockShape{
	"node":      {list: "nodes", label: "type"},
	"input":     {list: "inputs"},
	"step":      {list: "steps", label: "mode"},
	"condition": {object: "condition"},
	"strategy":  {object: "strategy"},
}

// hclToJSON parses an HCL document and re-encodes it as JSON.
//
//	node "label" { path = "/material" value = "pla" cost = 20 }
//	step "add" { id = 1 inputs = ["/volume", "/material/*/color"] }
//
// becomes {"nodes": [{"type": "label", ...}], "steps": [{"mode": "add", ...}]}.
// Attribute expressions are evaluated without variables or functions.
func hclToJSON(data []byte, filename string) ([]byte, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errors.Newf(errors.TypeInvalidDocument, "%s: unexpected HCL body type %T", filename, file.Body)
	}

	doc, err := bodyToMap(body)
	if err != nil {
		return nil, err
	}

	js, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.InvalidDocument("HCL does not map to JSON", err)
	}
	return js, nil
}

func bodyToMap(body *hclsyntax.Body) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(body.Attributes)+len(body.Blocks))

	names := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		attr := body.Attributes[name]
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diagError(diags)
		}
		v, err := ctyToGeneric(val)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeInvalidDocument, err, "attribute %q at %s", name, attr.SrcRange)
		}
		out[name] = v
	}

	for _, block := range body.Blocks {
		shape, ok := blockShapes[block.Type]
		if !ok {
			return nil, errors.Newf(errors.TypeInvalidDocument, "unsupported block %q at %s", block.Type, block.TypeRange)
		}

		m, err := bodyToMap(block.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case shape.label != "" && len(block.Labels) == 1:
			m[shape.label] = block.Labels[0]
		case len(block.Labels) > 0:
			return nil, errors.Newf(errors.TypeInvalidDocument,
				"block %q at %s takes %s", block.Type, block.TypeRange, labelHint(shape))
		}

		if shape.object != "" {
			if _, dup := out[shape.object]; dup {
				return nil, errors.Newf(errors.TypeInvalidDocument, "duplicate %q block at %s", block.Type, block.TypeRange)
			}
			out[shape.object] = m
			continue
		}

		list, _ := out[shape.list].([]interface{})
		out[shape.list] = append(list, m)
	}

	return out, nil
}

func labelHint(shape blockShape) string {
	if shape.label == "" {
		return "no labels"
	}
	return "one label (" + shape.label + ")"
}

// ctyToGeneric converts a known cty value into the plain Go values
// encoding/json understands
func ctyToGeneric(val cty.Value) (interface{}, error) {
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil

	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil

	case ty == cty.Bool:
		return val.True(), nil

	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := []interface{}{}
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			v, err := ctyToGeneric(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]interface{})
		for it := val.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			v, err := ctyToGeneric(elem)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = v
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unhandled type %s", ty.FriendlyName())
	}
}

func diagError(diags hcl.Diagnostics) error {
	var msgs []string
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		if d.Subject != nil {
			msg = fmt.Sprintf("%s:%d: %s", d.Subject.Filename, d.Subject.Start.Line, msg)
		}
		msgs = append(msgs, msg)
	}
	return errors.InvalidDocument("invalid HCL: "+strings.Join(msgs, "; "), diags)
}
