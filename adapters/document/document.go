// Package document loads catalogs, strategies and inputs from JSON,
// YAML and HCL files. Every format is normalized to JSON and decoded
// with the data model's own JSON decoders.
package document

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

// Format is a document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// DetectFormat picks a format from a file extension. Unknown
// extensions are read as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return FormatJSON
	}
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatHCL:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.Newf(errors.TypeInvalidDocument, "unknown document format %q", s)
	}
}

// Request bundles everything one calculation needs
type Request struct {
	Nodes    []types.PricingNode    `json:"nodes"`
	Strategy *types.PricingStrategy `json:"strategy"`
	Inputs   []types.Input          `json:"inputs"`
}

// catalogDocument is the object form of a catalog
type catalogDocument struct {
	Nodes []types.PricingNode `json:"nodes"`
}

// inputsDocument is the object form of an input list
type inputsDocument struct {
	Inputs []types.Input `json:"inputs"`
}

// ToJSON normalizes data in format f to JSON
func ToJSON(data []byte, f Format, filename string) ([]byte, error) {
	switch f {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		return yamlToJSON(data)
	case FormatHCL:
		return hclToJSON(data, filename)
	default:
		return nil, errors.Newf(errors.TypeInvalidDocument, "unknown document format %q", f)
	}
}

// DecodeCatalog decodes a node list. The document is either a bare
// array of nodes or an object with a "nodes" array.
func DecodeCatalog(data []byte, f Format) ([]types.PricingNode, error) {
	return decodeCatalog(data, f, "catalog.hcl")
}

func decodeCatalog(data []byte, f Format, filename string) ([]types.PricingNode, error) {
	js, err := ToJSON(data, f, filename)
	if err != nil {
		return nil, err
	}

	if isArray(js) {
		var nodes []types.PricingNode
		if err := json.Unmarshal(js, &nodes); err != nil {
			return nil, errors.InvalidDocument("invalid catalog", err)
		}
		return nodes, nil
	}

	var doc catalogDocument
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, errors.InvalidDocument("invalid catalog", err)
	}
	return doc.Nodes, nil
}

// DecodeStrategy decodes a strategy document
func DecodeStrategy(data []byte, f Format) (*types.PricingStrategy, error) {
	return decodeStrategy(data, f, "strategy.hcl")
}

func decodeStrategy(data []byte, f Format, filename string) (*types.PricingStrategy, error) {
	js, err := ToJSON(data, f, filename)
	if err != nil {
		return nil, err
	}

	var s types.PricingStrategy
	if err := json.Unmarshal(js, &s); err != nil {
		return nil, errors.InvalidDocument("invalid strategy", err)
	}
	return &s, nil
}

// DecodeInputs decodes an input list. The document is either a bare
// array of inputs or an object with an "inputs" array.
func DecodeInputs(data []byte, f Format) ([]types.Input, error) {
	return decodeInputs(data, f, "inputs.hcl")
}

func decodeInputs(data []byte, f Format, filename string) ([]types.Input, error) {
	js, err := ToJSON(data, f, filename)
	if err != nil {
		return nil, err
	}

	if isArray(js) {
		var inputs []types.Input
		if err := json.Unmarshal(js, &inputs); err != nil {
			return nil, errors.InvalidDocument("invalid inputs", err)
		}
		return inputs, nil
	}

	var doc inputsDocument
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, errors.InvalidDocument("invalid inputs", err)
	}
	return doc.Inputs, nil
}

// DecodeRequest decodes a combined request document
func DecodeRequest(data []byte, f Format) (*Request, error) {
	return decodeRequest(data, f, "request.hcl")
}

func decodeRequest(data []byte, f Format, filename string) (*Request, error) {
	js, err := ToJSON(data, f, filename)
	if err != nil {
		return nil, err
	}

	var req Request
	if err := json.Unmarshal(js, &req); err != nil {
		return nil, errors.InvalidDocument("invalid request", err)
	}
	return &req, nil
}

// LoadCatalog reads a catalog file
func LoadCatalog(path string) ([]types.PricingNode, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	nodes, err := decodeCatalog(data, DetectFormat(path), path)
	return nodes, withFile(err, path)
}

// LoadStrategy reads a strategy file
func LoadStrategy(path string) (*types.PricingStrategy, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	s, err := decodeStrategy(data, DetectFormat(path), path)
	return s, withFile(err, path)
}

// LoadInputs reads an inputs file
func LoadInputs(path string) ([]types.Input, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	inputs, err := decodeInputs(data, DetectFormat(path), path)
	return inputs, withFile(err, path)
}

// LoadRequest reads a combined request file
func LoadRequest(path string) (*Request, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	req, err := decodeRequest(data, DetectFormat(path), path)
	return req, withFile(err, path)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInvalidDocument, err, "failed to read %s", path).
			WithContext("file", path)
	}
	return data, nil
}

func withFile(err error, path string) error {
	if e, ok := errors.As(err); ok {
		return e.Clone().WithContext("file", path)
	}
	return err
}

func isArray(js []byte) bool {
	trimmed := bytes.TrimSpace(js)
	return len(trimmed) > 0 && trimmed[0] == '['
}
