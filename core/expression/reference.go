// Package expression - Reference parsing and resolution
package expression

import (
	"strconv"
	"strings"

	"pricing-engine/core/pattern"
	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

// StepPrefix marks a reference to an earlier step's result
const StepPrefix = "step__"

// ReferenceKind identifies the type of reference
type ReferenceKind int

const (
	RefNone    ReferenceKind = iota // null, bool, object: resolves to 0
	RefStep                         // step__<id>
	RefPattern                      // path containing *
	RefPath                         // exact input path
	RefLiteral                      // number
)

// String returns the kind name
func (k ReferenceKind) String() string {
	switch k {
	case RefStep:
		return "step"
	case RefPattern:
		return "pattern"
	case RefPath:
		return "path"
	case RefLiteral:
		return "literal"
	default:
		return "none"
	}
}

// Reference is a classified step operand
type Reference struct {
	Kind    ReferenceKind
	StepID  int
	Path    string // path or pattern source
	Literal float64
	Raw     types.Value
}

// ParseReference classifies v. The step prefix is checked before the
// wildcard marker, so "step__*" is an invalid step reference.
func ParseReference(v types.Value) (Reference, error) {
	ref := Reference{Raw: v}

	if s, ok := v.AsString(); ok {
		switch {
		case strings.HasPrefix(s, StepPrefix):
			id, err := strconv.Atoi(s[len(StepPrefix):])
			if err != nil {
				return ref, errors.Wrapf(errors.TypeInvalidStepReference, err, "Invalid step reference: %s", s).
					WithContext("reference", s)
			}
			ref.Kind = RefStep
			ref.StepID = id
		case pattern.IsWildcard(s):
			ref.Kind = RefPattern
			ref.Path = s
		default:
			ref.Kind = RefPath
			ref.Path = s
		}
		return ref, nil
	}

	if f, ok := v.AsNumber(); ok {
		ref.Kind = RefLiteral
		ref.Literal = f
		return ref, nil
	}

	ref.Kind = RefNone
	return ref, nil
}

// String returns the reference as written
func (r Reference) String() string {
	return r.Raw.Text()
}
