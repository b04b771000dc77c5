package expression

import (
	"pricing-engine/core/determinism"
	"pricing-engine/core/pattern"
	"pricing-engine/core/pricing"
	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

// Resolver turns step operands into numbers using the input cost table
// and the results of steps evaluated so far.
type Resolver struct {
	// Steps holds results keyed by step id
	Steps map[int]float64

	// Costs is the per-path cost table
	Costs pricing.Costs

	// Patterns compiles wildcard references
	Patterns *pattern.Cache

	// Defaulted, if set, is told about step ids and paths that
	// resolved to 0 because nothing was found
	Defaulted func(Reference)
}

// NewResolver creates a resolver with an empty step table
func NewResolver(costs pricing.Costs, patterns *pattern.Cache) *Resolver {
	if patterns == nil {
		patterns = pattern.Default
	}
	return &Resolver{
		Steps:    make(map[int]float64),
		Costs:    costs,
		Patterns: patterns,
	}
}

// Resolve returns the numbers v denotes. Wildcards expand to every
// matching cost in path order; everything else yields one number.
// Missing step ids and missing exact paths resolve to 0.
func (r *Resolver) Resolve(v types.Value) ([]float64, error) {
	ref, err := ParseReference(v)
	if err != nil {
		return nil, err
	}

	switch ref.Kind {
	case RefStep:
		val, ok := r.Steps[ref.StepID]
		if !ok {
			r.defaulted(ref)
		}
		return []float64{val}, nil

	case RefPattern:
		return r.resolvePattern(ref.Path)

	case RefPath:
		val, ok := r.Costs.Lookup(ref.Path)
		if !ok {
			r.defaulted(ref)
		}
		return []float64{val}, nil

	case RefLiteral:
		return []float64{ref.Literal}, nil

	default:
		return []float64{0}, nil
	}
}

// ResolveAll concatenates the resolution of each operand in order
func (r *Resolver) ResolveAll(values []types.Value) ([]float64, error) {
	var out []float64
	for _, v := range values {
		vals, err := r.Resolve(v)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// ResolveFirst resolves v and keeps only its first number
func (r *Resolver) ResolveFirst(v types.Value) (float64, error) {
	vals, err := r.Resolve(v)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// Set records a step result
func (r *Resolver) Set(stepID int, value float64) {
	r.Steps[stepID] = value
}

func (r *Resolver) resolvePattern(source string) ([]float64, error) {
	m, err := r.Patterns.Get(source)
	if err != nil {
		return nil, err
	}

	paths := r.Costs.Paths()
	matched := m.Filter(paths)
	if len(matched) == 0 {
		return nil, errors.Newf(errors.TypeNoWildcardMatch,
			"No inputs found matching wildcard pattern '%s'. Available paths: %s", source, determinism.QuoteList(paths)).
			WithContext("pattern", source)
	}

	out := make([]float64, len(matched))
	for i, p := range matched {
		out[i] = r.Costs[p]
	}
	return out, nil
}

func (r *Resolver) defaulted(ref Reference) {
	if r.Defaulted != nil {
		r.Defaulted(ref)
	}
}
