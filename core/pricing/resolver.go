// Package pricing turns raw user inputs into per-path costs using an
// indexed catalog.
package pricing

import (
	"pricing-engine/core/catalog"
	"pricing-engine/core/determinism"
	"pricing-engine/core/pattern"
	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

// Costs maps an input path to the cost it contributes
type Costs map[string]float64

// Paths returns the input paths, sorted
func (c Costs) Paths() []string {
	return determinism.SortedKeys(c)
}

// Lookup returns the cost for path
func (c Costs) Lookup(path string) (float64, bool) {
	v, ok := c[path]
	return v, ok
}

// ValidateRequired checks that every required pattern matches at least one
// input path. It runs before any cost is resolved.
func ValidateRequired(cache *pattern.Cache, required []string, inputs []types.Input) error {
	if len(required) == 0 {
		return nil
	}

	paths := types.InputPaths(inputs)
	for _, req := range required {
		m, err := cache.Get(req)
		if err != nil {
			return err
		}

		matched := false
		for _, p := range paths {
			if m.Match(p) {
				matched = true
				break
			}
		}
		if !matched {
			provided := sortedUnique(paths)
			return errors.Newf(errors.TypeMissingRequiredInput,
				"Required input '%s' is missing. Provided inputs: %s", req, determinism.QuoteList(provided)).
				WithContext("pattern", req)
		}
	}
	return nil
}

// ResolveCosts computes each input's contribution in input order.
// Label nodes are tried before numeric nodes.
func ResolveCosts(inputs []types.Input, idx *catalog.Index) (Costs, error) {
	costs := make(Costs, len(inputs))

	for _, in := range inputs {
		if _, seen := costs[in.Path]; seen {
			return nil, errors.Newf(errors.TypeDuplicateInputPath,
				"Duplicate input for path '%s'. Each path must be unique.", in.Path).
				WithContext("path", in.Path)
		}

		cost, err := InputCost(in, idx)
		if err != nil {
			return nil, err
		}
		costs[in.Path] = cost
	}

	return costs, nil
}

// InputCost prices a single input
func InputCost(in types.Input, idx *catalog.Index) (float64, error) {
	node, ok := idx.Lookup(in.Path, in.Value)
	if !ok {
		return 0, unmatched(in, idx)
	}

	if !node.IsNumeric() {
		return node.Cost, nil
	}

	qty, ok := in.Value.AsNumber()
	if !ok {
		return 0, errors.Newf(errors.TypeNonNumericInput,
			"Invalid numeric input '%s' for path '%s'.", in.Value.Text(), in.Path).
			WithContext("path", in.Path)
	}
	return qty * node.Cost, nil
}

func unmatched(in types.Input, idx *catalog.Index) error {
	if !idx.HasPath(in.Path) {
		return errors.Newf(errors.TypeUnknownPath,
			"No pricing node found for path '%s'. Available paths: %s", in.Path, determinism.QuoteList(idx.Paths())).
			WithContext("path", in.Path)
	}
	return errors.Newf(errors.TypeInvalidValueForPath,
		"Invalid value '%s' for path '%s'. Available values: %s",
		in.Value.Text(), in.Path, determinism.QuoteList(idx.LabelValues(in.Path))).
		WithContext("path", in.Path).
		WithContext("value", in.Value.Text())
}

func sortedUnique(items []string) []string {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return determinism.SortedKeys(set)
}
