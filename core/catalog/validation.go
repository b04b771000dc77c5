// Package catalog - Catalog validation
// Checks node lists before they are stored. The indexer itself stays
// lenient: it treats any non-numeric node as a label and skips labels
// without a value.
package catalog

import (
	"fmt"
	"math"
	"strings"

	"pricing-engine/core/types"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(types.PricingNode) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validatePath,
		validateType,
		validateCost,
		validateLabelValue,
	}
}

// Validate checks every node against rules and returns all violations
func Validate(nodes []types.PricingNode, rules []ValidationRule) []error {
	var errors []error

	for i, node := range nodes {
		for _, rule := range rules {
			if err := rule(node); err != nil {
				errors = append(errors, fmt.Errorf("node %d (%s): %w", i, node.Path, err))
			}
		}
	}

	return errors
}

// validatePath ensures paths are absolute
func validatePath(n types.PricingNode) error {
	if !strings.HasPrefix(n.Path, "/") {
		return fmt.Errorf("path must start with '/'")
	}
	return nil
}

// validateType ensures the node kind is known
func validateType(n types.PricingNode) error {
	switch n.Type {
	case types.NodeNumeric, types.NodeLabel:
		return nil
	}
	return fmt.Errorf("unknown node type %q", n.Type)
}

// validateCost rejects costs that cannot be priced
func validateCost(n types.PricingNode) error {
	if math.IsNaN(n.Cost) || math.IsInf(n.Cost, 0) {
		return fmt.Errorf("cost must be finite")
	}
	return nil
}

// validateLabelValue ensures label nodes bind a value; a label without one never matches
func validateLabelValue(n types.PricingNode) error {
	if n.Type == types.NodeLabel && n.Value.IsNull() {
		return fmt.Errorf("label node requires a value")
	}
	return nil
}
