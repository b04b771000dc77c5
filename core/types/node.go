package types

// NodeType distinguishes the two kinds of pricing node
type NodeType string

const (
	// NodeNumeric multiplies a user-supplied quantity by its cost
	NodeNumeric NodeType = "numeric"

	// NodeLabel contributes a flat cost for one discrete value at its path
	NodeLabel NodeType = "label"
)

// PricingNode is one catalog entry
type PricingNode struct {
	// Path is the configuration path, e.g. /material/resin/color
	Path string `json:"path"`

	// Type is numeric or label
	Type NodeType `json:"type"`

	// Cost is the flat cost (label) or per-unit cost (numeric)
	Cost float64 `json:"cost"`

	// Value is the discrete value a label node binds; null for numeric nodes
	Value Scalar `json:"value"`

	// Unit names the quantity of a numeric node (display only)
	Unit string `json:"unit,omitempty"`

	// Currency labels the cost (display only, never converted)
	Currency string `json:"currency,omitempty"`

	// DisplayName is a human label (display only)
	DisplayName string `json:"display_name,omitempty"`
}

// IsNumeric reports whether the node is a per-unit multiplier
func (n PricingNode) IsNumeric() bool {
	return n.Type == NodeNumeric
}

// IsLabel reports whether the node binds a discrete value.
// Anything that is not numeric is treated as a label.
func (n PricingNode) IsLabel() bool {
	return n.Type != NodeNumeric
}

// Input is one user-supplied value
type Input struct {
	Path  string `json:"path"`
	Value Scalar `json:"value"`
}

// InputPaths returns the paths of inputs in order
func InputPaths(inputs []Input) []string {
	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.Path
	}
	return paths
}
