// Package catalog indexes pricing nodes for input resolution.
// The catalog is rebuilt for every calculation; nothing is kept between calls.
package catalog

import (
	"sort"

	"pricing-engine/core/types"
)

// labelKey identifies a label node by path and canonical value text
type labelKey struct {
	path  string
	value string
}

// Index holds the three lookup structures built from a node list
type Index struct {
	byPath  map[string][]types.PricingNode
	labels  map[labelKey]types.PricingNode
	numeric map[string]types.PricingNode
}

// NewIndex builds an index. It is a pure function of nodes.
// A later numeric node at the same path replaces an earlier one.
func NewIndex(nodes []types.PricingNode) *Index {
	idx := &Index{
		byPath:  make(map[string][]types.PricingNode),
		labels:  make(map[labelKey]types.PricingNode),
		numeric: make(map[string]types.PricingNode),
	}

	for _, node := range nodes {
		idx.byPath[node.Path] = append(idx.byPath[node.Path], node)

		if node.IsNumeric() {
			idx.numeric[node.Path] = node
			continue
		}
		if node.Value.IsNull() {
			continue
		}
		idx.labels[labelKey{path: node.Path, value: node.Value.Text()}] = node
	}

	return idx
}

// Label returns the label node bound to (path, value)
func (idx *Index) Label(path string, value types.Scalar) (types.PricingNode, bool) {
	node, ok := idx.labels[labelKey{path: path, value: value.Text()}]
	return node, ok
}

// Numeric returns the numeric node at path
func (idx *Index) Numeric(path string) (types.PricingNode, bool) {
	node, ok := idx.numeric[path]
	return node, ok
}

// Lookup tries the label node for (path, value) first, then the numeric node at path
func (idx *Index) Lookup(path string, value types.Scalar) (types.PricingNode, bool) {
	if node, ok := idx.Label(path, value); ok {
		return node, true
	}
	return idx.Numeric(path)
}

// HasPath reports whether any node is declared at path
func (idx *Index) HasPath(path string) bool {
	_, ok := idx.byPath[path]
	return ok
}

// Nodes returns every node at path in declaration order
func (idx *Index) Nodes(path string) []types.PricingNode {
	return idx.byPath[path]
}

// Paths returns every known path, sorted
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.byPath))
	for p := range idx.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// LabelValues returns the canonical values of label nodes at path, in declaration order
func (idx *Index) LabelValues(path string) []string {
	var values []string
	for _, node := range idx.byPath[path] {
		if node.IsLabel() && !node.Value.IsNull() {
			values = append(values, node.Value.Text())
		}
	}
	return values
}

// Stats summarizes an index
type Stats struct {
	Paths   int `json:"paths"`
	Labels  int `json:"labels"`
	Numeric int `json:"numeric"`
}

// Stats returns index statistics
func (idx *Index) Stats() Stats {
	return Stats{
		Paths:   len(idx.byPath),
		Labels:  len(idx.labels),
		Numeric: len(idx.numeric),
	}
}

// Currency returns the currency shared by every node that declares one.
// It is empty when no node declares a currency or when they disagree.
func Currency(nodes []types.PricingNode) string {
	currency := ""
	for _, node := range nodes {
		if node.Currency == "" {
			continue
		}
		if currency != "" && currency != node.Currency {
			return ""
		}
		currency = node.Currency
	}
	return currency
}
