package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"pricing-engine/core/types"
)

func sampleNodes() []types.PricingNode {
	return []types.PricingNode{
		{Path: "/material", Type: types.NodeLabel, Cost: 100, Value: types.String("tpa")},
		{Path: "/material", Type: types.NodeLabel, Cost: 20, Value: types.String("pla")},
		{Path: "/material/resin/color", Type: types.NodeLabel, Cost: 30, Value: types.String("blue")},
		{Path: "/layers", Type: types.NodeLabel, Cost: 5, Value: types.Number(2)},
		{Path: "/layers", Type: types.NodeNumeric, Cost: 1},
		{Path: "/support", Type: types.NodeLabel, Cost: 7, Value: types.Bool(true)},
		{Path: "/volume", Type: types.NodeNumeric, Cost: 10},
		{Path: "/volume", Type: types.NodeNumeric, Cost: 12},
	}
}

func TestIndexLabelLookupUsesCanonicalText(t *testing.T) {
	idx := NewIndex(sampleNodes())

	node, ok := idx.Label("/material", types.String("pla"))
	require.True(t, ok)
	require.Equal(t, 20.0, node.Cost)

	node, ok = idx.Label("/layers", types.String("2"))
	require.True(t, ok, "string \"2\" should find the label keyed by number 2")
	require.Equal(t, 5.0, node.Cost)

	node, ok = idx.Label("/support", types.Bool(true))
	require.True(t, ok)
	require.Equal(t, 7.0, node.Cost)

	_, ok = idx.Label("/material", types.String("abs"))
	require.False(t, ok)
}

func TestIndexNumericLastWins(t *testing.T) {
	idx := NewIndex(sampleNodes())
	node, ok := idx.Numeric("/volume")
	require.True(t, ok)
	require.Equal(t, 12.0, node.Cost)
	require.Len(t, idx.Nodes("/volume"), 2)
}

func TestIndexLookupPrefersLabel(t *testing.T) {
	idx := NewIndex(sampleNodes())

	node, ok := idx.Lookup("/layers", types.Number(2))
	require.True(t, ok)
	require.True(t, node.IsLabel())

	node, ok = idx.Lookup("/layers", types.Number(3))
	require.True(t, ok)
	require.True(t, node.IsNumeric())
}

func TestIndexPathsAndValues(t *testing.T) {
	idx := NewIndex(sampleNodes())

	require.Equal(t, []string{"/layers", "/material", "/material/resin/color", "/support", "/volume"}, idx.Paths())
	require.Equal(t, []string{"tpa", "pla"}, idx.LabelValues("/material"))
	require.True(t, idx.HasPath("/support"))
	require.False(t, idx.HasPath("/infill"))
	require.Equal(t, Stats{Paths: 5, Labels: 5, Numeric: 2}, idx.Stats())
}

func TestCurrency(t *testing.T) {
	require.Equal(t, "", Currency(sampleNodes()))
	require.Equal(t, "USD", Currency([]types.PricingNode{
		{Path: "/a", Currency: "USD"},
		{Path: "/b"},
		{Path: "/c", Currency: "USD"},
	}))
	require.Equal(t, "", Currency([]types.PricingNode{
		{Path: "/a", Currency: "USD"},
		{Path: "/b", Currency: "INR"},
	}))
}

func TestValidate(t *testing.T) {
	nodes := []types.PricingNode{
		{Path: "/volume", Type: types.NodeNumeric, Cost: 10},
		{Path: "/material", Type: types.NodeLabel, Cost: 20, Value: types.String("pla")},
		{Path: "volume", Type: types.NodeNumeric, Cost: 1},
		{Path: "/finish", Type: "tiered", Cost: 1},
		{Path: "/color", Type: types.NodeLabel, Cost: 5},
		{Path: "/rush", Type: types.NodeNumeric, Cost: math.Inf(1)},
	}

	errs := Validate(nodes, DefaultValidationRules())
	require.Len(t, errs, 4)
	require.EqualError(t, errs[0], "node 2 (volume): path must start with '/'")
	require.EqualError(t, errs[1], `node 3 (/finish): unknown node type "tiered"`)
	require.EqualError(t, errs[2], "node 4 (/color): label node requires a value")
	require.EqualError(t, errs[3], "node 5 (/rush): cost must be finite")

	require.Empty(t, Validate(nodes[:2], DefaultValidationRules()))
}
