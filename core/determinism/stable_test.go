package determinism

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedKeys(t *testing.T) {
	m := map[string]float64{"/volume": 20, "/material/resin/color": 30, "/time_taken": 100}
	require.Equal(t, []string{"/material/resin/color", "/time_taken", "/volume"}, SortedKeys(m))
}

func TestQuoteList(t *testing.T) {
	require.Equal(t, "['red', 'blue']", QuoteList([]string{"red", "blue"}))
	require.Equal(t, "[]", QuoteList(nil))
}

func TestHashJSONIsOrderIndependentForMaps(t *testing.T) {
	a, err := HashJSON(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)
	b, err := HashJSON(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a.Hex(), 64)
	require.Len(t, a.Short(), 16)
}

func TestMoney(t *testing.T) {
	require.Equal(t, "345.00 USD", NewMoneyFromFloat(345, "USD").String())
	require.Equal(t, "345.0", NewMoneyFromFloat(345, "").StringFixed(1))
	require.Equal(t, "0.10", NewMoneyFromFloat(0.1, "").StringFixed(2))
}
