// Package determinism provides ordering, hashing and money primitives so
// that error messages, reports and stored records are reproducible.
package determinism

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SortedKeys returns the keys of m in ascending order
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// QuoteList renders items as ['a', 'b'] for error messages
func QuoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// HashJSON hashes the JSON encoding of v. encoding/json sorts map keys,
// so equal documents hash equally.
func HashJSON(v interface{}) (ContentHash, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return ContentHash{}, err
	}
	return ComputeHash(data), nil
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 16 hex characters
func (h ContentHash) Short() string {
	return h.Hex()[:16]
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Short() + "..."
}

// Money is an amount with a display currency. The engine computes in
// float64; Money is used where amounts are presented or aggregated.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoneyFromFloat creates Money from float64
func NewMoneyFromFloat(amount float64, currency string) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: currency}
}

// StringFixed formats the amount with places decimals and the currency label
func (m Money) StringFixed(places int32) string {
	s := m.amount.StringFixed(places)
	if m.currency == "" {
		return s
	}
	return s + " " + m.currency
}

// String returns formatted money (2 decimal places)
func (m Money) String() string {
	return m.StringFixed(2)
}
