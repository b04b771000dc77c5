// Package types defines the pricing data model shared by every layer:
// catalog nodes, user inputs, strategies and their steps, and calculation results.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ScalarKind identifies what a Scalar holds
type ScalarKind int

const (
	KindNull ScalarKind = iota
	KindString
	KindNumber
	KindBool
	KindOther // arrays and objects; kept for display only
)

// String returns the kind name
func (k ScalarKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "other"
	}
}

// Scalar is a JSON-shaped value: a node's discrete value, an input value,
// or a reference inside a step. The zero value is null.
type Scalar struct {
	kind ScalarKind
	str  string
	num  float64
	b    bool
}

// Value is a step operand: a step reference, an exact path, a wildcard
// pattern or a literal number.
type Value = Scalar

// Null returns the null scalar
func Null() Scalar { return Scalar{} }

// String returns a string scalar
func String(s string) Scalar { return Scalar{kind: KindString, str: s} }

// Number returns a numeric scalar
func Number(f float64) Scalar { return Scalar{kind: KindNumber, num: f} }

// Bool returns a boolean scalar
func Bool(b bool) Scalar { return Scalar{kind: KindBool, b: b} }

// other keeps the compact JSON text of a composite value
func other(raw string) Scalar { return Scalar{kind: KindOther, str: raw} }

// Kind returns what the scalar holds
func (s Scalar) Kind() ScalarKind { return s.kind }

// IsNull reports whether the scalar is null
func (s Scalar) IsNull() bool { return s.kind == KindNull }

// AsString returns the string payload
func (s Scalar) AsString() (string, bool) {
	if s.kind != KindString {
		return "", false
	}
	return s.str, true
}

// AsNumber returns the numeric payload
func (s Scalar) AsNumber() (float64, bool) {
	if s.kind != KindNumber {
		return 0, false
	}
	return s.num, true
}

// Text is the canonical textual form used to key label nodes.
// Strings pass through; numbers use their shortest decimal form, so
// 2 and 2.0 both render "2".
func (s Scalar) Text() string {
	switch s.kind {
	case KindString, KindOther:
		return s.str
	case KindNumber:
		return FormatNumber(s.num)
	case KindBool:
		return strconv.FormatBool(s.b)
	default:
		return "null"
	}
}

// String implements fmt.Stringer
func (s Scalar) String() string {
	return s.Text()
}

// Equal reports whether two scalars hold the same kind and payload
func (s Scalar) Equal(o Scalar) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindNumber:
		return s.num == o.num
	case KindBool:
		return s.b == o.b
	default:
		return s.str == o.str
	}
}

// FormatNumber renders f in its shortest exact decimal form
func FormatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Sprint(f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindString:
		return json.Marshal(s.str)
	case KindNumber:
		return json.Marshal(s.num)
	case KindBool:
		return json.Marshal(s.b)
	case KindOther:
		return []byte(s.str), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Null()
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = String(str)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*s = Bool(b)
	case '[', '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*s = other(buf.String())
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid scalar %s: %w", data, err)
		}
		*s = Number(f)
	}
	return nil
}

// UnmarshalYAML implements yaml.v2's Unmarshaler
func (s *Scalar) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v interface{}
	if err := unmarshal(&v); err != nil {
		return err
	}
	*s = FromInterface(v)
	return nil
}

// FromInterface converts a generically decoded value (JSON or YAML) into a Scalar
func FromInterface(v interface{}) Scalar {
	switch x := v.(type) {
	case nil:
		return Null()
	case Scalar:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return other(fmt.Sprint(x))
		}
		return other(string(raw))
	}
}
