package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := Newf(TypeDivisionByZero, "%s: division by zero", "Step 3")
	require.Equal(t, "[DIVISION_BY_ZERO] Step 3: division by zero", e.Error())

	wrapped := Wrap(TypeInvalidDocument, "failed to decode strategy", fmt.Errorf("unexpected EOF"))
	require.Equal(t, "[INVALID_DOCUMENT] failed to decode strategy: unexpected EOF", wrapped.Error())
}

func TestIsTypeThroughWrapping(t *testing.T) {
	base := New(TypeNoWildcardMatch, "no inputs found")
	outer := fmt.Errorf("calculation failed: %w", base)

	require.True(t, IsType(outer, TypeNoWildcardMatch))
	require.False(t, IsType(outer, TypeUnknownPath))
	require.Equal(t, TypeNoWildcardMatch, TypeOf(outer))
	require.Equal(t, TypeInternal, TypeOf(fmt.Errorf("plain")))
	require.False(t, IsType(nil, TypeInternal))
}

func TestWithContext(t *testing.T) {
	e := New(TypeOperatorArity, "add requires at least one input").
		WithContext("step_id", 4).
		WithContext("mode", "add")

	require.Equal(t, 4, e.Context["step_id"])
	require.Equal(t, "add", e.Context["mode"])
	require.True(t, e.Is(TypeOperatorArity))
}

func TestCloneCopiesContext(t *testing.T) {
	orig := New(TypeUnparsablePattern, "bad pattern").WithContext("pattern", "/(")
	c := orig.Clone().WithContext("step_id", 3)

	require.Equal(t, map[string]interface{}{"pattern": "/("}, orig.Context)
	require.Equal(t, 3, c.Context["step_id"])
	require.Equal(t, "/(", c.Context["pattern"])
	require.Equal(t, orig.Error(), c.Error())

	bare := New(TypeInternal, "x").Clone()
	require.Nil(t, bare.Context)
}
