package expression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pricing-engine/core/pattern"
	"pricing-engine/core/pricing"
	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

func newTestResolver() *Resolver {
	r := NewResolver(pricing.Costs{
		"/volume":               20,
		"/time_taken":           100,
		"/material/resin/color": 30,
		"/material/pla/color":   300,
	}, pattern.NewCache())
	r.Set(1, 150)
	return r
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		value types.Value
		kind  ReferenceKind
	}{
		{types.String("step__3"), RefStep},
		{types.String("/material/*/color"), RefPattern},
		{types.String("/volume"), RefPath},
		{types.Number(2), RefLiteral},
		{types.Bool(true), RefNone},
		{types.Null(), RefNone},
	}

	for _, tt := range tests {
		t.Run(tt.value.Text(), func(t *testing.T) {
			ref, err := ParseReference(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.kind, ref.Kind)
		})
	}

	ref, err := ParseReference(types.String("step__12"))
	require.NoError(t, err)
	require.Equal(t, 12, ref.StepID)
}

func TestParseReferenceInvalidStep(t *testing.T) {
	for _, s := range []string{"step__", "step__x", "step__*"} {
		_, err := ParseReference(types.String(s))
		require.True(t, errors.IsType(err, errors.TypeInvalidStepReference), s)
	}
}

func TestResolve(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		name  string
		value types.Value
		want  []float64
	}{
		{"step", types.String("step__1"), []float64{150}},
		{"missing step defaults to zero", types.String("step__99"), []float64{0}},
		{"exact path", types.String("/volume"), []float64{20}},
		{"missing path defaults to zero", types.String("/infill"), []float64{0}},
		{"wildcard in path order", types.String("/material/*/color"), []float64{300, 30}},
		{"literal", types.Number(2.5), []float64{2.5}},
		{"bool", types.Bool(true), []float64{0}},
		{"null", types.Null(), []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAllConcatenates(t *testing.T) {
	r := newTestResolver()
	got, err := r.ResolveAll([]types.Value{
		types.String("/volume"),
		types.String("/material/*/color"),
		types.Number(1),
	})
	require.NoError(t, err)
	require.Equal(t, []float64{20, 300, 30, 1}, got)

	first, err := r.ResolveFirst(types.String("/material/*/color"))
	require.NoError(t, err)
	require.Equal(t, 300.0, first)
}

func TestResolveNoWildcardMatch(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(types.String("/finish/*"))
	require.True(t, errors.IsType(err, errors.TypeNoWildcardMatch))

	e, _ := errors.As(err)
	require.Equal(t,
		"No inputs found matching wildcard pattern '/finish/*'. Available paths: ['/material/pla/color', '/material/resin/color', '/time_taken', '/volume']",
		e.Message)
}

func TestResolveReportsDefaults(t *testing.T) {
	r := newTestResolver()
	var seen []string
	r.Defaulted = func(ref Reference) { seen = append(seen, ref.Kind.String()+":"+ref.String()) }

	_, err := r.ResolveAll([]types.Value{types.String("step__8"), types.String("/volume"), types.String("/typo")})
	require.NoError(t, err)
	require.Equal(t, []string{"step:step__8", "path:/typo"}, seen)
}

func TestWildcardResolutionIsIdempotent(t *testing.T) {
	r := newTestResolver()

	first, err := r.Resolve(types.String("/material/*/color"))
	require.NoError(t, err)
	m1, err := r.Patterns.Get("/material/*/color")
	require.NoError(t, err)

	second, err := r.Resolve(types.String("/material/*/color"))
	require.NoError(t, err)
	m2, err := r.Patterns.Get("/material/*/color")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Same(t, m1, m2)
	require.Equal(t, 1, r.Patterns.Len())
}
