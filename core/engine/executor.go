package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"pricing-engine/core/catalog"
	"pricing-engine/core/expression"
	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

// Operation labels shown in the breakdown
const (
	OpAddition       = "Addition"
	OpSubtraction    = "Subtraction"
	OpMultiplication = "Multiplication"
	OpDivision       = "Division"
	OpMinimum        = "Minimum"
	OpMaximum        = "Maximum"
	OpPercentage     = "Percentage"
	OpRound          = "Round"
	OpClamp          = "Clamp"
	OpConditional    = "Conditional"
	OpPrice          = "Price Calculation"
)

// executor evaluates single steps for one calculation
type executor struct {
	resolver  *expression.Resolver
	index     *catalog.Index
	raw       map[string]types.Value
	precision int
}

// execute dispatches on the concrete step type
func (x *executor) execute(step types.Step) (float64, types.BreakdownEntry, error) {
	switch s := step.(type) {
	case types.AddStep:
		return x.add(s)
	case types.SubtractStep:
		return x.subtract(s)
	case types.MultiplyStep:
		return x.multiply(s)
	case types.DivideStep:
		return x.divide(s)
	case types.MinStep:
		return x.min(s)
	case types.MaxStep:
		return x.max(s)
	case types.PercentageStep:
		return x.percentage(s)
	case types.RoundStep:
		return x.round(s)
	case types.ClampStep:
		return x.clamp(s)
	case types.IfStep:
		return x.conditional(s)
	case types.PriceStep:
		return x.price(s)
	default:
		return 0, types.BreakdownEntry{}, errors.Newf(errors.TypeInternal, "unhandled step type %T", step)
	}
}

func (x *executor) add(s types.AddStep) (float64, types.BreakdownEntry, error) {
	vals, err := x.resolveInputs(s.StepHeader, s.Inputs)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	if len(vals) == 0 {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "add requires at least one input")
	}

	var sum float64
	for _, v := range vals {
		sum += v
	}

	return sum, x.entry(s.StepHeader, OpAddition,
		fmt.Sprintf("Sum of %d values", len(vals)),
		vals, x.join(vals, " + "), sum), nil
}

func (x *executor) subtract(s types.SubtractStep) (float64, types.BreakdownEntry, error) {
	vals, err := x.resolveInputs(s.StepHeader, s.Inputs)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	if len(vals) == 0 {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "subtract requires at least one input")
	}

	result := vals[0]
	for _, v := range vals[1:] {
		result -= v
	}

	return result, x.entry(s.StepHeader, OpSubtraction,
		fmt.Sprintf("Subtract %d value(s) from base", len(vals)-1),
		vals, x.join(vals, " - "), result), nil
}

func (x *executor) multiply(s types.MultiplyStep) (float64, types.BreakdownEntry, error) {
	vals, err := x.resolveInputs(s.StepHeader, s.Inputs)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	if len(vals) == 0 {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "multiply requires at least one input")
	}

	product := 1.0
	for _, v := range vals {
		product *= v
	}

	return product, x.entry(s.StepHeader, OpMultiplication,
		fmt.Sprintf("Product of %d values", len(vals)),
		vals, x.join(vals, " × "), product), nil
}

func (x *executor) divide(s types.DivideStep) (float64, types.BreakdownEntry, error) {
	vals, err := x.resolveInputs(s.StepHeader, s.Inputs)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	if len(vals) < 2 {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "divide requires at least two inputs")
	}

	result := vals[0]
	for _, v := range vals[1:] {
		if v == 0 {
			return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeDivisionByZero, "division by zero")
		}
		result /= v
	}

	return result, x.entry(s.StepHeader, OpDivision,
		fmt.Sprintf("Divide %s by %d value(s)", types.FormatNumber(vals[0]), len(vals)-1),
		vals, x.join(vals, " ÷ "), result), nil
}

func (x *executor) min(s types.MinStep) (float64, types.BreakdownEntry, error) {
	vals, err := x.resolveInputs(s.StepHeader, s.Inputs)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	if len(vals) == 0 {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "min requires at least one input")
	}

	result := vals[0]
	for _, v := range vals[1:] {
		if v < result {
			result = v
		}
	}

	return result, x.entry(s.StepHeader, OpMinimum,
		fmt.Sprintf("Minimum of %d values", len(vals)),
		vals, "min("+x.join(vals, ", ")+")", result), nil
}

func (x *executor) max(s types.MaxStep) (float64, types.BreakdownEntry, error) {
	vals, err := x.resolveInputs(s.StepHeader, s.Inputs)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	if len(vals) == 0 {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "max requires at least one input")
	}

	result := vals[0]
	for _, v := range vals[1:] {
		if v > result {
			result = v
		}
	}

	return result, x.entry(s.StepHeader, OpMaximum,
		fmt.Sprintf("Maximum of %d values", len(vals)),
		vals, "max("+x.join(vals, ", ")+")", result), nil
}

func (x *executor) percentage(s types.PercentageStep) (float64, types.BreakdownEntry, error) {
	vals, err := x.resolveInputs(s.StepHeader, s.Inputs)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}

	var percent float64
	switch len(vals) {
	case 1:
		if s.Percent == nil {
			return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "percentage requires percent in step or two inputs")
		}
		percent = *s.Percent
	case 2:
		percent = vals[1]
	default:
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "percentage allows only one or two inputs")
	}

	if percent < 0 {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeNegativePercent,
			"percentage cannot be negative (%s)", types.FormatNumber(percent))
	}

	result := vals[0] * percent / 100
	pct := types.FormatNumber(percent)

	return result, x.entry(s.StepHeader, OpPercentage,
		fmt.Sprintf("%s%% of %s", pct, types.FormatNumber(vals[0])),
		vals, fmt.Sprintf("%s × %s%%", x.fixed(vals[0]), pct), result), nil
}

func (x *executor) round(s types.RoundStep) (float64, types.BreakdownEntry, error) {
	vals, err := x.resolveInputs(s.StepHeader, s.Inputs)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}

	var places int
	switch len(vals) {
	case 1:
		if s.Decimals == nil {
			return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "round requires decimals in step or two inputs")
		}
		places = *s.Decimals
	case 2:
		places = decimalPlaces(vals[1])
	default:
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "round allows only one or two inputs")
	}

	result := RoundHalfAway(vals[0], places)
	value := types.FormatNumber(vals[0])

	return result, x.entry(s.StepHeader, OpRound,
		fmt.Sprintf("Round %s to %d decimal places", value, places),
		vals, fmt.Sprintf("round(%s, %d)", value, places), result), nil
}

func (x *executor) clamp(s types.ClampStep) (float64, types.BreakdownEntry, error) {
	val, err := x.resolveFirst(s.StepHeader, s.Value)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	lo, err := x.resolveFirst(s.StepHeader, s.Min)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	hi, err := x.resolveFirst(s.StepHeader, s.Max)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}

	loText, hiText, valText := types.FormatNumber(lo), types.FormatNumber(hi), types.FormatNumber(val)
	if lo > hi {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeInvalidClampRange,
			"min value (%s) cannot be greater than max value (%s)", loText, hiText)
	}

	result := val
	outcome := "not clamped"
	switch {
	case val < lo:
		result = lo
		outcome = fmt.Sprintf("clamped to minimum (%s)", loText)
	case val > hi:
		result = hi
		outcome = fmt.Sprintf("clamped to maximum (%s)", hiText)
	}

	return result, x.entry(s.StepHeader, OpClamp,
		fmt.Sprintf("Clamp %s between %s and %s - %s", valText, loText, hiText, outcome),
		[]float64{val, lo, hi},
		fmt.Sprintf("clamp(%s, %s, %s)", valText, loText, hiText), result), nil
}

func (x *executor) conditional(s types.IfStep) (float64, types.BreakdownEntry, error) {
	left, err := x.resolveFirst(s.StepHeader, s.Condition.Left)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	right, err := x.resolveFirst(s.StepHeader, s.Condition.Right)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}

	op := s.Condition.Operator
	holds, ok := Compare(left, op, right)
	if !ok {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeUnsupportedOperator, "unsupported operator '%s'", op)
	}

	then, err := x.resolveFirst(s.StepHeader, s.Then)
	if err != nil {
		return 0, types.BreakdownEntry{}, err
	}
	var otherwise float64
	if s.Else != nil {
		otherwise, err = x.resolveFirst(s.StepHeader, *s.Else)
		if err != nil {
			return 0, types.BreakdownEntry{}, err
		}
	}

	result, verdict := otherwise, "FALSE"
	if holds {
		result, verdict = then, "TRUE"
	}

	return result, x.entry(s.StepHeader, OpConditional,
		fmt.Sprintf("If %s %s %s then %s else %s",
			types.FormatNumber(left), op, types.FormatNumber(right),
			types.FormatNumber(then), types.FormatNumber(otherwise)),
		[]float64{left, right, then, otherwise},
		fmt.Sprintf("%s %s %s → %s → %s", x.fixed(left), op, x.fixed(right), verdict, x.fixed(result)),
		result), nil
}

// price evaluates one input against its node directly, numeric node first
func (x *executor) price(s types.PriceStep) (float64, types.BreakdownEntry, error) {
	if len(s.Inputs) == 0 {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "price mode requires one input path")
	}
	path, ok := s.Inputs[0].AsString()
	if !ok {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeOperatorArity, "price mode input must be a path string")
	}

	raw, provided := x.raw[path]
	if !provided {
		if !x.index.HasPath(path) {
			return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeUnknownPath, "Input '%s' not found", path)
		}
		raw = types.Number(0)
	}

	node, ok := x.index.Numeric(path)
	if !ok {
		node, ok = x.index.Label(path, raw)
	}
	if !ok {
		return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeUnknownPath, "No pricing node found for '%s'", path)
	}

	cost := strings.TrimSpace(types.FormatNumber(node.Cost) + " " + node.Currency)
	description := "Calculate cost for " + path

	if !node.IsNumeric() {
		return node.Cost, x.entry(s.StepHeader, OpPrice, description,
			[]float64{}, cost+" (fixed cost)", node.Cost), nil
	}

	qty := 0.0
	if !raw.IsNull() {
		qty, ok = raw.AsNumber()
		if !ok {
			return 0, types.BreakdownEntry{}, stepError(s.StepHeader, errors.TypeNonNumericInput, "Invalid numeric value '%s'", raw.Text())
		}
	}

	result := qty * node.Cost
	quantity := strings.TrimSpace(types.FormatNumber(qty) + " " + node.Unit)

	return result, x.entry(s.StepHeader, OpPrice, description,
		[]float64{qty}, quantity+" * "+cost, result), nil
}

func (x *executor) resolveInputs(h types.StepHeader, inputs []types.Value) ([]float64, error) {
	vals, err := x.resolver.ResolveAll(inputs)
	if err != nil {
		return nil, withStep(err, h)
	}
	return vals, nil
}

func (x *executor) resolveFirst(h types.StepHeader, v types.Value) (float64, error) {
	val, err := x.resolver.ResolveFirst(v)
	if err != nil {
		return 0, withStep(err, h)
	}
	return val, nil
}

func (x *executor) entry(h types.StepHeader, op, description string, inputs []float64, calculation string, result float64) types.BreakdownEntry {
	return types.BreakdownEntry{
		StepID:      h.ID,
		Name:        h.DisplayName(),
		Operation:   op,
		Description: description,
		Inputs:      inputs,
		Calculation: calculation,
		Result:      result,
	}
}

// fixed renders v at the display precision; a negative precision keeps the shortest form
func (x *executor) fixed(v float64) string {
	if x.precision < 0 {
		return types.FormatNumber(v)
	}
	return decimal.NewFromFloat(v).StringFixed(int32(x.precision))
}

func (x *executor) join(vals []float64, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = x.fixed(v)
	}
	return strings.Join(parts, sep)
}

// maxRoundPlaces bounds decimal counts. A float64 carries no digits past
// 10^-324 and no magnitude past 10^308, so larger counts change nothing.
const maxRoundPlaces = 340

// decimalPlaces truncates a decimal count taken from a step input and
// bounds it to ±maxRoundPlaces. NaN counts as 0.
func decimalPlaces(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f > maxRoundPlaces:
		return maxRoundPlaces
	case f < -maxRoundPlaces:
		return -maxRoundPlaces
	}
	return int(math.Trunc(f))
}

// RoundHalfAway rounds v to places decimal places, halves away from zero.
// Negative places round to tens, hundreds and so on.
func RoundHalfAway(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	switch {
	case places >= maxRoundPlaces:
		return v
	case places <= -maxRoundPlaces:
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(int32(places)).Float64()
	return f
}

// Compare evaluates left op right. ok is false for an unknown operator.
func Compare(left float64, op string, right float64) (holds bool, ok bool) {
	switch op {
	case ">":
		return left > right, true
	case "<":
		return left < right, true
	case ">=":
		return left >= right, true
	case "<=":
		return left <= right, true
	case "==":
		return left == right, true
	case "!=":
		return left != right, true
	default:
		return false, false
	}
}

// stepError builds an error prefixed with the step's display name
func stepError(h types.StepHeader, t errors.Type, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return errors.Newf(t, "%s: %s", h.DisplayName(), msg).
		WithContext("step_id", h.ID)
}

// withStep tags a resolution error with the step it occurred in.
// The error is copied first; it may be held by other calculations.
func withStep(err error, h types.StepHeader) error {
	if e, ok := errors.As(err); ok {
		return e.Clone().WithContext("step_id", h.ID)
	}
	return err
}
