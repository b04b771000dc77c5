package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Mode discriminates step variants in documents
type Mode string

const (
	ModeAdd        Mode = "add"
	ModeSubtract   Mode = "subtract"
	ModeMultiply   Mode = "multiply"
	ModeDivide     Mode = "divide"
	ModeMin        Mode = "min"
	ModeMax        Mode = "max"
	ModePercentage Mode = "percentage"
	ModeRound      Mode = "round"
	ModeClamp      Mode = "clamp"
	ModeIf         Mode = "if"
	ModePrice      Mode = "price"
)

// Modes lists every supported mode
var Modes = []Mode{
	ModeAdd, ModeSubtract, ModeMultiply, ModeDivide, ModeMin, ModeMax,
	ModePercentage, ModeRound, ModeClamp, ModeIf, ModePrice,
}

func modeList() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Step is one strategy operation. The set of implementations is closed:
// only the types in this file satisfy it.
type Step interface {
	// Header returns the fields every step shares
	Header() StepHeader

	// Mode returns the document discriminator
	Mode() Mode

	isStep()
}

// StepHeader holds the fields common to all steps
type StepHeader struct {
	ID       int    `json:"id"`
	Name     string `json:"name,omitempty"`
	IsHidden bool   `json:"is_hidden,omitempty"`
}

// Header returns h; promoted to every step type
func (h StepHeader) Header() StepHeader { return h }

// DisplayName returns the name, defaulting to "Step {id}"
func (h StepHeader) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return "Step " + strconv.Itoa(h.ID)
}

// AddStep sums its inputs
type AddStep struct {
	StepHeader
	Inputs []Value `json:"inputs"`
}

// SubtractStep subtracts the rest of its inputs from the first
type SubtractStep struct {
	StepHeader
	Inputs []Value `json:"inputs"`
}

// MultiplyStep multiplies its inputs
type MultiplyStep struct {
	StepHeader
	Inputs []Value `json:"inputs"`
}

// DivideStep divides the first input by each remaining one
type DivideStep struct {
	StepHeader
	Inputs []Value `json:"inputs"`
}

// MinStep takes the smallest input
type MinStep struct {
	StepHeader
	Inputs []Value `json:"inputs"`
}

// MaxStep takes the largest input
type MaxStep struct {
	StepHeader
	Inputs []Value `json:"inputs"`
}

// PercentageStep takes a percentage of the first input. The percent comes
// from the second input or, with a single input, from Percent.
type PercentageStep struct {
	StepHeader
	Inputs  []Value  `json:"inputs"`
	Percent *float64 `json:"percent,omitempty"`
}

// RoundStep rounds the first input. The decimal count comes from the
// second input or, with a single input, from Decimals.
type RoundStep struct {
	StepHeader
	Inputs   []Value `json:"inputs"`
	Decimals *int    `json:"decimals,omitempty"`
}

// ClampStep restricts Value to [Min, Max]
type ClampStep struct {
	StepHeader
	Value Value `json:"value"`
	Min   Value `json:"min"`
	Max   Value `json:"max"`
}

// Condition compares two operands
type Condition struct {
	Left     Value  `json:"left"`
	Operator string `json:"operator"`
	Right    Value  `json:"right"`
}

// IfStep yields Then when Condition holds, Else (default 0) otherwise
type IfStep struct {
	StepHeader
	Condition Condition `json:"condition"`
	Then      Value     `json:"then"`
	Else      *Value    `json:"else,omitempty"`
}

// PriceStep prices one input path against its node explicitly,
// keeping the quantity, unit and currency in the breakdown.
type PriceStep struct {
	StepHeader
	Inputs []Value `json:"inputs"`
}

func (AddStep) Mode() Mode        { return ModeAdd }
func (SubtractStep) Mode() Mode   { return ModeSubtract }
func (MultiplyStep) Mode() Mode   { return ModeMultiply }
func (DivideStep) Mode() Mode     { return ModeDivide }
func (MinStep) Mode() Mode        { return ModeMin }
func (MaxStep) Mode() Mode        { return ModeMax }
func (PercentageStep) Mode() Mode { return ModePercentage }
func (RoundStep) Mode() Mode      { return ModeRound }
func (ClampStep) Mode() Mode      { return ModeClamp }
func (IfStep) Mode() Mode         { return ModeIf }
func (PriceStep) Mode() Mode      { return ModePrice }

func (AddStep) isStep()        {}
func (SubtractStep) isStep()   {}
func (MultiplyStep) isStep()   {}
func (DivideStep) isStep()     {}
func (MinStep) isStep()        {}
func (MaxStep) isStep()        {}
func (PercentageStep) isStep() {}
func (RoundStep) isStep()      {}
func (ClampStep) isStep()      {}
func (IfStep) isStep()         {}
func (PriceStep) isStep()      {}

// newStep allocates the concrete type for a mode
func newStep(mode Mode) (Step, bool) {
	switch mode {
	case ModeAdd:
		return &AddStep{}, true
	case ModeSubtract:
		return &SubtractStep{}, true
	case ModeMultiply:
		return &MultiplyStep{}, true
	case ModeDivide:
		return &DivideStep{}, true
	case ModeMin:
		return &MinStep{}, true
	case ModeMax:
		return &MaxStep{}, true
	case ModePercentage:
		return &PercentageStep{}, true
	case ModeRound:
		return &RoundStep{}, true
	case ModeClamp:
		return &ClampStep{}, true
	case ModeIf:
		return &IfStep{}, true
	case ModePrice:
		return &PriceStep{}, true
	}
	return nil, false
}

// DecodeStep decodes one JSON step object using its "mode" field
func DecodeStep(data []byte) (Step, error) {
	var head struct {
		Mode Mode `json:"mode"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	if head.Mode == "" {
		return nil, fmt.Errorf("step is missing \"mode\"")
	}

	step, ok := newStep(head.Mode)
	if !ok {
		return nil, fmt.Errorf("unsupported step mode %q (supported: %s)", head.Mode, modeList())
	}
	if err := json.Unmarshal(data, step); err != nil {
		return nil, fmt.Errorf("invalid %s step: %w", head.Mode, err)
	}
	return deref(step), nil
}

// deref turns the decoding pointer back into the value type callers switch on
func deref(step Step) Step {
	switch s := step.(type) {
	case *AddStep:
		return *s
	case *SubtractStep:
		return *s
	case *MultiplyStep:
		return *s
	case *DivideStep:
		return *s
	case *MinStep:
		return *s
	case *MaxStep:
		return *s
	case *PercentageStep:
		return *s
	case *RoundStep:
		return *s
	case *ClampStep:
		return *s
	case *IfStep:
		return *s
	case *PriceStep:
		return *s
	}
	return step
}

// EncodeStep encodes a step as a JSON object carrying its "mode"
func EncodeStep(step Step) ([]byte, error) {
	body, err := json.Marshal(step)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	mode, _ := json.Marshal(step.Mode())
	fields["mode"] = mode

	return json.Marshal(fields)
}
