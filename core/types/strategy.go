package types

import (
	"encoding/json"
	"fmt"
)

// PricingStrategy is an ordered list of steps plus the inputs it needs
type PricingStrategy struct {
	Version int `json:"version"`

	// RequiredInputs are path patterns; each must match at least one input path
	RequiredInputs []string `json:"required_inputs,omitempty"`

	// Steps run strictly in this order
	Steps []Step `json:"steps"`
}

// LastStep returns the final step, if any
func (s *PricingStrategy) LastStep() (Step, bool) {
	if s == nil || len(s.Steps) == 0 {
		return nil, false
	}
	return s.Steps[len(s.Steps)-1], true
}

type strategyDocument struct {
	Version        int               `json:"version"`
	RequiredInputs []string          `json:"required_inputs,omitempty"`
	Steps          []json.RawMessage `json:"steps"`
}

// UnmarshalJSON decodes steps by their "mode"
func (s *PricingStrategy) UnmarshalJSON(data []byte) error {
	var doc strategyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	steps := make([]Step, 0, len(doc.Steps))
	for i, raw := range doc.Steps {
		step, err := DecodeStep(raw)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		steps = append(steps, step)
	}

	s.Version = doc.Version
	s.RequiredInputs = doc.RequiredInputs
	s.Steps = steps
	return nil
}

// MarshalJSON encodes steps with their "mode"
func (s PricingStrategy) MarshalJSON() ([]byte, error) {
	doc := strategyDocument{
		Version:        s.Version,
		RequiredInputs: s.RequiredInputs,
		Steps:          make([]json.RawMessage, 0, len(s.Steps)),
	}
	for i, step := range s.Steps {
		raw, err := EncodeStep(step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		doc.Steps = append(doc.Steps, raw)
	}
	return json.Marshal(doc)
}
