package types

// BreakdownEntry is the audit record of one step. It is never read back
// by later steps.
type BreakdownEntry struct {
	StepID      int       `json:"step_id"`
	Name        string    `json:"name"`
	Operation   string    `json:"operation"`
	Description string    `json:"description"`
	Inputs      []float64 `json:"inputs"`
	Calculation string    `json:"calculation"`
	Result      float64   `json:"result"`
}

// CalculationResult is the outcome of one strategy evaluation
type CalculationResult struct {
	// FinalPrice is the value of the last declared step, 0 without steps
	FinalPrice float64 `json:"final_price"`

	// Breakdown has one entry per visible step, in step order
	Breakdown []BreakdownEntry `json:"breakdown"`
}
