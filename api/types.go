// Package api - API types for strategy calculation
// These types define the contract for the /calculate endpoint and the
// document store endpoints.
package api

import (
	"time"

	"pricing-engine/adapters/storage"
	"pricing-engine/core/types"
)

// CalculateRequest is the input to POST /calculate.
// Nodes and Catalog are alternatives, as are Strategy and StrategyName.
type CalculateRequest struct {
	// Nodes is an inline catalog
	Nodes []types.PricingNode `json:"nodes,omitempty"`

	// Catalog names a stored catalog
	Catalog string `json:"catalog,omitempty"`

	// Strategy is an inline strategy
	Strategy *types.PricingStrategy `json:"strategy,omitempty"`

	// StrategyName names a stored strategy
	StrategyName string `json:"strategy_name,omitempty"`

	// Inputs are the user-supplied values
	Inputs []types.Input `json:"inputs"`

	// Save stores the result when a store is configured
	Save bool `json:"save,omitempty"`
}

// CalculateResponse is the output of POST /calculate
type CalculateResponse struct {
	RequestID string                   `json:"request_id"`
	Timestamp time.Time                `json:"timestamp"`
	Result    *types.CalculationResult `json:"result"`
	Metadata  *ResponseMetadata        `json:"metadata"`
}

// ResponseMetadata contains audit/reproducibility metadata
type ResponseMetadata struct {
	InputHash     string `json:"input_hash"`
	EngineVersion string `json:"engine_version"`
	DurationMs    int64  `json:"duration_ms"`
	ResultID      string `json:"result_id,omitempty"`
}

// CatalogBody is the body of PUT /catalogs/{name}
type CatalogBody struct {
	Nodes []types.PricingNode `json:"nodes"`
}

// ListResponse lists document names
type ListResponse struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

// ResultsResponse lists stored results
type ResultsResponse struct {
	Results []*storage.StoredResult `json:"results"`
	Count   int                     `json:"count"`
}

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error codes that do not come from the engine
const (
	CodeInvalidJSON      = "INVALID_JSON"
	CodeValidation       = "VALIDATION_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeBodyTooLarge     = "BODY_TOO_LARGE"
)
