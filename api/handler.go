// Package api - calculation handler
// This handler wraps the engine - it contains NO pricing logic.
// It resolves stored documents, runs the engine and records results.
package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pricing-engine/adapters/document"
	"pricing-engine/adapters/storage"
	"pricing-engine/core/determinism"
	"pricing-engine/core/engine"
	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

// errNoStore is returned when a request needs the document store and none is configured
var errNoStore = errors.New(errors.TypeConfig, "no store configured")

// Handler executes calculation requests
type Handler struct {
	engine *engine.Engine
	store  storage.Store
	logger *zap.Logger
}

// NewHandler creates a new handler; store may be nil
func NewHandler(eng *engine.Engine, store storage.Store, logger *zap.Logger) *Handler {
	if eng == nil {
		eng = engine.NewEngine(engine.Config{Logger: logger})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: eng, store: store, logger: logger}
}

// execute runs one calculation. Errors are *errors.Error values.
func (h *Handler) execute(ctx context.Context, requestID string, req *CalculateRequest) (*CalculateResponse, error) {
	start := time.Now()

	if err := validateCalculateRequest(req); err != nil {
		return nil, err
	}

	nodes, err := h.resolveNodes(ctx, req)
	if err != nil {
		return nil, err
	}
	strategy, err := h.resolveStrategy(ctx, req)
	if err != nil {
		return nil, err
	}

	inputHash, err := computeInputHash(nodes, strategy, req.Inputs)
	if err != nil {
		return nil, errors.Internal("failed to hash request", err)
	}

	result, err := h.engine.Calculate(nodes, strategy, req.Inputs)
	if err != nil {
		h.logger.Debug("calculation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, err
	}

	resp := &CalculateResponse{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Result:    result,
		Metadata: &ResponseMetadata{
			InputHash:     inputHash,
			EngineVersion: engine.Version,
		},
	}

	if req.Save {
		if h.store == nil {
			return nil, errNoStore
		}
		stored := &storage.StoredResult{
			RequestID: requestID,
			Catalog:   req.Catalog,
			Strategy:  req.StrategyName,
			InputHash: inputHash,
			Inputs:    req.Inputs,
			Result:    result,
		}
		if err := h.store.SaveResult(ctx, stored); err != nil {
			return nil, err
		}
		resp.Metadata.ResultID = stored.ID
	}

	resp.Metadata.DurationMs = time.Since(start).Milliseconds()
	h.logger.Info("calculation complete",
		zap.String("request_id", requestID),
		zap.Float64("final_price", result.FinalPrice),
		zap.Int("steps", len(result.Breakdown)))
	return resp, nil
}

func (h *Handler) resolveNodes(ctx context.Context, req *CalculateRequest) ([]types.PricingNode, error) {
	if req.Catalog == "" {
		return req.Nodes, nil
	}
	if h.store == nil {
		return nil, errNoStore
	}
	catalog, err := h.store.GetCatalog(ctx, req.Catalog)
	if err != nil {
		return nil, err
	}
	return catalog.Nodes, nil
}

func (h *Handler) resolveStrategy(ctx context.Context, req *CalculateRequest) (*types.PricingStrategy, error) {
	if req.StrategyName == "" {
		return req.Strategy, nil
	}
	if h.store == nil {
		return nil, errNoStore
	}
	stored, err := h.store.GetStrategy(ctx, req.StrategyName)
	if err != nil {
		return nil, err
	}
	return stored.Strategy, nil
}

func validateCalculateRequest(req *CalculateRequest) error {
	if req.Catalog != "" && len(req.Nodes) > 0 {
		return errors.New(errors.TypeInvalidDocument, "nodes and catalog are mutually exclusive")
	}
	if req.StrategyName != "" && req.Strategy != nil {
		return errors.New(errors.TypeInvalidDocument, "strategy and strategy_name are mutually exclusive")
	}
	if req.StrategyName == "" && req.Strategy == nil {
		return errors.New(errors.TypeInvalidDocument, "strategy or strategy_name is required")
	}
	return nil
}

// computeInputHash hashes the resolved documents, so a named catalog and
// the same nodes sent inline hash equally. The CLI hashes the same shape.
func computeInputHash(nodes []types.PricingNode, strategy *types.PricingStrategy, inputs []types.Input) (string, error) {
	hash, err := determinism.HashJSON(&document.Request{Nodes: nodes, Strategy: strategy, Inputs: inputs})
	if err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

func generateRequestID() string {
	return "calc-" + uuid.NewString()
}
