// Package engine provides the API-primary strategy evaluation engine.
// CLI and HTTP are thin wrappers around this engine.
package engine

import (
	"time"

	"go.uber.org/zap"

	"pricing-engine/core/catalog"
	"pricing-engine/core/expression"
	"pricing-engine/core/pattern"
	"pricing-engine/core/pricing"
	"pricing-engine/core/types"
	"pricing-engine/internal/errors"
)

// Version is the engine version reported with results
const Version = "1.0.0"

// DefaultDisplayPrecision is the number of decimals shown in breakdown calculations
const DefaultDisplayPrecision = 2

// Engine evaluates pricing strategies. It is safe for concurrent use;
// calculations share only the pattern cache.
type Engine struct {
	patterns  *pattern.Cache
	logger    *zap.Logger
	precision int
}

// Config configures the engine
type Config struct {
	// Logger receives debug traces; nil disables logging
	Logger *zap.Logger

	// Patterns is the wildcard cache; nil uses pattern.Default
	Patterns *pattern.Cache

	// DisplayPrecision is the decimal count in breakdown calculations.
	// Nil means DefaultDisplayPrecision; -1 shows raw values.
	DisplayPrecision *int
}

// Phase is a point in the evaluation of one calculation.
// Phases only move forward.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseIndexed
	PhaseInputsValidated
	PhaseEvaluating
	PhaseDone
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseIndexed:
		return "indexed"
	case PhaseInputsValidated:
		return "inputs_validated"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseDone:
		return "done"
	default:
		return "start"
	}
}

// NewEngine creates an engine
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		patterns:  cfg.Patterns,
		logger:    cfg.Logger,
		precision: DefaultDisplayPrecision,
	}
	if e.patterns == nil {
		e.patterns = pattern.Default
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if cfg.DisplayPrecision != nil {
		e.precision = min(*cfg.DisplayPrecision, maxRoundPlaces)
	}
	return e
}

// Patterns returns the engine's pattern cache
func (e *Engine) Patterns() *pattern.Cache {
	return e.patterns
}

// Calculate evaluates strategy against nodes and inputs. The first error
// aborts the calculation; no partial result is returned.
func (e *Engine) Calculate(nodes []types.PricingNode, strategy *types.PricingStrategy, inputs []types.Input) (*types.CalculationResult, error) {
	if strategy == nil {
		return nil, errors.InvalidDocument("strategy is required", nil)
	}

	start := time.Now()
	c := &calculation{engine: e}

	if err := c.index(nodes); err != nil {
		return nil, err
	}
	if err := c.validate(strategy, inputs); err != nil {
		return nil, err
	}
	result, err := c.evaluate(strategy)
	if err != nil {
		e.logger.Debug("calculation failed",
			zap.Stringer("phase", c.phase),
			zap.Int("step", c.step),
			zap.Error(err))
		return nil, err
	}

	e.logger.Info("calculation complete",
		zap.Int("steps", len(strategy.Steps)),
		zap.Int("visible", len(result.Breakdown)),
		zap.Float64("final_price", result.FinalPrice),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// calculation carries the state of one Calculate call
type calculation struct {
	engine *Engine
	phase  Phase
	step   int

	idx   *catalog.Index
	exec  *executor
	costs pricing.Costs
}

func (c *calculation) advance(to Phase) {
	if to < c.phase {
		panic("engine: phase moved backwards from " + c.phase.String() + " to " + to.String())
	}
	c.phase = to
}

func (c *calculation) index(nodes []types.PricingNode) error {
	c.idx = catalog.NewIndex(nodes)
	stats := c.idx.Stats()
	c.engine.logger.Debug("catalog indexed",
		zap.Int("nodes", len(nodes)),
		zap.Int("paths", stats.Paths),
		zap.Int("labels", stats.Labels),
		zap.Int("numeric", stats.Numeric))
	c.advance(PhaseIndexed)
	return nil
}

func (c *calculation) validate(strategy *types.PricingStrategy, inputs []types.Input) error {
	if err := pricing.ValidateRequired(c.engine.patterns, strategy.RequiredInputs, inputs); err != nil {
		return err
	}

	costs, err := pricing.ResolveCosts(inputs, c.idx)
	if err != nil {
		return err
	}
	c.costs = costs

	raw := make(map[string]types.Value, len(inputs))
	for _, in := range inputs {
		raw[in.Path] = in.Value
	}

	resolver := expression.NewResolver(costs, c.engine.patterns)
	resolver.Defaulted = func(ref expression.Reference) {
		c.engine.logger.Debug("reference resolved to zero",
			zap.Int("step", c.step),
			zap.Stringer("kind", ref.Kind),
			zap.String("reference", ref.String()))
	}

	c.exec = &executor{
		resolver:  resolver,
		index:     c.idx,
		raw:       raw,
		precision: c.engine.precision,
	}
	c.advance(PhaseInputsValidated)
	return nil
}

func (c *calculation) evaluate(strategy *types.PricingStrategy) (*types.CalculationResult, error) {
	c.advance(PhaseEvaluating)

	result := &types.CalculationResult{Breakdown: []types.BreakdownEntry{}}
	for _, step := range strategy.Steps {
		h := step.Header()
		c.step = h.ID

		value, entry, err := c.exec.execute(step)
		if err != nil {
			return nil, err
		}

		c.engine.logger.Debug("step evaluated",
			zap.Int("step", h.ID),
			zap.String("name", h.DisplayName()),
			zap.String("mode", string(step.Mode())),
			zap.Float64("value", value),
			zap.Bool("hidden", h.IsHidden))

		c.exec.resolver.Set(h.ID, value)
		if !h.IsHidden {
			result.Breakdown = append(result.Breakdown, entry)
		}
	}

	if last, ok := strategy.LastStep(); ok {
		result.FinalPrice = c.exec.resolver.Steps[last.Header().ID]
	}

	c.advance(PhaseDone)
	return result, nil
}
