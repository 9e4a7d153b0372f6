package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/drawcast/internal/domain/ensemble"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/pkg/logger"
	"github.com/okian/drawcast/pkg/metrics"
)

// Chain runs strategies in order and returns the first prediction that
// completes without error. The prediction's Strategy field names the
// strategy that produced it. Insufficient history, label degeneracy and
// model-fit failures end the chain: they are returned as is and no later
// strategy runs.
type Chain struct {
	strategies []Strategy
	log        logger.Logger
}

// NewChain returns a chain over strategies, most preferred first.
func NewChain(log logger.Logger, strategies ...Strategy) *Chain {
	if log == nil {
		log = logger.Nop()
	}
	return &Chain{strategies: strategies, log: log}
}

// Name implements Strategy.
func (c *Chain) Name() string { return Names(c.strategies) }

// Strategies returns the configured strategies in order.
func (c *Chain) Strategies() []Strategy { return append([]Strategy(nil), c.strategies...) }

// Predict implements Strategy.
func (c *Chain) Predict(ctx context.Context, history []model.DrawRecord) (model.Prediction, error) {
	if len(c.strategies) == 0 {
		return model.Prediction{}, ErrNoStrategies
	}
	var errs []error
	for _, s := range c.strategies {
		start := time.Now()
		p, err := s.Predict(ctx, history)
		if err == nil {
			metrics.RecordPrediction(s.Name(), float64(time.Since(start).Milliseconds()))
			return p, nil
		}
		if fatal(err) {
			metrics.RecordErrorByComponent("strategy", "fatal")
			return model.Prediction{}, fmt.Errorf("%s: %w", s.Name(), err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		if ctx.Err() != nil {
			break
		}
		metrics.RecordStrategyFallback(s.Name())
		c.log.Warn(ctx, "strategy failed, trying next",
			logger.String("strategy", s.Name()),
			logger.Error(err))
	}
	return model.Prediction{}, fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
}

func fatal(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ensemble.ErrLabelDegenerate) ||
		errors.Is(err, ensemble.ErrModelFit)
}
