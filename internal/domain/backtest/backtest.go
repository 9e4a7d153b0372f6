// Package backtest replays a strategy over history one draw at a time,
// showing it only the records before each target.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/drawcast/internal/adapters/worker"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/domain/strategy"
	"github.com/okian/drawcast/pkg/logger"
	"github.com/okian/drawcast/pkg/metrics"
)

// Option applies a configuration option to the Harness.
type Option func(*Harness)

// WithLogger sets the harness logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.log = l
		}
	}
}

// WithPool runs steps on p instead of a pool sized from Config.Workers.
func WithPool(p *worker.Pool) Option {
	return func(h *Harness) {
		if p != nil {
			h.pool = p
		}
	}
}

// Harness runs walk-forward backtests of one strategy.
type Harness struct {
	strategy strategy.Strategy
	cfg      Config
	pool     *worker.Pool
	log      logger.Logger
}

// New returns a harness for s.
func New(s strategy.Strategy, cfg Config, opts ...Option) (*Harness, error) {
	if s == nil {
		return nil, ErrNilStrategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Harness{strategy: s, cfg: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	if h.pool == nil && cfg.Workers > 1 {
		h.pool = worker.NewPool(cfg.Workers, worker.WithName("backtest"), worker.WithLogger(h.log))
	}
	return h, nil
}

// Config returns the harness configuration.
func (h *Harness) Config() Config { return h.cfg }

// Run predicts each of the last cfg.Window records from the records before
// it. Any failing step halts the run and no report is returned.
func (h *Harness) Run(ctx context.Context, records []model.DrawRecord) (*model.BacktestReport, error) {
	n, w := len(records), h.cfg.Window
	if w < 1 || n < w+h.cfg.WarmupMinimum {
		return nil, fmt.Errorf("%w: %d records for window %d and warm-up %d",
			ErrInsufficientData, n, w, h.cfg.WarmupMinimum)
	}
	if err := model.ValidateSequence(records); err != nil {
		return nil, &StepError{Period: records[n-w].Period, Stage: StageValidate, Err: err}
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	h.log.Info(ctx, "backtest started",
		logger.String("strategy", h.strategy.Name()),
		logger.Int("records", n),
		logger.Int("window", w))

	steps := make([]model.StepResult, w)
	start := n - w
	step := func(ctx context.Context, k int) error {
		res, err := h.step(ctx, records, start+k)
		if err != nil {
			return err
		}
		steps[k] = res
		return nil
	}

	var err error
	if h.pool != nil {
		err = h.pool.Run(ctx, w, step)
	} else {
		for k := 0; k < w && err == nil; k++ {
			err = step(ctx, k)
		}
	}
	if err != nil {
		var se *StepError
		if errors.As(err, &se) {
			metrics.RecordStageError(se.Stage)
			h.log.Error(ctx, "backtest halted",
				logger.Int64("period", se.Period),
				logger.String("stage", se.Stage),
				logger.Error(se.Err))
			return nil, se
		}
		return nil, err
	}

	summary := model.Summarize(steps)
	metrics.RecordBacktestRun(summary.Top1Rate, summary.Top6Rate, summary.MeanNormalOverlap)
	h.log.Info(ctx, "backtest finished",
		logger.Int("steps", summary.Steps),
		logger.Float64("top1_rate", summary.Top1Rate),
		logger.Float64("top6_rate", summary.Top6Rate),
		logger.Float64("mean_normal_overlap", summary.MeanNormalOverlap))

	return &model.BacktestReport{
		RunID:    runID,
		Strategy: h.strategy.Name(),
		Window:   w,
		Steps:    steps,
		Summary:  summary,
	}, nil
}

// step predicts records[i] from records[:i]. The history slice has its
// capacity capped so the strategy cannot reach the target by appending.
func (h *Harness) step(ctx context.Context, records []model.DrawRecord, i int) (model.StepResult, error) {
	target := records[i]
	history := records[:i:i]

	began := time.Now()
	p, err := h.strategy.Predict(ctx, history)
	if err != nil {
		stage := StagePredict
		var se *strategy.StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		return model.StepResult{}, &StepError{Period: target.Period, Stage: stage, Err: err}
	}
	res := model.Evaluate(p, target)
	elapsed := time.Since(began)

	metrics.RecordBacktestStep(res.Top1Hit, res.Top6Hit, res.NormalOverlap, float64(elapsed.Milliseconds()))
	h.log.Debug(ctx, "step done",
		logger.Int64("period", target.Period),
		logger.String("strategy", res.Strategy),
		logger.Int("primary", res.Primary),
		logger.Int("actual", res.ActualSpecial),
		logger.Bool("top6_hit", res.Top6Hit),
		logger.Duration("elapsed", elapsed))
	return res, nil
}
