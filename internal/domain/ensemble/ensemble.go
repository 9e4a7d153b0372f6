// Package ensemble trains the heterogeneous classifier stack on labeled
// feature rows and fuses the per-candidate probabilities with fixed weights.
package ensemble

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/drawcast/internal/domain/learn"
	"github.com/okian/drawcast/pkg/logger"
	"github.com/okian/drawcast/pkg/metrics"
)

// Model names used in errors, logs and metrics.
const (
	ModelForest   = "forest"
	ModelBoost    = "boost"
	ModelSequence = "sequence"
)

// Result carries the fused probabilities and each model's own output.
type Result struct {
	Fused    []float64
	Forest   []float64
	Boost    []float64
	Sequence []float64

	ForestParams learn.Params
	BoostParams  learn.Params
	ForestAUC    float64
	BoostAUC     float64
}

// Option applies a configuration option to the Stack.
type Option func(*Stack)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Stack) {
		if l != nil {
			s.log = l
		}
	}
}

// Stack trains and fuses the models. It holds no state between calls.
type Stack struct {
	cfg Config
	log logger.Logger
}

// New validates cfg and returns a Stack.
func New(cfg Config, opts ...Option) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Stack{cfg: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the stack's configuration.
func (s *Stack) Config() Config { return s.cfg }

// Predict trains every model on (train, labels) and returns one fused
// probability in [0, 1] per row of predict. Any training failure is fatal.
func (s *Stack) Predict(ctx context.Context, train [][]float64, labels []float64, predict [][]float64) (*Result, error) {
	res := &Result{}

	forest, err := s.search(ctx, ModelForest, s.cfg.ForestGrid, train, labels, func(p learn.Params) learn.Classifier {
		return learn.NewRandomForest(p, learn.ClassWeightBalanced, s.cfg.Seed)
	})
	if err != nil {
		return nil, err
	}
	if res.Forest, err = forest.Best.PredictProba(predict); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelFit, ModelForest, err)
	}
	res.ForestParams, res.ForestAUC = forest.BestParams, forest.BestScore

	boost, err := s.search(ctx, ModelBoost, s.cfg.BoostGrid, train, labels, func(p learn.Params) learn.Classifier {
		return learn.NewGradientBoosting(p)
	})
	if err != nil {
		return nil, err
	}
	if res.Boost, err = boost.Best.PredictProba(predict); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelFit, ModelBoost, err)
	}
	res.BoostParams, res.BoostAUC = boost.BestParams, boost.BestScore

	if s.cfg.Sequence {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		seq := learn.NewRecurrent(s.cfg.Seed)
		if err := seq.Fit(train, labels); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrModelFit, ModelSequence, err)
		}
		if res.Sequence, err = seq.PredictProba(predict); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrModelFit, ModelSequence, err)
		}
		metrics.RecordModelFitLatency(ModelSequence, float64(time.Since(start).Milliseconds()))
	}

	res.Fused = s.fuse(res)
	return res, nil
}

func (s *Stack) search(ctx context.Context, name string, grid learn.Grid, X [][]float64, y []float64, f learn.Factory) (*learn.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	rs := learn.RandomizedSearch{
		Grid:       grid,
		Iterations: s.cfg.Iterations,
		Folds:      s.cfg.Folds,
		Seed:       s.cfg.Seed,
		New:        f,
	}
	out, err := rs.Fit(X, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelFit, name, err)
	}
	elapsed := time.Since(start)
	metrics.RecordModelFitLatency(name, float64(elapsed.Milliseconds()))
	s.log.Debug(ctx, "model selected",
		logger.String("model", name),
		logger.Any("params", out.BestParams),
		logger.Float64("cv_auc", out.BestScore),
		logger.Duration("elapsed", elapsed))
	return out, nil
}

func (s *Stack) fuse(res *Result) []float64 {
	w := s.cfg.Weights
	out := make([]float64, len(res.Forest))
	for i := range out {
		p := w.Forest*res.Forest[i] + w.Boost*res.Boost[i]
		if s.cfg.Sequence {
			p += w.Sequence * res.Sequence[i]
		}
		out[i] = min(max(p, 0), 1)
	}
	return out
}
