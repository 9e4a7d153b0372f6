// Package service wires the store, strategies, backtest harness and worker
// pool behind the operations used by the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/drawcast/internal/adapters/repository"
	"github.com/okian/drawcast/internal/adapters/worker"
	"github.com/okian/drawcast/internal/config"
	"github.com/okian/drawcast/internal/domain/backtest"
	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/dedupe"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/domain/strategy"
	"github.com/okian/drawcast/pkg/logger"
	"github.com/okian/drawcast/pkg/metrics"
)

// PredictionResult is the outcome of Predict: the new prediction and, when
// one was stored for the latest draw, the review of the previous prediction.
type PredictionResult struct {
	Prediction model.Prediction `json:"prediction"`
	Review     *model.Review    `json:"review,omitempty"`
}

// ImportResult counts what an import stored.
type ImportResult struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
}

// Service implements the operations exposed by the CLI and the HTTP API.
type Service struct {
	mu sync.RWMutex

	cfg        *config.Config
	store      repository.Store
	ownsStore  bool
	deduper    dedupe.Deduper
	strategies []strategy.Strategy
	chain      *strategy.Chain
	pool       *worker.Pool

	started        bool
	lastPrediction *model.Prediction
	lastBacktest   *model.BacktestSummary

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults come from config.New.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore uses store instead of opening the configured SQLite file. The
// caller keeps ownership and Stop does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStrategies replaces the configured fallback chain.
func WithStrategies(strategies ...strategy.Strategy) Option {
	return func(s *Service) {
		if len(strategies) > 0 {
			s.strategies = strategies
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.New(context.Background())
	}
	return s
}

// Start opens the store and builds the strategies and the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting drawcast service...")

	if s.store == nil {
		store, err := repository.OpenSQLite(ctx, s.cfg.DBPath, repository.WithLogger(s.logger.Named("store")))
		if err != nil {
			return err
		}
		s.store, s.ownsStore = store, true
	}
	if len(s.strategies) == 0 {
		strategies, err := BuildStrategies(s.cfg, s.logger)
		if err != nil {
			return err
		}
		s.strategies = strategies
	}
	s.chain = strategy.NewChain(s.logger.Named("chain"), s.strategies...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))
	s.pool = worker.NewPool(s.cfg.Workers, worker.WithName("backtest"), worker.WithLogger(s.logger.Named("worker-pool")))

	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateStoredRecords(n)
	}

	s.started = true
	s.logger.Info(ctx, "drawcast service started",
		logger.String("strategies", s.chain.Name()),
		logger.Int("workers", s.pool.Size()),
		logger.String("db", s.cfg.DBPath),
	)
	return nil
}

// Stop closes the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping drawcast service...")
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store", logger.Error(err))
		}
		s.store, s.ownsStore = nil, false
	}
	s.started = false
	s.logger.Info(context.Background(), "drawcast service stopped")
}

// BuildStrategies constructs the configured fallback chain members.
func BuildStrategies(cfg *config.Config, log logger.Logger) ([]strategy.Strategy, error) {
	out := make([]strategy.Strategy, 0, len(cfg.Strategies))
	for _, name := range cfg.StrategyList() {
		s, err := buildStrategy(name, cfg, log)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, strategy.ErrNoStrategies
	}
	return out, nil
}

func buildStrategy(name string, cfg *config.Config, log logger.Logger) (strategy.Strategy, error) {
	switch name {
	case strategy.EnsembleName:
		return strategy.NewEnsemble(cfg.Features(), cfg.Ensemble(), cfg.Scoring(),
			strategy.WithLogger(log.Named(name)),
			strategy.WithMinHistory(cfg.MinHistory))
	case strategy.HeatmapName:
		return strategy.NewHeatmap(strategy.DefaultHeatmapConfig(), category.DefaultRelations(), cfg.TopScores,
			strategy.WithLogger(log.Named(name))), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

func (s *Service) running() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Predict reviews the prediction stored for the latest draw, then predicts
// the next draw with the fallback chain and stores the result.
func (s *Service) Predict(ctx context.Context) (*PredictionResult, error) {
	store, err := s.running()
	if err != nil {
		return nil, err
	}
	records, err := store.Records(ctx, repository.Ascending)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoHistory
	}
	latest := records[len(records)-1]

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	res := &PredictionResult{}

	prev, err := store.PredictionFor(ctx, latest.Period)
	switch {
	case err == nil:
		review := model.ReviewPrediction(prev, latest)
		res.Review = &review
		s.logger.Info(ctx, "reviewed previous prediction",
			logger.Int64("period", latest.Period),
			logger.Bool("special_hit", review.SpecialHit),
			logger.Bool("primary_hit", review.PrimaryHit),
			logger.Int("normal_hits", len(review.NormalHits)))
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, err
	}

	start := time.Now()
	p, err := s.chain.Predict(ctx, records)
	if err != nil {
		metrics.RecordErrorByComponent("service", "predict")
		return nil, err
	}
	p.RunID = runID
	if err := store.SavePrediction(ctx, p); err != nil {
		return nil, err
	}
	res.Prediction = p

	s.mu.Lock()
	s.lastPrediction = &p
	s.mu.Unlock()

	s.logger.Info(ctx, "prediction ready",
		logger.Int64("next_period", p.NextPeriod),
		logger.String("strategy", p.Strategy),
		logger.Int("primary", p.PrimarySpecial),
		logger.Duration("elapsed", time.Since(start)))
	return res, nil
}

// Backtest runs the walk-forward harness over the stored history. A
// non-positive window uses the configured one; an empty strategy name
// uses the first configured strategy. Backtests never fall back, so a
// failing step halts the run.
func (s *Service) Backtest(ctx context.Context, window int, strategyName string) (*model.BacktestReport, error) {
	store, err := s.running()
	if err != nil {
		return nil, err
	}

	target := s.strategies[0]
	if strategyName != "" {
		target = nil
		for _, st := range s.strategies {
			if st.Name() == strategyName {
				target = st
			}
		}
		if target == nil {
			st, err := buildStrategy(strategyName, s.cfg, s.logger)
			if err != nil {
				return nil, err
			}
			target = st
		}
	}

	h, err := backtest.New(target, s.cfg.Backtest(window),
		backtest.WithPool(s.pool),
		backtest.WithLogger(s.logger.Named("backtest")))
	if err != nil {
		return nil, err
	}
	records, err := store.Records(ctx, repository.Ascending)
	if err != nil {
		return nil, err
	}
	report, err := h.Run(ctx, records)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastBacktest = &report.Summary
	s.mu.Unlock()
	return report, nil
}

// Import stores records, skipping periods already seen by this service or
// already present in the store.
func (s *Service) Import(ctx context.Context, records []model.DrawRecord) (ImportResult, error) {
	store, err := s.running()
	if err != nil {
		return ImportResult{}, err
	}

	fresh, dups := dedupe.Filter(s.deduper, records)
	added, stored, err := store.Insert(ctx, fresh...)
	if err != nil {
		for _, r := range fresh {
			s.deduper.Unrecord(r.Period)
		}
		metrics.RecordErrorByComponent("service", "import")
		return ImportResult{}, err
	}
	res := ImportResult{Added: added, Duplicates: dups + stored}
	s.logger.Info(ctx, "import finished",
		logger.Int("added", res.Added),
		logger.Int("duplicates", res.Duplicates))
	return res, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"window":     s.cfg.Window,
		"workers":    s.cfg.Workers,
		"dedupeSize": s.cfg.DedupeSize,
	}
	if !s.started {
		return stats
	}

	stats["strategies"] = s.chain.Name()
	stats["dedupeSeen"] = s.deduper.Size()
	if n, err := s.store.Count(context.Background()); err == nil {
		stats["storedRecords"] = n
		metrics.UpdateStoredRecords(n)
	}
	if s.lastPrediction != nil {
		stats["lastPredictedPeriod"] = s.lastPrediction.NextPeriod
		stats["lastStrategy"] = s.lastPrediction.Strategy
	}
	if s.lastBacktest != nil {
		stats["lastBacktest"] = *s.lastBacktest
	}
	return stats
}
