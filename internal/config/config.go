// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and DRAWCAST_ environment variables on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/okian/drawcast/internal/domain/backtest"
	"github.com/okian/drawcast/internal/domain/ensemble"
	"github.com/okian/drawcast/internal/domain/features"
	"github.com/okian/drawcast/internal/domain/scoring"
	"github.com/okian/drawcast/internal/domain/strategy"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file. ":memory:" keeps everything in process.
	DBPath string `koanf:"db_path"`

	// Window is the default number of backtest steps.
	Window int `koanf:"window"`
	// WarmupMin is the number of records required before the first step.
	WarmupMin int `koanf:"warmup_min"`
	// Workers runs backtest steps in parallel when above one.
	Workers int `koanf:"workers"`

	// Seed drives every random choice in training.
	Seed uint64 `koanf:"seed"`
	// EnableSequence adds the recurrent model to the ensemble.
	EnableSequence bool `koanf:"enable_sequence"`
	// Strategies is the fallback chain, most preferred first.
	Strategies []string `koanf:"strategies"`
	// MinHistory is the shortest history the ensemble strategy accepts.
	MinHistory int `koanf:"min_history"`
	// TopScores is the number of ranked entries reported per prediction.
	TopScores int `koanf:"top_scores"`

	SkewThreshold float64 `koanf:"skew_threshold"`
	SkewBonus     float64 `koanf:"skew_bonus"`

	FingerprintMiss      float64 `koanf:"fingerprint_miss"`
	FingerprintFrequency float64 `koanf:"fingerprint_frequency"`
	FingerprintWindow    float64 `koanf:"fingerprint_window"`
	FingerprintMomentum  float64 `koanf:"fingerprint_momentum"`

	// Fusion weights. All zero selects the default for the sequence setting.
	WeightForest   float64 `koanf:"weight_forest"`
	WeightBoost    float64 `koanf:"weight_boost"`
	WeightSequence float64 `koanf:"weight_sequence"`

	SearchIterations int `koanf:"search_iterations"`
	SearchFolds      int `koanf:"search_folds"`

	// BacktestRatePerMin limits POST /backtest.
	BacktestRatePerMin int `koanf:"backtest_rate_per_min"`

	// DedupeSize bounds the period deduper used by imports.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	sc := scoring.DefaultConfig()
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		DBPath:               "drawcast.db",
		Window:               backtest.DefaultConfig().Window,
		WarmupMin:            backtest.DefaultConfig().WarmupMinimum,
		Workers:              runtime.NumCPU(),
		Seed:                 42,
		EnableSequence:       true,
		Strategies:           []string{strategy.EnsembleName, strategy.HeatmapName},
		MinHistory:           10,
		TopScores:            sc.TopScores,
		SkewThreshold:        sc.SkewThreshold,
		SkewBonus:            sc.SkewBonus,
		FingerprintMiss:      sc.Fingerprint.Miss,
		FingerprintFrequency: sc.Fingerprint.Frequency,
		FingerprintWindow:    sc.Fingerprint.Window,
		FingerprintMomentum:  sc.Fingerprint.Momentum,
		SearchIterations:     3,
		SearchFolds:          3,
		BacktestRatePerMin:   6,
		DedupeSize:           10_000,
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.Window < 1:
		return fmt.Errorf("%w: window %d", ErrInvalidConfig, c.Window)
	case c.WarmupMin < 0:
		return fmt.Errorf("%w: warmup_min %d", ErrInvalidConfig, c.WarmupMin)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	case c.MinHistory < 1:
		return fmt.Errorf("%w: min_history %d", ErrInvalidConfig, c.MinHistory)
	case c.BacktestRatePerMin < 1:
		return fmt.Errorf("%w: backtest_rate_per_min %d", ErrInvalidConfig, c.BacktestRatePerMin)
	case len(c.StrategyList()) == 0:
		return fmt.Errorf("%w: no strategies", ErrInvalidConfig)
	}
	for _, s := range c.StrategyList() {
		if s != strategy.EnsembleName && s != strategy.HeatmapName {
			return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s)
		}
	}
	for _, v := range []float64{c.SkewThreshold, c.SkewBonus, c.WeightForest, c.WeightBoost, c.WeightSequence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidConfig)
		}
	}

	if err := c.Features().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Ensemble().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Scoring().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Features returns the feature pipeline configuration.
func (c *Config) Features() features.Config {
	fc := features.DefaultConfig()
	fc.Seed = c.Seed
	return fc
}

// Ensemble returns the classifier stack configuration.
func (c *Config) Ensemble() ensemble.Config {
	ec := ensemble.DefaultConfig().WithSequence(c.EnableSequence)
	ec.Seed = c.Seed
	ec.Iterations = c.SearchIterations
	ec.Folds = c.SearchFolds
	if c.WeightForest != 0 || c.WeightBoost != 0 || c.WeightSequence != 0 {
		ec.Weights = ensemble.Weights{Forest: c.WeightForest, Boost: c.WeightBoost, Sequence: c.WeightSequence}
	}
	return ec
}

// Scoring returns the scoring configuration.
func (c *Config) Scoring() scoring.Config {
	return scoring.Config{
		SkewThreshold: c.SkewThreshold,
		SkewBonus:     c.SkewBonus,
		Fingerprint: scoring.Fingerprint{
			Miss:      c.FingerprintMiss,
			Frequency: c.FingerprintFrequency,
			Window:    c.FingerprintWindow,
			Momentum:  c.FingerprintMomentum,
		},
		TopScores: c.TopScores,
	}
}

// Backtest returns the harness configuration for a window of w steps.
// A non-positive w uses the configured Window.
func (c *Config) Backtest(w int) backtest.Config {
	if w <= 0 {
		w = c.Window
	}
	return backtest.Config{Window: w, WarmupMinimum: c.WarmupMin, Workers: c.Workers}
}

// StrategyList returns the configured strategy names, trimmed and lowercased.
// Comma-separated entries are split.
func (c *Config) StrategyList() []string {
	out := make([]string, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		out = append(out, splitList(strings.ToLower(s))...)
	}
	return out
}
