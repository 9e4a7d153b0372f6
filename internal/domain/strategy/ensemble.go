package strategy

import (
	"context"
	"fmt"

	"github.com/okian/drawcast/internal/domain/ensemble"
	"github.com/okian/drawcast/internal/domain/features"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/domain/scoring"
	"github.com/okian/drawcast/pkg/logger"
	"github.com/okian/drawcast/pkg/metrics"
)

// EnsembleName is the name of the Ensemble strategy.
const EnsembleName = "ensemble"

// defaultMinHistory is the shortest history the ensemble accepts: enough
// transitions for both classes to reach every cross-validation fold.
const defaultMinHistory = 10

// Option applies a configuration option to a strategy.
type Option func(*options)

type options struct {
	log        logger.Logger
	minHistory int
}

// WithLogger sets the strategy logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMinHistory sets the minimum number of records a strategy requires.
func WithMinHistory(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minHistory = n
		}
	}
}

func buildOptions(defaultMin int, opts []Option) options {
	o := options{log: logger.Nop(), minHistory: defaultMin}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Ensemble runs the full chain: category maps, feature extraction, the
// classifier stack and scoring.
type Ensemble struct {
	features features.Config
	stack    *ensemble.Stack
	scoring  scoring.Config
	opts     options
}

// NewEnsemble validates the three configs and returns the strategy.
func NewEnsemble(fc features.Config, ec ensemble.Config, sc scoring.Config, opts ...Option) (*Ensemble, error) {
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(defaultMinHistory, opts)
	stack, err := ensemble.New(ec, ensemble.WithLogger(o.log))
	if err != nil {
		return nil, err
	}
	return &Ensemble{features: fc, stack: stack, scoring: sc, opts: o}, nil
}

// Name implements Strategy.
func (e *Ensemble) Name() string { return EnsembleName }

// Predict implements Strategy.
func (e *Ensemble) Predict(ctx context.Context, history []model.DrawRecord) (model.Prediction, error) {
	if len(history) < e.opts.minHistory {
		return model.Prediction{}, stageErr(StageValidate,
			fmt.Errorf("%w: %d records, need %d", ErrInsufficientData, len(history), e.opts.minHistory))
	}

	maps, err := features.MapsFor(history)
	if err != nil {
		return model.Prediction{}, stageErr(StageFeatures, err)
	}
	set, err := features.Extract(history, maps, e.features)
	if err != nil {
		return model.Prediction{}, stageErr(StageFeatures, err)
	}
	metrics.RecordFeatureRows(len(set.Train))

	res, err := e.stack.Predict(ctx, set.Train, set.Labels, set.Predict)
	if err != nil {
		return model.Prediction{}, stageErr(StageTrain, err)
	}

	cands := make([]scoring.Candidate, len(set.Predict))
	for i, row := range set.Predict {
		cands[i] = scoring.Candidate{
			Number:          i + 1,
			Probability:     res.Fused[i],
			MissStreak:      row[features.MissStreak],
			Frequency:       row[features.Frequency],
			WindowFrequency: row[features.WindowFrequency],
			Momentum:        row[features.Momentum],
		}
	}
	macro := scoring.Macro{BigShare: set.BigShare, OddShare: set.OddShare, Ineligible: set.LastDrawn}
	board, err := scoring.Compute(cands, macro, e.scoring)
	if err != nil {
		return model.Prediction{}, stageErr(StageScore, err)
	}

	e.opts.log.Debug(ctx, "ensemble scored",
		logger.Int64("based_on", set.Latest.Period),
		logger.Int("rows", len(set.Train)),
		logger.Float64("big_share", set.BigShare),
		logger.Float64("odd_share", set.OddShare))
	return assemble(EnsembleName, set.Latest, board, &set.Maps, e.scoring.TopScores)
}
