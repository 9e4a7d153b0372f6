package ensemble

import (
	"fmt"
	"math"

	"github.com/okian/drawcast/internal/domain/learn"
)

// weightTolerance bounds the rounding error accepted in a weight sum.
const weightTolerance = 1e-9

// Weights are the fixed fusion coefficients. Sequence is ignored when the
// sequence model is disabled.
type Weights struct {
	Forest   float64 `json:"forest"`
	Boost    float64 `json:"boost"`
	Sequence float64 `json:"sequence"`
}

// PairWeights fuses the two tree models equally.
func PairWeights() Weights { return Weights{Forest: 0.5, Boost: 0.5} }

// TripleWeights lets the tree models dominate and the sequence model supplement.
func TripleWeights() Weights { return Weights{Forest: 0.35, Boost: 0.35, Sequence: 0.30} }

// Sum returns the total weight of the active models.
func (w Weights) Sum(sequence bool) float64 {
	s := w.Forest + w.Boost
	if sequence {
		s += w.Sequence
	}
	return s
}

// Validate requires non-negative weights summing to one.
func (w Weights) Validate(sequence bool) error {
	if w.Forest < 0 || w.Boost < 0 || (sequence && w.Sequence < 0) {
		return fmt.Errorf("%w: negative weight in %+v", ErrInvalidWeights, w)
	}
	if sum := w.Sum(sequence); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %g", ErrInvalidWeights, sum)
	}
	return nil
}

// Config declares the models, their search spaces and the fusion weights.
type Config struct {
	ForestGrid learn.Grid
	BoostGrid  learn.Grid
	Iterations int
	Folds      int
	Seed       uint64
	Sequence   bool
	Weights    Weights
}

// DefaultConfig enables all three models with the 0.35/0.35/0.30 fusion.
func DefaultConfig() Config {
	return Config{
		ForestGrid: learn.Grid{
			"n_estimators":      {50, 100},
			"max_depth":         {3, 5, 8},
			"min_samples_split": {2, 5},
		},
		BoostGrid: learn.Grid{
			"n_estimators":  {50, 100},
			"max_depth":     {3, 5},
			"learning_rate": {0.01, 0.05, 0.1},
		},
		Iterations: 3,
		Folds:      3,
		Seed:       42,
		Sequence:   true,
		Weights:    TripleWeights(),
	}
}

// WithSequence returns a copy with the sequence model switched and the
// matching default weights.
func (c Config) WithSequence(on bool) Config {
	c.Sequence = on
	if on {
		c.Weights = TripleWeights()
	} else {
		c.Weights = PairWeights()
	}
	return c
}

// Validate checks the search settings and the weights.
func (c Config) Validate() error {
	if c.Iterations < 1 || c.Folds < 2 {
		return fmt.Errorf("%w: iterations %d folds %d", ErrInvalidConfig, c.Iterations, c.Folds)
	}
	if len(c.ForestGrid) == 0 || len(c.BoostGrid) == 0 {
		return fmt.Errorf("%w: empty search grid", ErrInvalidConfig)
	}
	return c.Weights.Validate(c.Sequence)
}
