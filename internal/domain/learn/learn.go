// Package learn holds the small statistical learners used by the feature
// pipeline and the classifier stack: bagged and boosted decision trees, a
// single-step recurrent network, an isolation forest, randomized
// hyperparameter search and ROC-AUC.
//
// Every learner is deterministic for a fixed seed. Matrices are row-major
// [][]float64 and labels are 0/1 float64 values.
package learn

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Classifier is a binary classifier producing positive-class probabilities.
type Classifier interface {
	Fit(X [][]float64, y []float64) error
	PredictProba(X [][]float64) ([]float64, error)
}

// Params is one point of a hyperparameter grid.
type Params map[string]float64

// Int returns the parameter rounded to an int, or def when absent.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	return int(math.Round(v))
}

// Float returns the parameter, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	return v
}

// newRand returns a PCG source derived from seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// checkMatrix verifies X is non-empty and rectangular and returns its width.
func checkMatrix(X [][]float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyDataset
	}
	width := len(X[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: rows have no columns", ErrShapeMismatch)
	}
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return width, nil
}

// checkLabeled verifies a labeled training set and returns the class counts.
func checkLabeled(X [][]float64, y []float64) (width, negatives, positives int, err error) {
	width, err = checkMatrix(X)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(y) != len(X) {
		return 0, 0, 0, fmt.Errorf("%w: %d labels for %d rows", ErrShapeMismatch, len(y), len(X))
	}
	for _, v := range y {
		if v > 0.5 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return 0, 0, 0, fmt.Errorf("%w: %d positive, %d negative", ErrLabelDegenerate, positives, negatives)
	}
	return width, negatives, positives, nil
}

func checkWidth(X [][]float64, want int) error {
	width, err := checkMatrix(X)
	if err != nil {
		return err
	}
	if width != want {
		return fmt.Errorf("%w: got %d features, model trained on %d", ErrShapeMismatch, width, want)
	}
	return nil
}

func subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for k, i := range idx {
		xs[k] = X[i]
		ys[k] = y[i]
	}
	return xs, ys
}
