package learn

import (
	"fmt"
	"math"
)

// ClassWeight selects how samples are weighted by class.
type ClassWeight int

const (
	// ClassWeightNone gives every sample weight 1.
	ClassWeightNone ClassWeight = iota
	// ClassWeightBalanced weights class c by n / (2 * n_c).
	ClassWeightBalanced
)

// RandomForest is a bagged ensemble of Gini CART trees with bootstrap
// sampling and sqrt(features) candidates per split.
type RandomForest struct {
	NEstimators     int
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	ClassWeight     ClassWeight
	Seed            uint64

	width int
	trees []*tree
}

// NewRandomForest builds a forest from grid parameters n_estimators,
// max_depth and min_samples_split.
func NewRandomForest(p Params, weight ClassWeight, seed uint64) *RandomForest {
	return &RandomForest{
		NEstimators:     p.Int("n_estimators", 100),
		MaxDepth:        p.Int("max_depth", 0),
		MinSamplesSplit: p.Int("min_samples_split", 2),
		ClassWeight:     weight,
		Seed:            seed,
	}
}

// Fit trains the forest.
func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	if f.NEstimators < 1 || f.MinSamplesSplit < 2 || f.MaxDepth < 0 {
		return fmt.Errorf("%w: random forest n_estimators=%d max_depth=%d min_samples_split=%d",
			ErrInvalidParam, f.NEstimators, f.MaxDepth, f.MinSamplesSplit)
	}
	width, negatives, positives, err := checkLabeled(X, y)
	if err != nil {
		return err
	}

	n := len(X)
	weights := [2]float64{1, 1}
	if f.ClassWeight == ClassWeightBalanced {
		weights[0] = float64(n) / (2 * float64(negatives))
		weights[1] = float64(n) / (2 * float64(positives))
	}
	m := make([]moments, n)
	for i, v := range y {
		if v > 0.5 {
			m[i] = moments{a: weights[1], b: weights[1]}
		} else {
			m[i] = moments{a: weights[0]}
		}
	}

	maxFeatures := int(math.Sqrt(float64(width)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	f.width = width
	f.trees = make([]*tree, 0, f.NEstimators)
	samples := make([]int, n)
	for t := 0; t < f.NEstimators; t++ {
		rng := newRand(f.Seed + uint64(t)*7919)
		for i := range samples {
			samples[i] = rng.IntN(n)
		}
		b := &builder{
			X:           X,
			m:           m,
			crit:        gini{},
			maxDepth:    f.MaxDepth,
			minSplit:    f.MinSamplesSplit,
			maxFeatures: maxFeatures,
			rng:         rng,
		}
		f.trees = append(f.trees, b.build(samples))
	}
	return nil
}

// PredictProba averages the positive-class leaf fractions of all trees.
func (f *RandomForest) PredictProba(X [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, f.width); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, x := range X {
		sum := 0.0
		for _, t := range f.trees {
			sum += t.predict(x)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}
