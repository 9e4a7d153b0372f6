package learn

import (
	"fmt"
	"math"
	"sort"
)

const eulerGamma = 0.5772156649015329

// IsolationForest scores how easily a row is isolated by random axis-aligned
// splits. Decision returns positive values for inliers and negative values
// for outliers, offset so that a Contamination share of the training rows
// falls below zero.
type IsolationForest struct {
	NEstimators   int
	MaxSamples    int
	Contamination float64
	Seed          uint64

	width  int
	psi    int
	offset float64
	trees  []*isoTree
}

// NewIsolationForest returns a forest of 100 trees with at most 256 samples
// per tree.
func NewIsolationForest(contamination float64, seed uint64) *IsolationForest {
	return &IsolationForest{
		NEstimators:   100,
		MaxSamples:    256,
		Contamination: contamination,
		Seed:          seed,
	}
}

type isoNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	size      int
}

type isoTree struct {
	nodes []isoNode
}

// averagePathLength is c(n), the mean path length of an unsuccessful search
// in a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	f := float64(n)
	return 2*(math.Log(f-1)+eulerGamma) - 2*(f-1)/f
}

// Fit grows the trees and computes the decision offset.
func (f *IsolationForest) Fit(X [][]float64) error {
	if f.NEstimators < 1 || f.MaxSamples < 1 || f.Contamination <= 0 || f.Contamination > 0.5 {
		return fmt.Errorf("%w: isolation forest n_estimators=%d max_samples=%d contamination=%g",
			ErrInvalidParam, f.NEstimators, f.MaxSamples, f.Contamination)
	}
	width, err := checkMatrix(X)
	if err != nil {
		return err
	}
	f.width = width
	n := len(X)
	f.psi = min(f.MaxSamples, n)
	heightLimit := int(math.Ceil(math.Log2(math.Max(float64(f.psi), 2))))

	f.trees = make([]*isoTree, 0, f.NEstimators)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	for t := 0; t < f.NEstimators; t++ {
		rng := newRand(f.Seed + uint64(t)*104729)
		perm := append([]int(nil), all...)
		// Partial Fisher-Yates: the first psi entries are a sample without replacement.
		for i := 0; i < f.psi; i++ {
			j := i + rng.IntN(n-i)
			perm[i], perm[j] = perm[j], perm[i]
		}
		tree := &isoTree{}
		var grow func(idx []int, depth int) int
		grow = func(idx []int, depth int) int {
			id := len(tree.nodes)
			tree.nodes = append(tree.nodes, isoNode{left: leafNode, right: leafNode, size: len(idx)})
			if depth >= heightLimit || len(idx) <= 1 {
				return id
			}
			feature, lo, hi, ok := splittableFeature(X, idx, width, rng.IntN(width))
			if !ok {
				return id
			}
			threshold := lo + rng.Float64()*(hi-lo)
			var left, right []int
			for _, i := range idx {
				if X[i][feature] < threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			l := grow(left, depth+1)
			r := grow(right, depth+1)
			tree.nodes[id].feature = feature
			tree.nodes[id].threshold = threshold
			tree.nodes[id].left = l
			tree.nodes[id].right = r
			return id
		}
		grow(perm[:f.psi], 0)
		f.trees = append(f.trees, tree)
	}

	scores := f.scoreSamples(X)
	f.offset = percentile(scores, 100*f.Contamination)
	return nil
}

// splittableFeature returns the first feature at or after start (cyclically)
// whose values vary within idx.
func splittableFeature(X [][]float64, idx []int, width, start int) (int, float64, float64, bool) {
	for k := 0; k < width; k++ {
		f := (start + k) % width
		lo, hi := X[idx[0]][f], X[idx[0]][f]
		for _, i := range idx[1:] {
			lo = math.Min(lo, X[i][f])
			hi = math.Max(hi, X[i][f])
		}
		if hi > lo {
			return f, lo, hi, true
		}
	}
	return 0, 0, 0, false
}

func (t *isoTree) pathLength(x []float64) float64 {
	i, depth := 0, 0
	for {
		n := &t.nodes[i]
		if n.left == leafNode {
			return float64(depth) + averagePathLength(n.size)
		}
		if x[n.feature] < n.threshold {
			i = n.left
		} else {
			i = n.right
		}
		depth++
	}
}

// scoreSamples returns the negated anomaly score 2^(-E[h(x)]/c(psi)).
func (f *IsolationForest) scoreSamples(X [][]float64) []float64 {
	norm := averagePathLength(f.psi)
	out := make([]float64, len(X))
	for i, x := range X {
		sum := 0.0
		for _, t := range f.trees {
			sum += t.pathLength(x)
		}
		mean := sum / float64(len(f.trees))
		if norm == 0 {
			out[i] = -0.5
			continue
		}
		out[i] = -math.Pow(2, -mean/norm)
	}
	return out
}

// Decision returns the anomaly decision value for each row.
func (f *IsolationForest) Decision(X [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, f.width); err != nil {
		return nil, err
	}
	scores := f.scoreSamples(X)
	for i := range scores {
		scores[i] -= f.offset
	}
	return scores, nil
}

// percentile uses linear interpolation between closest ranks.
func percentile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
