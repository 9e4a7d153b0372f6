package learn

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Grid maps a hyperparameter name to its candidate values.
type Grid map[string][]float64

// Factory builds an untrained classifier for one parameter point.
type Factory func(p Params) Classifier

// RandomizedSearch samples up to Iterations distinct points from Grid,
// scores each by mean ROC-AUC over stratified k-fold cross-validation and
// refits the best point on the full training set.
type RandomizedSearch struct {
	Grid       Grid
	Iterations int
	Folds      int
	Seed       uint64
	New        Factory
}

// SearchResult is the outcome of a search.
type SearchResult struct {
	Best       Classifier
	BestParams Params
	BestScore  float64
	// Scores holds the mean cross-validated AUC of each sampled point, in
	// sampling order. NaN marks a point with no scorable fold.
	Scores []float64
}

// Candidates enumerates the grid in a stable order, shuffles it with the
// search seed and returns the first Iterations points.
func (s RandomizedSearch) Candidates() []Params {
	keys := make([]string, 0, len(s.Grid))
	for k := range s.Grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := []Params{{}}
	for _, k := range keys {
		next := make([]Params, 0, len(points)*len(s.Grid[k]))
		for _, p := range points {
			for _, v := range s.Grid[k] {
				q := make(Params, len(p)+1)
				for pk, pv := range p {
					q[pk] = pv
				}
				q[k] = v
				next = append(next, q)
			}
		}
		points = next
	}

	rng := newRand(s.Seed)
	rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })
	if s.Iterations < len(points) {
		points = points[:s.Iterations]
	}
	return points
}

// Fit runs the search.
func (s RandomizedSearch) Fit(X [][]float64, y []float64) (*SearchResult, error) {
	if s.New == nil || s.Iterations < 1 || s.Folds < 2 {
		return nil, fmt.Errorf("%w: search iterations=%d folds=%d", ErrInvalidParam, s.Iterations, s.Folds)
	}
	if _, _, _, err := checkLabeled(X, y); err != nil {
		return nil, err
	}

	folds := StratifiedFolds(y, s.Folds)
	candidates := s.Candidates()
	res := &SearchResult{BestScore: math.Inf(-1), Scores: make([]float64, len(candidates))}
	bestIdx := -1

	for ci, params := range candidates {
		sum, scored := 0.0, 0
		for _, valIdx := range folds {
			if len(valIdx) == 0 {
				continue
			}
			trainIdx := complement(len(y), valIdx)
			xt, yt := subset(X, y, trainIdx)
			xv, yv := subset(X, y, valIdx)
			clf := s.New(params)
			if err := clf.Fit(xt, yt); err != nil {
				if errors.Is(err, ErrLabelDegenerate) {
					continue
				}
				return nil, fmt.Errorf("fit candidate %v: %w", params, err)
			}
			proba, err := clf.PredictProba(xv)
			if err != nil {
				return nil, fmt.Errorf("score candidate %v: %w", params, err)
			}
			auc := ROCAUC(yv, proba)
			if math.IsNaN(auc) {
				continue
			}
			sum += auc
			scored++
		}
		score := math.NaN()
		if scored > 0 {
			score = sum / float64(scored)
		}
		res.Scores[ci] = score
		if bestIdx < 0 || (!math.IsNaN(score) && (math.IsNaN(res.BestScore) || score > res.BestScore)) {
			bestIdx = ci
			res.BestScore = score
		}
	}

	res.BestParams = candidates[bestIdx]
	res.Best = s.New(res.BestParams)
	if err := res.Best.Fit(X, y); err != nil {
		return nil, fmt.Errorf("refit best %v: %w", res.BestParams, err)
	}
	return res, nil
}

// StratifiedFolds splits row indices into k validation folds, keeping the
// class proportions. Rows of each class are dealt in order into contiguous
// chunks, the first n_c mod k chunks one row larger.
func StratifiedFolds(y []float64, k int) [][]int {
	var byClass [2][]int
	for i, v := range y {
		c := 0
		if v > 0.5 {
			c = 1
		}
		byClass[c] = append(byClass[c], i)
	}
	folds := make([][]int, k)
	for _, members := range byClass {
		n := len(members)
		start := 0
		for f := 0; f < k; f++ {
			size := n / k
			if f < n%k {
				size++
			}
			folds[f] = append(folds[f], members[start:start+size]...)
			start += size
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}

func complement(n int, idx []int) []int {
	skip := make([]bool, n)
	for _, i := range idx {
		skip[i] = true
	}
	out := make([]int, 0, n-len(idx))
	for i := 0; i < n; i++ {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}
