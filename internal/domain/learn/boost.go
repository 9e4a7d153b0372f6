package learn

import "fmt"

// GradientBoosting is a second-order boosted tree ensemble on log-loss.
// Leaves hold -G/(H+lambda) and the prediction is sigmoid of the shrunken sum.
type GradientBoosting struct {
	NEstimators    int
	MaxDepth       int
	LearningRate   float64
	Lambda         float64
	MinChildWeight float64

	width int
	trees []*tree
}

// NewGradientBoosting builds a booster from grid parameters n_estimators,
// max_depth and learning_rate.
func NewGradientBoosting(p Params) *GradientBoosting {
	return &GradientBoosting{
		NEstimators:    p.Int("n_estimators", 100),
		MaxDepth:       p.Int("max_depth", 6),
		LearningRate:   p.Float("learning_rate", 0.3),
		Lambda:         p.Float("lambda", 1),
		MinChildWeight: p.Float("min_child_weight", 1),
	}
}

// Fit trains the booster.
func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if g.NEstimators < 1 || g.MaxDepth < 1 || g.LearningRate <= 0 || g.Lambda < 0 {
		return fmt.Errorf("%w: gradient boosting n_estimators=%d max_depth=%d learning_rate=%g lambda=%g",
			ErrInvalidParam, g.NEstimators, g.MaxDepth, g.LearningRate, g.Lambda)
	}
	width, _, _, err := checkLabeled(X, y)
	if err != nil {
		return err
	}

	n := len(X)
	margin := make([]float64, n)
	m := make([]moments, n)
	samples := make([]int, n)
	for i := range samples {
		samples[i] = i
	}

	g.width = width
	g.trees = make([]*tree, 0, g.NEstimators)
	crit := newton{lambda: g.Lambda, minChildWeight: g.MinChildWeight}
	for round := 0; round < g.NEstimators; round++ {
		for i := range m {
			p := sigmoid(margin[i])
			h := p * (1 - p)
			if h < 1e-16 {
				h = 1e-16
			}
			m[i] = moments{a: p - y[i], b: h}
		}
		b := &builder{X: X, m: m, crit: crit, maxDepth: g.MaxDepth, minSplit: 2}
		t := b.build(samples)
		for k := range t.nodes {
			t.nodes[k].value *= g.LearningRate
		}
		for i, x := range X {
			margin[i] += t.predict(x)
		}
		g.trees = append(g.trees, t)
	}
	return nil
}

// PredictProba returns sigmoid of the summed tree outputs.
func (g *GradientBoosting) PredictProba(X [][]float64) ([]float64, error) {
	if len(g.trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, g.width); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, x := range X {
		margin := 0.0
		for _, t := range g.trees {
			margin += t.predict(x)
		}
		out[i] = sigmoid(margin)
	}
	return out, nil
}
