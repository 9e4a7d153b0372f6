package learn

import (
	"math/rand/v2"
	"sort"
)

const leafNode = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// tree is a binary decision tree stored as a flat node slice; node 0 is the root.
type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.left == leafNode {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// moments are the per-sample sums a split criterion works on. For Gini trees
// a is the sample weight and b the weighted positive indicator; for Newton
// boosting a is the gradient and b the hessian.
type moments struct {
	a, b float64
}

func (m moments) add(o moments) moments { return moments{m.a + o.a, m.b + o.b} }
func (m moments) sub(o moments) moments { return moments{m.a - o.a, m.b - o.b} }

type criterion interface {
	// gain is the improvement of splitting total into left and right.
	gain(left, right, total moments) float64
	// valid reports whether both children satisfy the minimum-child rules.
	valid(left, right moments, nLeft, nRight int) bool
	// pure reports whether a node cannot be improved.
	pure(total moments) bool
	leaf(total moments) float64
}

// builder grows one tree over presorted sample orders. Samples may repeat,
// which is how bootstrap draws are represented.
type builder struct {
	X           [][]float64
	m           []moments
	crit        criterion
	maxDepth    int
	minSplit    int
	maxFeatures int
	rng         *rand.Rand

	nodes []node
}

// build sorts samples by every feature once and grows the tree.
func (b *builder) build(samples []int) *tree {
	width := len(b.X[0])
	orders := make([][]int, width)
	for f := 0; f < width; f++ {
		ord := append([]int(nil), samples...)
		sort.SliceStable(ord, func(i, j int) bool { return b.X[ord[i]][f] < b.X[ord[j]][f] })
		orders[f] = ord
	}
	b.nodes = nil
	b.grow(orders, 0)
	return &tree{nodes: b.nodes}
}

func (b *builder) grow(orders [][]int, depth int) int {
	var total moments
	for _, i := range orders[0] {
		total = total.add(b.m[i])
	}
	n := len(orders[0])
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{left: leafNode, right: leafNode, value: b.crit.leaf(total)})

	if (b.maxDepth > 0 && depth >= b.maxDepth) || n < b.minSplit || n < 2 || b.crit.pure(total) {
		return id
	}

	feature, threshold, ok := b.bestSplit(orders, total)
	if !ok {
		return id
	}

	leftOrders := make([][]int, len(orders))
	rightOrders := make([][]int, len(orders))
	for f, ord := range orders {
		l := make([]int, 0, len(ord))
		r := make([]int, 0, len(ord))
		for _, i := range ord {
			if b.X[i][feature] <= threshold {
				l = append(l, i)
			} else {
				r = append(r, i)
			}
		}
		leftOrders[f], rightOrders[f] = l, r
	}

	left := b.grow(leftOrders, depth+1)
	right := b.grow(rightOrders, depth+1)
	b.nodes[id].feature = feature
	b.nodes[id].threshold = threshold
	b.nodes[id].left = left
	b.nodes[id].right = right
	return id
}

// bestSplit scans candidate features. With maxFeatures set, features are
// visited in a random order and the search stops after maxFeatures of them
// once a valid split has been found.
func (b *builder) bestSplit(orders [][]int, total moments) (int, float64, bool) {
	features := make([]int, len(orders))
	for f := range features {
		features[f] = f
	}
	limit := len(features)
	if b.maxFeatures > 0 && b.maxFeatures < limit && b.rng != nil {
		b.rng.Shuffle(len(features), func(i, j int) { features[i], features[j] = features[j], features[i] })
		limit = b.maxFeatures
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	for visited, f := range features {
		if visited >= limit && bestFeature >= 0 {
			break
		}
		ord := orders[f]
		n := len(ord)
		var left moments
		for k := 0; k < n-1; k++ {
			left = left.add(b.m[ord[k]])
			lo, hi := b.X[ord[k]][f], b.X[ord[k+1]][f]
			if lo == hi {
				continue
			}
			right := total.sub(left)
			if !b.crit.valid(left, right, k+1, n-k-1) {
				continue
			}
			g := b.crit.gain(left, right, total)
			if g > bestGain+1e-12 {
				bestGain = g
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// gini is the weighted Gini impurity criterion used by the forest.
type gini struct{}

func giniImpurity(m moments) float64 {
	if m.a <= 0 {
		return 0
	}
	p := m.b / m.a
	return 2 * p * (1 - p)
}

func (gini) gain(left, right, total moments) float64 {
	return total.a*giniImpurity(total) - left.a*giniImpurity(left) - right.a*giniImpurity(right)
}

func (gini) valid(_, _ moments, nLeft, nRight int) bool { return nLeft > 0 && nRight > 0 }

func (gini) pure(total moments) bool {
	return total.b <= 1e-12 || total.a-total.b <= 1e-12
}

func (gini) leaf(total moments) float64 {
	if total.a <= 0 {
		return 0
	}
	return total.b / total.a
}

// newton is the second-order log-loss criterion used by gradient boosting.
type newton struct {
	lambda         float64
	minChildWeight float64
}

func (c newton) score(m moments) float64 { return m.a * m.a / (m.b + c.lambda) }

func (c newton) gain(left, right, total moments) float64 {
	return c.score(left) + c.score(right) - c.score(total)
}

func (c newton) valid(left, right moments, _, _ int) bool {
	return left.b >= c.minChildWeight && right.b >= c.minChildWeight
}

func (newton) pure(total moments) bool { return false }

func (c newton) leaf(total moments) float64 { return -total.a / (total.b + c.lambda) }
