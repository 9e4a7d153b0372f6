package learn

import (
	"fmt"
	"math"
)

// Recurrent is a compact LSTM classifier over single-timestep sequences:
// an LSTM layer with relu activations, dropout, a relu dense layer and a
// sigmoid output, trained with Adam on binary cross-entropy. With one
// timestep and zero initial state the forget gate has no effect, so only the
// input, cell and output gates are parameterized.
//
// Inputs are standardized with the training mean and standard deviation.
// Training stops early when the epoch loss has not improved for Patience
// epochs, and the best weights seen are restored.
type Recurrent struct {
	Units        int
	Dense        int
	Dropout      float64
	Epochs       int
	BatchSize    int
	Patience     int
	LearningRate float64
	Seed         uint64

	width int
	mean  []float64
	scale []float64
	theta []float64
}

// NewRecurrent returns the default network: 32 units, dropout 0.2, dense 16,
// up to 15 epochs of batch 32, patience 3, Adam learning rate 0.001.
func NewRecurrent(seed uint64) *Recurrent {
	return &Recurrent{
		Units:        32,
		Dense:        16,
		Dropout:      0.2,
		Epochs:       15,
		BatchSize:    32,
		Patience:     3,
		LearningRate: 0.001,
		Seed:         seed,
	}
}

type recurrentView struct {
	wi, wg, wo []float64
	bi, bg, bo []float64
	w1, b1     []float64
	w2, b2     []float64
}

func (r *Recurrent) size() int {
	u, p, d := r.Units, r.width, r.Dense
	return 3*u*p + 3*u + d*u + d + d + 1
}

func (r *Recurrent) view(buf []float64) recurrentView {
	u, p, d := r.Units, r.width, r.Dense
	var v recurrentView
	off := 0
	take := func(n int) []float64 {
		s := buf[off : off+n : off+n]
		off += n
		return s
	}
	v.wi, v.wg, v.wo = take(u*p), take(u*p), take(u*p)
	v.bi, v.bg, v.bo = take(u), take(u), take(u)
	v.w1, v.b1 = take(d*u), take(d)
	v.w2, v.b2 = take(d), take(1)
	return v
}

// activations of one forward pass.
type recurrentTrace struct {
	zi, zg, zo []float64
	ig, gg, og []float64
	c, hd      []float64
	mask       []float64
	zd, d      []float64
	out        float64
}

func (r *Recurrent) newTrace() *recurrentTrace {
	u, d := r.Units, r.Dense
	return &recurrentTrace{
		zi: make([]float64, u), zg: make([]float64, u), zo: make([]float64, u),
		ig: make([]float64, u), gg: make([]float64, u), og: make([]float64, u),
		c: make([]float64, u), hd: make([]float64, u), mask: make([]float64, u),
		zd: make([]float64, d), d: make([]float64, d),
	}
}

func (r *Recurrent) forward(v recurrentView, x []float64, tr *recurrentTrace) float64 {
	p := r.width
	for u := 0; u < r.Units; u++ {
		zi, zg, zo := v.bi[u], v.bg[u], v.bo[u]
		row := u * p
		for j, xj := range x {
			zi += v.wi[row+j] * xj
			zg += v.wg[row+j] * xj
			zo += v.wo[row+j] * xj
		}
		tr.zi[u], tr.zg[u], tr.zo[u] = zi, zg, zo
		tr.ig[u] = sigmoid(zi)
		tr.gg[u] = math.Max(0, zg)
		tr.og[u] = sigmoid(zo)
		tr.c[u] = tr.ig[u] * tr.gg[u]
		tr.hd[u] = tr.og[u] * tr.c[u] * tr.mask[u]
	}
	out := v.b2[0]
	for k := 0; k < r.Dense; k++ {
		z := v.b1[k]
		row := k * r.Units
		for u, h := range tr.hd {
			z += v.w1[row+u] * h
		}
		tr.zd[k] = z
		tr.d[k] = math.Max(0, z)
		out += v.w2[k] * tr.d[k]
	}
	tr.out = sigmoid(out)
	return tr.out
}

func (r *Recurrent) backward(v, g recurrentView, x []float64, y, weight float64, tr *recurrentTrace, dh []float64) {
	dz := (tr.out - y) * weight
	g.b2[0] += dz
	for u := range dh {
		dh[u] = 0
	}
	for k := 0; k < r.Dense; k++ {
		g.w2[k] += dz * tr.d[k]
		if tr.zd[k] <= 0 {
			continue
		}
		dzd := dz * v.w2[k]
		g.b1[k] += dzd
		row := k * r.Units
		for u, h := range tr.hd {
			g.w1[row+u] += dzd * h
			dh[u] += dzd * v.w1[row+u]
		}
	}
	p := r.width
	for u := 0; u < r.Units; u++ {
		d := dh[u] * tr.mask[u]
		if d == 0 {
			continue
		}
		dzo := d * tr.c[u] * tr.og[u] * (1 - tr.og[u])
		dc := d * tr.og[u]
		dzi := dc * tr.gg[u] * tr.ig[u] * (1 - tr.ig[u])
		dzg := 0.0
		if tr.zg[u] > 0 {
			dzg = dc * tr.ig[u]
		}
		g.bi[u] += dzi
		g.bg[u] += dzg
		g.bo[u] += dzo
		row := u * p
		for j, xj := range x {
			g.wi[row+j] += dzi * xj
			g.wg[row+j] += dzg * xj
			g.wo[row+j] += dzo * xj
		}
	}
}

func (r *Recurrent) standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - r.mean[j]) / r.scale[j]
	}
	return out
}

// Fit trains the network.
func (r *Recurrent) Fit(X [][]float64, y []float64) error {
	if r.Units < 1 || r.Dense < 1 || r.Epochs < 1 || r.BatchSize < 1 ||
		r.Dropout < 0 || r.Dropout >= 1 || r.LearningRate <= 0 || r.Patience < 1 {
		return fmt.Errorf("%w: recurrent units=%d dense=%d epochs=%d batch=%d dropout=%g",
			ErrInvalidParam, r.Units, r.Dense, r.Epochs, r.BatchSize, r.Dropout)
	}
	width, _, _, err := checkLabeled(X, y)
	if err != nil {
		return err
	}
	r.width = width
	r.fitScaler(X)

	xs := make([][]float64, len(X))
	for i, row := range X {
		xs[i] = r.standardize(row)
	}

	rng := newRand(r.Seed)
	r.theta = make([]float64, r.size())
	v := r.view(r.theta)
	glorot := func(w []float64, fanIn, fanOut int) {
		limit := math.Sqrt(6 / float64(fanIn+fanOut))
		for i := range w {
			w[i] = (rng.Float64()*2 - 1) * limit
		}
	}
	glorot(v.wi, width, 4*r.Units)
	glorot(v.wg, width, 4*r.Units)
	glorot(v.wo, width, 4*r.Units)
	glorot(v.w1, r.Units, r.Dense)
	glorot(v.w2, r.Dense, 1)

	grad := make([]float64, len(r.theta))
	gv := r.view(grad)
	m1 := make([]float64, len(r.theta))
	m2 := make([]float64, len(r.theta))
	best := append([]float64(nil), r.theta...)
	bestLoss := math.Inf(1)
	wait := 0
	step := 0

	const (
		beta1   = 0.9
		beta2   = 0.999
		epsilon = 1e-7
	)
	keep := 1 - r.Dropout
	tr := r.newTrace()
	dh := make([]float64, r.Units)
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < r.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		lossSum := 0.0
		for start := 0; start < len(order); start += r.BatchSize {
			end := min(start+r.BatchSize, len(order))
			batch := order[start:end]
			for i := range grad {
				grad[i] = 0
			}
			weight := 1 / float64(len(batch))
			for _, i := range batch {
				for u := range tr.mask {
					if r.Dropout > 0 && rng.Float64() < r.Dropout {
						tr.mask[u] = 0
					} else {
						tr.mask[u] = 1 / keep
					}
				}
				out := r.forward(v, xs[i], tr)
				lossSum += crossEntropy(out, y[i])
				r.backward(v, gv, xs[i], y[i], weight, tr, dh)
			}

			step++
			c1 := 1 - math.Pow(beta1, float64(step))
			c2 := 1 - math.Pow(beta2, float64(step))
			for i, gi := range grad {
				m1[i] = beta1*m1[i] + (1-beta1)*gi
				m2[i] = beta2*m2[i] + (1-beta2)*gi*gi
				r.theta[i] -= r.LearningRate * (m1[i] / c1) / (math.Sqrt(m2[i]/c2) + epsilon)
			}
		}

		loss := lossSum / float64(len(xs))
		if loss < bestLoss {
			bestLoss = loss
			copy(best, r.theta)
			wait = 0
			continue
		}
		wait++
		if wait >= r.Patience {
			break
		}
	}
	copy(r.theta, best)
	return nil
}

func (r *Recurrent) fitScaler(X [][]float64) {
	n := float64(len(X))
	r.mean = make([]float64, r.width)
	r.scale = make([]float64, r.width)
	for _, row := range X {
		for j, v := range row {
			r.mean[j] += v
		}
	}
	for j := range r.mean {
		r.mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			d := v - r.mean[j]
			r.scale[j] += d * d
		}
	}
	for j := range r.scale {
		r.scale[j] = math.Sqrt(r.scale[j] / n)
		if r.scale[j] < 1e-12 {
			r.scale[j] = 1
		}
	}
}

func crossEntropy(p, y float64) float64 {
	const eps = 1e-7
	p = math.Min(math.Max(p, eps), 1-eps)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// PredictProba runs the network without dropout.
func (r *Recurrent) PredictProba(X [][]float64) ([]float64, error) {
	if r.theta == nil {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, r.width); err != nil {
		return nil, err
	}
	v := r.view(r.theta)
	tr := r.newTrace()
	for u := range tr.mask {
		tr.mask[u] = 1
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = r.forward(v, r.standardize(row), tr)
	}
	return out, nil
}
