package features

import (
	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/model"
)

type counts [category.PoolSize + 1]int

// tracker carries the running statistics of one causal pass.
type tracker struct {
	cfg  Config
	seen []model.DrawSet

	miss      counts
	frequency counts
	window    counts
	short     counts
	long      counts

	transCounts [category.ZodiacCount][category.ZodiacCount]int
	transTotals [category.ZodiacCount]int
}

func newTracker(cfg Config, capacity int) *tracker {
	return &tracker{cfg: cfg, seen: make([]model.DrawSet, 0, capacity)}
}

// observe folds one drawn set into every running statistic.
func (t *tracker) observe(drawn model.DrawSet) {
	t.seen = append(t.seen, drawn)
	idx := len(t.seen) - 1
	slide := func(c *counts, size int) {
		for n := category.MinNumber; n <= category.MaxNumber; n++ {
			if drawn[n] {
				c[n]++
			}
		}
		if old := idx - size; old >= 0 {
			for n := category.MinNumber; n <= category.MaxNumber; n++ {
				if t.seen[old][n] {
					c[n]--
				}
			}
		}
	}
	slide(&t.window, t.cfg.Window)
	slide(&t.short, t.cfg.ShortMomentum)
	slide(&t.long, t.cfg.LongMomentum)

	for n := category.MinNumber; n <= category.MaxNumber; n++ {
		if drawn[n] {
			t.frequency[n]++
			t.miss[n] = 0
		} else {
			t.miss[n]++
		}
	}
}

func (t *tracker) transition(from, to category.Zodiac) {
	if !from.Valid() || !to.Valid() {
		return
	}
	t.transCounts[from][to]++
	t.transTotals[from]++
}

// fill writes the first ten columns of candidate c's row, relative to the
// latest observed record prev.
func (t *tracker) fill(row []float64, c int, prev model.DrawRecord, maps *category.Maps) {
	z := maps.Zodiac(c)

	momentum := 0.0
	if len(t.seen) >= t.cfg.LongMomentum {
		momentum = float64(t.short[c])/float64(t.cfg.ShortMomentum) - float64(t.long[c])/float64(t.cfg.LongMomentum)
	}

	transition := 0.0
	if prev.SpecialZodiac.Valid() && t.transTotals[prev.SpecialZodiac] > 0 {
		transition = float64(t.transCounts[prev.SpecialZodiac][z]) / float64(t.transTotals[prev.SpecialZodiac])
	}

	row[MissStreak] = float64(t.miss[c])
	row[Frequency] = float64(t.frequency[c])
	row[WindowFrequency] = float64(t.window[c])
	row[Momentum] = momentum
	row[Transition] = transition
	row[Big] = flag(c >= category.BigThreshold)
	row[Odd] = flag(c%2 == 1)
	row[ZodiacRelation] = float64(t.cfg.Relations.ZodiacRelation(prev.SpecialZodiac, z))
	row[ElementRelation] = float64(t.cfg.Relations.ElementRelation(maps.Element(prev.Special), maps.Element(c)))
	row[ColorCode] = float64(maps.Color(c).Code())
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
