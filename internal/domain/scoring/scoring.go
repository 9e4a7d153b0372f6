// Package scoring turns fused probabilities into final candidate scores,
// ranks them and partitions the ranking into the primary candidate and the
// two shortlists.
package scoring

import (
	"fmt"

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/model"
)

// Candidate carries the per-candidate inputs of the score.
type Candidate struct {
	Number          int
	Probability     float64
	MissStreak      float64
	Frequency       float64
	WindowFrequency float64
	Momentum        float64
}

// Macro carries the trailing draw statistics shared by all candidates.
type Macro struct {
	BigShare float64
	OddShare float64
	// Ineligible marks the numbers of the immediately preceding draw.
	Ineligible model.DrawSet
}

// Score is the final score of one candidate:
//
//	probability*100 + skew bonus + fingerprint
func Score(c Candidate, m Macro, cfg Config) float64 {
	s := c.Probability * 100
	s += skewBonus(c.Number >= category.BigThreshold, m.BigShare, cfg)
	s += skewBonus(c.Number%2 == 1, m.OddShare, cfg)
	fp := cfg.Fingerprint
	s += fp.Miss*c.MissStreak + fp.Frequency*c.Frequency + fp.Window*c.WindowFrequency + fp.Momentum*c.Momentum
	return s
}

// skewBonus favors the side a trailing share underrepresents. inSide reports
// whether the candidate belongs to the side the share measures.
func skewBonus(inSide bool, share float64, cfg Config) float64 {
	bias := share - 0.5
	switch {
	case bias > cfg.SkewThreshold && !inSide:
		return cfg.SkewBonus
	case bias < -cfg.SkewThreshold && inSide:
		return cfg.SkewBonus
	}
	return 0
}

// Compute scores every eligible candidate and returns the ranked board.
func Compute(cands []Candidate, m Macro, cfg Config) (Board, error) {
	if err := cfg.Validate(); err != nil {
		return Board{}, err
	}
	entries := make([]Entry, 0, len(cands))
	for _, c := range cands {
		if !category.InPool(c.Number) {
			return Board{}, fmt.Errorf("%w: number %d", ErrInvalidEntry, c.Number)
		}
		if m.Ineligible[c.Number] {
			continue
		}
		entries = append(entries, Entry{Number: c.Number, Score: Score(c, m, cfg)})
	}
	return NewBoard(entries)
}
