package model

import (
	"encoding/json"
	"fmt"
)

// ShortlistSize is the size of the special and normal shortlists.
const ShortlistSize = 6

// Combo summarizes the recommended numbers. It is informational only.
type Combo struct {
	OddEven  string `json:"odd_even"`
	BigSmall string `json:"big_small"`
	Sum      int    `json:"sum"`
}

// ScoreEntry is one ranked candidate with its category labels. It encodes
// as a JSON array [number, score, zodiac, element, color].
type ScoreEntry struct {
	Number  int
	Score   float64
	Zodiac  string
	Element string
	Color   string
}

// MarshalJSON encodes the entry as a tuple.
func (e ScoreEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Number, e.Score, e.Zodiac, e.Element, e.Color})
}

// UnmarshalJSON decodes the tuple form.
func (e *ScoreEntry) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 5 {
		return fmt.Errorf("score entry: want 5 fields, got %d", len(raw))
	}
	targets := []any{&e.Number, &e.Score, &e.Zodiac, &e.Element, &e.Color}
	for i, t := range targets {
		if err := json.Unmarshal(raw[i], t); err != nil {
			return fmt.Errorf("score entry field %d: %w", i, err)
		}
	}
	return nil
}

// Prediction is the flat output record of one prediction.
type Prediction struct {
	NextPeriod       int64              `json:"next_period"`
	BasedOnPeriod    int64              `json:"based_on_period"`
	PrimarySpecial   int                `json:"primary_special"`
	SpecialShortlist [ShortlistSize]int `json:"special_shortlist"`
	NormalShortlist  [ShortlistSize]int `json:"normal_shortlist"`
	Combo            Combo              `json:"combo_attributes"`
	TopScores        []ScoreEntry       `json:"top_scores"`
	Strategy         string             `json:"strategy"`
	RunID            string             `json:"run_id,omitempty"`
}

// Review compares a stored prediction with the draw it targeted.
type Review struct {
	Period        int64            `json:"period"`
	NormalHits    []int            `json:"normal_hits"`
	SpecialHit    bool             `json:"special_hit"`
	PrimaryHit    bool             `json:"primary_hit"`
	ActualNormals [NormalCount]int `json:"actual_normals"`
	ActualSpecial int              `json:"actual_special"`
}

// ReviewPrediction checks p against the actual draw. Normal hits are the
// recommended normals found among the actual normals, ascending.
func ReviewPrediction(p Prediction, actual DrawRecord) Review {
	normals := make(map[int]bool, NormalCount)
	for _, n := range actual.Normals {
		normals[n] = true
	}
	r := Review{
		Period:        actual.Period,
		NormalHits:    []int{},
		PrimaryHit:    p.PrimarySpecial == actual.Special,
		ActualNormals: actual.Normals,
		ActualSpecial: actual.Special,
	}
	for _, n := range p.NormalShortlist {
		if normals[n] {
			r.NormalHits = append(r.NormalHits, n)
		}
	}
	for _, n := range p.SpecialShortlist {
		if n == actual.Special {
			r.SpecialHit = true
		}
	}
	return r
}
