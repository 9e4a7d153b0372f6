// Package features turns a causal slice of draw history into per-candidate
// feature vectors: one labeled row per candidate for every transition
// between consecutive draws, plus one unlabeled row per candidate for the
// next, unseen draw.
//
// Extract reads only the records it is given and keeps no state between
// calls, so truncating the history is all it takes to keep later draws out.
package features

import (
	"fmt"

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/learn"
	"github.com/okian/drawcast/internal/domain/model"
)

// Column indices of a feature row.
const (
	MissStreak = iota
	Frequency
	WindowFrequency
	Momentum
	Transition
	Big
	Odd
	ZodiacRelation
	ElementRelation
	ColorCode
	Anomaly
	// Width is the number of columns.
	Width
)

// Names labels the columns, in order.
var Names = [Width]string{
	"miss_streak", "frequency", "window_frequency", "momentum", "transition",
	"big", "odd", "zodiac_relation", "element_relation", "color", "anomaly",
}

// Set is the output of one extraction pass.
type Set struct {
	// Train holds one row per (transition, candidate), grouped by transition
	// in history order and by candidate ascending within a transition.
	Train  [][]float64
	Labels []float64
	// Predict holds the row of candidate n at index n-1.
	Predict [][]float64

	// LastDrawn is the drawn set of the latest record.
	LastDrawn model.DrawSet
	// BigShare and OddShare are the shares of big and odd numbers among all
	// numbers drawn in the trailing macro window.
	BigShare float64
	OddShare float64

	Latest model.DrawRecord
	Maps   category.Maps
}

// Row returns the prediction row of candidate n.
func (s *Set) Row(n int) []float64 { return s.Predict[n-1] }

// Transitions returns the number of labeled transitions.
func (s *Set) Transitions() int { return len(s.Train) / category.PoolSize }

// MapsFor derives the category maps at the cut point of records: the
// reference year of the latest record's date.
func MapsFor(records []model.DrawRecord) (category.Maps, error) {
	if len(records) == 0 {
		return category.Maps{}, ErrEmptyHistory
	}
	return category.Build(category.ReferenceYear(records[len(records)-1].Date)), nil
}

// Extract builds the feature set for records, which must be in ascending
// period order. With a single record there are no training rows and the
// anomaly column of the prediction rows is zero.
func Extract(records []model.DrawRecord, maps category.Maps, cfg Config) (*Set, error) {
	if len(records) == 0 {
		return nil, ErrEmptyHistory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := len(records)
	transitions := n - 1
	rows := transitions * category.PoolSize
	set := &Set{
		Train:  make([][]float64, rows),
		Labels: make([]float64, rows),
		Latest: records[n-1],
		Maps:   maps,
	}
	trainBuf := make([]float64, rows*Width)
	for i := range set.Train {
		set.Train[i] = trainBuf[i*Width : (i+1)*Width : (i+1)*Width]
	}

	t := newTracker(cfg, n)
	for i := 0; i < transitions; i++ {
		curr := records[i]
		next := records[i+1]
		t.observe(curr.Drawn())
		nextDrawn := next.Drawn()
		for c := category.MinNumber; c <= category.MaxNumber; c++ {
			k := i*category.PoolSize + c - 1
			t.fill(set.Train[k], c, curr, &maps)
			if nextDrawn[c] {
				set.Labels[k] = 1
			}
		}
		t.transition(curr.SpecialZodiac, next.SpecialZodiac)
	}

	latest := records[n-1]
	t.observe(latest.Drawn())
	predBuf := make([]float64, category.PoolSize*Width)
	set.Predict = make([][]float64, category.PoolSize)
	for c := category.MinNumber; c <= category.MaxNumber; c++ {
		row := predBuf[(c-1)*Width : c*Width : c*Width]
		t.fill(row, c, latest, &maps)
		set.Predict[c-1] = row
	}

	if rows > 0 {
		if err := scoreAnomalies(set, cfg); err != nil {
			return nil, err
		}
	}

	set.LastDrawn = latest.Drawn()
	set.BigShare, set.OddShare = macroShares(records, cfg.MacroWindow)
	return set, nil
}

// scoreAnomalies fits the isolation scorer on the training rows without the
// anomaly column and fills that column for training and prediction rows.
func scoreAnomalies(set *Set, cfg Config) error {
	head := func(rows [][]float64) [][]float64 {
		out := make([][]float64, len(rows))
		for i, r := range rows {
			out[i] = r[:Anomaly:Anomaly]
		}
		return out
	}
	iso := learn.NewIsolationForest(cfg.Contamination, cfg.Seed)
	iso.NEstimators = cfg.AnomalyTrees
	train := head(set.Train)
	if err := iso.Fit(train); err != nil {
		return fmt.Errorf("fit anomaly scorer: %w", err)
	}
	trainScores, err := iso.Decision(train)
	if err != nil {
		return fmt.Errorf("score training rows: %w", err)
	}
	predScores, err := iso.Decision(head(set.Predict))
	if err != nil {
		return fmt.Errorf("score prediction rows: %w", err)
	}
	for i, s := range trainScores {
		set.Train[i][Anomaly] = s
	}
	for i, s := range predScores {
		set.Predict[i][Anomaly] = s
	}
	return nil
}

// macroShares returns the big and odd shares over the drawn numbers of the
// last window records.
func macroShares(records []model.DrawRecord, window int) (big, odd float64) {
	start := max(0, len(records)-window)
	slots, bigs, odds := 0, 0, 0
	for _, r := range records[start:] {
		for _, v := range r.Numbers() {
			slots++
			if v >= category.BigThreshold {
				bigs++
			}
			if v%2 == 1 {
				odds++
			}
		}
	}
	if slots == 0 {
		return 0, 0
	}
	return float64(bigs) / float64(slots), float64(odds) / float64(slots)
}
