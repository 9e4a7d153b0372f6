// Package strategy defines interchangeable prediction strategies behind one
// interface and a Chain that runs them in order of preference.
package strategy

import (
	"context"
	"strings"

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/domain/scoring"
)

// Strategy predicts the next draw from a causal history in ascending period
// order. Implementations must read nothing beyond the slice they are given.
type Strategy interface {
	Name() string
	Predict(ctx context.Context, history []model.DrawRecord) (model.Prediction, error)
}

// assemble builds the output record from a ranked board.
func assemble(name string, latest model.DrawRecord, board scoring.Board, maps *category.Maps, topScores int) (model.Prediction, error) {
	sel, err := board.Partition()
	if err != nil {
		return model.Prediction{}, stageErr(StageScore, err)
	}
	top := board.Top(topScores)
	entries := make([]model.ScoreEntry, len(top))
	for i, e := range top {
		entries[i] = model.ScoreEntry{
			Number:  e.Number,
			Score:   e.Score,
			Zodiac:  maps.Zodiac(e.Number).Label(),
			Element: maps.Element(e.Number).Label(),
			Color:   maps.Color(e.Number).Label(),
		}
	}
	return model.Prediction{
		NextPeriod:       latest.Period + 1,
		BasedOnPeriod:    latest.Period,
		PrimarySpecial:   sel.Primary,
		SpecialShortlist: sel.Special,
		NormalShortlist:  sel.Normal,
		Combo:            sel.Combo,
		TopScores:        entries,
		Strategy:         name,
	}, nil
}

// Names returns the names of strategies joined by ">".
func Names(strategies []Strategy) string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}
