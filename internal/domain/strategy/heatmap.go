package strategy

import (
	"context"
	"fmt"

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/domain/scoring"
)

// HeatmapName is the name of the Heatmap strategy.
const HeatmapName = "heatmap"

// HeatmapConfig holds the heat adjustments. Each field is added to a
// candidate's heat when its condition holds; the final score is
// Ceiling - heat, so the least crowded numbers rank first.
type HeatmapConfig struct {
	Base    float64
	Ceiling float64

	UnluckyDigit   int     // last digit avoided by the crowd
	Unlucky        float64 // negative
	Extremes       float64 // numbers 1 and 49
	Clash          float64 // zodiac clashing with the last special; negative
	Generated      float64 // element generated by the last special's element
	BirthdayMax    int
	Birthday       float64
	Lucky          float64 // last digit 6, 8 or 9, or 11, 22, 33
	YearZodiac     float64 // zodiac of the reference year
	Neighbor       float64 // adjacent to the last special
	SnowballStart  int
	SnowballBase   float64
	SnowballStep   float64
	SnowballCap    int
	SnowballCapAdd float64
	Repeat         float64 // drawn in the latest record
	HotWindow      int
	HotCount       int
	Hot            float64
	MacroWindow    int
	MacroHeavy     int // more than this many big (or odd) numbers is heavy
	MacroLight     int // fewer than this many is light
	Macro          float64
	StreakMin      int
	StreakBreak    float64
}

// DefaultHeatmapConfig returns the standard heat table.
func DefaultHeatmapConfig() HeatmapConfig {
	return HeatmapConfig{
		Base:           100,
		Ceiling:        10000,
		UnluckyDigit:   4,
		Unlucky:        -40,
		Extremes:       60,
		Clash:          -35,
		Generated:      45,
		BirthdayMax:    31,
		Birthday:       30,
		Lucky:          40,
		YearZodiac:     50,
		Neighbor:       45,
		SnowballStart:  8,
		SnowballBase:   20,
		SnowballStep:   15,
		SnowballCap:    18,
		SnowballCapAdd: 200,
		Repeat:         50,
		HotWindow:      10,
		HotCount:       3,
		Hot:            80,
		MacroWindow:    5,
		MacroHeavy:     20,
		MacroLight:     15,
		Macro:          80,
		StreakMin:      3,
		StreakBreak:    120,
	}
}

// Heatmap is a deterministic crowd-heat heuristic that needs no training.
// It heats all 49 numbers but ranks only those absent from the latest draw.
type Heatmap struct {
	cfg       HeatmapConfig
	relations category.Relations
	topScores int
	opts      options
}

// NewHeatmap returns the strategy. topScores is the number of ranked
// entries reported.
func NewHeatmap(cfg HeatmapConfig, relations category.Relations, topScores int, opts ...Option) *Heatmap {
	if topScores < 1 {
		topScores = scoring.DefaultConfig().TopScores
	}
	return &Heatmap{cfg: cfg, relations: relations, topScores: topScores, opts: buildOptions(1, opts)}
}

// Name implements Strategy.
func (h *Heatmap) Name() string { return HeatmapName }

// Predict implements Strategy.
func (h *Heatmap) Predict(ctx context.Context, history []model.DrawRecord) (model.Prediction, error) {
	if len(history) < h.opts.minHistory {
		return model.Prediction{}, stageErr(StageValidate,
			fmt.Errorf("%w: %d records, need %d", ErrInsufficientData, len(history), h.opts.minHistory))
	}
	if err := ctx.Err(); err != nil {
		return model.Prediction{}, err
	}

	latest := history[len(history)-1]
	maps := category.Build(category.ReferenceYear(latest.Date))
	heat := h.heat(history, &maps)

	// Numbers of the latest draw are heated but never ranked.
	drawn := latest.Drawn()
	entries := make([]scoring.Entry, 0, category.PoolSize)
	for n := category.MinNumber; n <= category.MaxNumber; n++ {
		if drawn[n] {
			continue
		}
		entries = append(entries, scoring.Entry{Number: n, Score: h.cfg.Ceiling - heat[n]})
	}
	board, err := scoring.NewBoard(entries)
	if err != nil {
		return model.Prediction{}, stageErr(StageScore, err)
	}
	return assemble(HeatmapName, latest, board, &maps, h.topScores)
}

// heat computes every number's heat from the history.
func (h *Heatmap) heat(history []model.DrawRecord, maps *category.Maps) [category.PoolSize + 1]float64 {
	cfg := h.cfg
	latest := history[len(history)-1]

	var miss [category.PoolSize + 1]int
	for _, r := range history {
		drawn := r.Drawn()
		for n := category.MinNumber; n <= category.MaxNumber; n++ {
			if drawn[n] {
				miss[n] = 0
			} else {
				miss[n]++
			}
		}
	}

	// Hot counts cover the HotWindow draws before the latest one.
	var hot [category.PoolSize + 1]int
	prior := history[:len(history)-1]
	for _, r := range prior[max(0, len(prior)-cfg.HotWindow):] {
		for _, n := range r.Numbers() {
			hot[n]++
		}
	}

	bigs, odds := 0, 0
	for _, r := range history[max(0, len(history)-cfg.MacroWindow):] {
		for _, n := range r.Numbers() {
			if n >= category.BigThreshold {
				bigs++
			}
			if n%2 == 1 {
				odds++
			}
		}
	}

	streakColor := category.ColorOf(latest.Special)
	streak := 0
	for i := len(history) - 1; i >= 0 && category.ColorOf(history[i].Special) == streakColor; i-- {
		streak++
	}

	clash := h.relations.Clash(latest.SpecialZodiac)
	generated := h.relations.Generates(maps.Element(latest.Special))
	yearZodiac := maps.Zodiac(1)

	var out [category.PoolSize + 1]float64
	for n := category.MinNumber; n <= category.MaxNumber; n++ {
		v := cfg.Base
		if n%10 == cfg.UnluckyDigit {
			v += cfg.Unlucky
		}
		if n == category.MinNumber || n == category.MaxNumber {
			v += cfg.Extremes
		}
		z := maps.Zodiac(n)
		if latest.SpecialZodiac.Valid() && z == clash {
			v += cfg.Clash
		}
		if maps.Element(n) == generated {
			v += cfg.Generated
		}
		if n <= cfg.BirthdayMax {
			v += cfg.Birthday
		}
		if d := n % 10; d == 6 || d == 8 || d == 9 || n == 11 || n == 22 || n == 33 {
			v += cfg.Lucky
		}
		if z == yearZodiac {
			v += cfg.YearZodiac
		}
		if n == latest.Special-1 || n == latest.Special+1 {
			v += cfg.Neighbor
		}
		if miss[n] >= cfg.SnowballStart {
			v += cfg.SnowballBase + float64(miss[n]-cfg.SnowballStart)*cfg.SnowballStep
		}
		if miss[n] >= cfg.SnowballCap {
			v += cfg.SnowballCapAdd
		}
		if miss[n] == 0 {
			v += cfg.Repeat
		}
		if hot[n] >= cfg.HotCount {
			v += cfg.Hot
		}
		big, odd := n >= category.BigThreshold, n%2 == 1
		if bigs > cfg.MacroHeavy && !big {
			v += cfg.Macro
		}
		if bigs < cfg.MacroLight && big {
			v += cfg.Macro
		}
		if odds > cfg.MacroHeavy && !odd {
			v += cfg.Macro
		}
		if odds < cfg.MacroLight && odd {
			v += cfg.Macro
		}
		if streak >= cfg.StreakMin && category.ColorOf(n) != streakColor {
			v += cfg.StreakBreak
		}
		out[n] = v
	}
	return out
}
