package model

// StepResult is the outcome of one walk-forward step.
type StepResult struct {
	Period           int64              `json:"period"`
	ActualSpecial    int                `json:"actual_special"`
	ActualNormals    [NormalCount]int   `json:"actual_normals"`
	Primary          int                `json:"primary"`
	SpecialShortlist [ShortlistSize]int `json:"special_shortlist"`
	NormalShortlist  [ShortlistSize]int `json:"normal_shortlist"`
	Top1Hit          bool               `json:"top1_hit"`
	Top6Hit          bool               `json:"top6_hit"`
	NormalOverlap    int                `json:"normal_overlap"`
	Strategy         string             `json:"strategy"`
}

// Evaluate scores prediction p against the target draw.
func Evaluate(p Prediction, target DrawRecord) StepResult {
	res := StepResult{
		Period:           target.Period,
		ActualSpecial:    target.Special,
		ActualNormals:    target.Normals,
		Primary:          p.PrimarySpecial,
		SpecialShortlist: p.SpecialShortlist,
		NormalShortlist:  p.NormalShortlist,
		Top1Hit:          p.PrimarySpecial == target.Special,
		Strategy:         p.Strategy,
	}
	for _, n := range p.SpecialShortlist {
		if n == target.Special {
			res.Top6Hit = true
		}
	}
	actual := make(map[int]bool, NormalCount)
	for _, n := range target.Normals {
		actual[n] = true
	}
	for _, n := range p.NormalShortlist {
		if actual[n] {
			res.NormalOverlap++
		}
	}
	return res
}

// BacktestSummary aggregates the steps of one run.
type BacktestSummary struct {
	Steps             int     `json:"steps"`
	Top1Hits          int     `json:"top1_hits"`
	Top6Hits          int     `json:"top6_hits"`
	Top1Rate          float64 `json:"top1_rate"`
	Top6Rate          float64 `json:"top6_rate"`
	MeanNormalOverlap float64 `json:"mean_normal_overlap"`
}

// Summarize aggregates step results.
func Summarize(steps []StepResult) BacktestSummary {
	s := BacktestSummary{Steps: len(steps)}
	if len(steps) == 0 {
		return s
	}
	overlap := 0
	for _, st := range steps {
		if st.Top1Hit {
			s.Top1Hits++
		}
		if st.Top6Hit {
			s.Top6Hits++
		}
		overlap += st.NormalOverlap
	}
	n := float64(len(steps))
	s.Top1Rate = float64(s.Top1Hits) / n
	s.Top6Rate = float64(s.Top6Hits) / n
	s.MeanNormalOverlap = float64(overlap) / n
	return s
}

// BacktestReport is the full result of one walk-forward run.
type BacktestReport struct {
	RunID    string          `json:"run_id"`
	Strategy string          `json:"strategy"`
	Window   int             `json:"window"`
	Steps    []StepResult    `json:"steps"`
	Summary  BacktestSummary `json:"summary"`
}
