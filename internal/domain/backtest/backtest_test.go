package backtest_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/drawcast/internal/domain/backtest"
	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/learn"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/domain/strategy"
	"github.com/okian/drawcast/internal/testdraws"
	. "github.com/smartystreets/goconvey/convey"
)

// spy predicts the special of the last record it was shown and remembers
// every history it received.
type spy struct {
	mu   sync.Mutex
	seen map[int64]int
	caps map[int64]int
	fail int64
}

func newSpy() *spy {
	return &spy{seen: map[int64]int{}, caps: map[int64]int{}}
}

func (s *spy) Name() string { return "spy" }

func (s *spy) Predict(_ context.Context, history []model.DrawRecord) (model.Prediction, error) {
	last := history[len(history)-1]
	s.mu.Lock()
	s.seen[last.Period+1] = len(history)
	s.caps[last.Period+1] = cap(history)
	s.mu.Unlock()
	if last.Period+1 == s.fail {
		return model.Prediction{}, &strategy.StageError{Stage: strategy.StageTrain, Err: learn.ErrLabelDegenerate}
	}
	p := model.Prediction{
		NextPeriod:     last.Period + 1,
		BasedOnPeriod:  last.Period,
		PrimarySpecial: last.Special,
		Strategy:       "spy",
	}
	p.SpecialShortlist[0] = last.Special
	return p, nil
}

func TestHarness(t *testing.T) {
	Convey("Given 40 records", t, func() {
		records := testdraws.Generate(40, testdraws.WithSeed(3))
		ctx := context.Background()

		Convey("When the window is zero", func() {
			h, err := backtest.New(newSpy(), backtest.Config{Window: 0, WarmupMinimum: 10})
			So(err, ShouldBeNil)
			report, err := h.Run(ctx, records)

			Convey("Then the run fails with insufficient data", func() {
				So(report, ShouldBeNil)
				So(errors.Is(err, backtest.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When window and warm-up exceed the history", func() {
			h, _ := backtest.New(newSpy(), backtest.Config{Window: 31, WarmupMinimum: 10})
			_, err := h.Run(ctx, records)
			So(errors.Is(err, backtest.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("When running a window of 10", func() {
			s := newSpy()
			h, err := backtest.New(s, backtest.Config{Window: 10, WarmupMinimum: 10})
			So(err, ShouldBeNil)
			report, err := h.Run(ctx, records)
			So(err, ShouldBeNil)

			Convey("Then each step sees exactly the records before its target", func() {
				So(len(report.Steps), ShouldEqual, 10)
				for k, st := range report.Steps {
					i := 30 + k
					So(st.Period, ShouldEqual, records[i].Period)
					So(s.seen[st.Period], ShouldEqual, i)
					So(s.caps[st.Period], ShouldEqual, i)
				}
			})

			Convey("Then the summary matches the steps", func() {
				So(report.Summary, ShouldResemble, model.Summarize(report.Steps))
				So(report.Strategy, ShouldEqual, "spy")
				So(report.Window, ShouldEqual, 10)
				So(report.RunID, ShouldNotBeEmpty)
			})
		})

		Convey("When a step fails", func() {
			s := newSpy()
			s.fail = records[35].Period
			h, _ := backtest.New(s, backtest.Config{Window: 10, WarmupMinimum: 10})
			report, err := h.Run(ctx, records)

			Convey("Then the run halts with the failing period and stage", func() {
				So(report, ShouldBeNil)
				var se *backtest.StepError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Period, ShouldEqual, records[35].Period)
				So(se.Stage, ShouldEqual, strategy.StageTrain)
				_, ran := s.seen[records[36].Period]
				So(ran, ShouldBeFalse)
			})
		})

		Convey("When a degenerate strategy is chained ahead of the heatmap", func() {
			s := newSpy()
			s.fail = records[30].Period
			heat := strategy.NewHeatmap(strategy.DefaultHeatmapConfig(), category.DefaultRelations(), 20)
			h, _ := backtest.New(strategy.NewChain(nil, s, heat), backtest.Config{Window: 10, WarmupMinimum: 10})
			report, err := h.Run(ctx, records)

			Convey("Then the first step halts the run instead of falling back", func() {
				So(report, ShouldBeNil)
				var se *backtest.StepError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Period, ShouldEqual, records[30].Period)
				So(se.Stage, ShouldEqual, strategy.StageTrain)
				So(errors.Is(err, learn.ErrLabelDegenerate), ShouldBeTrue)
			})
		})

		Convey("When records are out of order", func() {
			shuffled := append([]model.DrawRecord(nil), records...)
			shuffled[5], shuffled[6] = shuffled[6], shuffled[5]
			h, _ := backtest.New(newSpy(), backtest.Config{Window: 10, WarmupMinimum: 10})
			_, err := h.Run(ctx, shuffled)

			Convey("Then nothing runs", func() {
				var se *backtest.StepError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Stage, ShouldEqual, backtest.StageValidate)
				So(errors.Is(err, model.ErrUnordered), ShouldBeTrue)
			})
		})
	})

	Convey("Given the heatmap strategy", t, func() {
		records := testdraws.Generate(50, testdraws.WithSeed(11))
		heat := strategy.NewHeatmap(strategy.DefaultHeatmapConfig(), category.DefaultRelations(), 20)

		seq, err := backtest.New(heat, backtest.Config{Window: 15, WarmupMinimum: 5, Workers: 1})
		So(err, ShouldBeNil)
		par, err := backtest.New(heat, backtest.Config{Window: 15, WarmupMinimum: 5, Workers: 4})
		So(err, ShouldBeNil)

		a, err := seq.Run(context.Background(), records)
		So(err, ShouldBeNil)
		b, err := par.Run(context.Background(), records)
		So(err, ShouldBeNil)

		Convey("Then parallel and sequential runs agree step for step", func() {
			So(b.Steps, ShouldResemble, a.Steps)
			So(b.Summary, ShouldResemble, a.Summary)
			So(b.RunID, ShouldNotEqual, a.RunID)
		})
	})

	Convey("Given invalid configs", t, func() {
		_, err := backtest.New(nil, backtest.DefaultConfig())
		So(err, ShouldEqual, backtest.ErrNilStrategy)
		_, err = backtest.New(newSpy(), backtest.Config{Window: 5, WarmupMinimum: -1})
		So(errors.Is(err, backtest.ErrInvalidConfig), ShouldBeTrue)
		_, err = backtest.New(newSpy(), backtest.Config{Window: 5, Workers: -2})
		So(errors.Is(err, backtest.ErrInvalidConfig), ShouldBeTrue)
	})
}
