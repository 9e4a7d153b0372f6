package strategy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/ensemble"
	"github.com/okian/drawcast/internal/domain/features"
	"github.com/okian/drawcast/internal/domain/learn"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/domain/scoring"
	"github.com/okian/drawcast/internal/domain/strategy"
	"github.com/okian/drawcast/internal/testdraws"
	. "github.com/smartystreets/goconvey/convey"
)

func smallEnsemble(t *testing.T) *strategy.Ensemble {
	t.Helper()
	ec := ensemble.DefaultConfig().WithSequence(false)
	ec.ForestGrid = learn.Grid{"n_estimators": {5}, "max_depth": {3, 5}, "min_samples_split": {2}}
	ec.BoostGrid = learn.Grid{"n_estimators": {5}, "max_depth": {2, 3}, "learning_rate": {0.1}}
	s, err := strategy.NewEnsemble(features.DefaultConfig(), ec, scoring.DefaultConfig())
	if err != nil {
		t.Fatalf("new ensemble: %v", err)
	}
	return s
}

func checkPrediction(p model.Prediction, latest model.DrawRecord) {
	So(p.BasedOnPeriod, ShouldEqual, latest.Period)
	So(p.NextPeriod, ShouldEqual, latest.Period+1)
	So(p.PrimarySpecial, ShouldEqual, p.SpecialShortlist[0])
	for _, s := range p.SpecialShortlist {
		for _, n := range p.NormalShortlist {
			So(s, ShouldNotEqual, n)
		}
	}
	for i := 1; i < len(p.NormalShortlist); i++ {
		So(p.NormalShortlist[i-1], ShouldBeLessThan, p.NormalShortlist[i])
	}
	So(len(p.TopScores), ShouldEqual, 20)
	So(p.TopScores[0].Number, ShouldEqual, p.PrimarySpecial)
}

func TestEnsembleStrategy(t *testing.T) {
	Convey("Given a generated history", t, func() {
		history := testdraws.Generate(30, testdraws.WithSeed(9))
		s := smallEnsemble(t)
		ctx := context.Background()

		p, err := s.Predict(ctx, history)
		So(err, ShouldBeNil)

		Convey("Then the prediction is well formed", func() {
			So(p.Strategy, ShouldEqual, strategy.EnsembleName)
			checkPrediction(p, history[len(history)-1])
		})

		Convey("Then numbers of the latest draw are never recommended", func() {
			last := history[len(history)-1].Drawn()
			for _, e := range p.TopScores {
				So(last[e.Number], ShouldBeFalse)
			}
		})

		Convey("Then predicting again gives the same result", func() {
			again, err := s.Predict(ctx, history)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, p)
		})
	})

	Convey("Given too short a history", t, func() {
		_, err := smallEnsemble(t).Predict(context.Background(), testdraws.Generate(3))

		Convey("Then it fails before training with insufficient data", func() {
			So(errors.Is(err, strategy.ErrInsufficientData), ShouldBeTrue)
			var se *strategy.StageError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Stage, ShouldEqual, strategy.StageValidate)
		})
	})
}

func TestHeatmapStrategy(t *testing.T) {
	Convey("Given a generated history", t, func() {
		history := testdraws.Generate(60, testdraws.WithSeed(4))
		h := strategy.NewHeatmap(strategy.DefaultHeatmapConfig(), category.DefaultRelations(), 20)

		p, err := h.Predict(context.Background(), history)
		So(err, ShouldBeNil)

		Convey("Then the prediction is well formed and deterministic", func() {
			So(p.Strategy, ShouldEqual, strategy.HeatmapName)
			checkPrediction(p, history[len(history)-1])
			again, err := h.Predict(context.Background(), history)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, p)
		})

		Convey("Then numbers of the latest draw are never recommended", func() {
			last := history[len(history)-1].Drawn()
			for _, e := range p.TopScores {
				So(last[e.Number], ShouldBeFalse)
			}
			for _, n := range append(p.SpecialShortlist[:], p.NormalShortlist[:]...) {
				So(last[n], ShouldBeFalse)
			}
		})

		Convey("Then scores sit below the ceiling", func() {
			for _, e := range p.TopScores {
				So(e.Score, ShouldBeLessThan, 10000)
			}
		})
	})

	Convey("Given no history", t, func() {
		h := strategy.NewHeatmap(strategy.DefaultHeatmapConfig(), category.DefaultRelations(), 20)
		_, err := h.Predict(context.Background(), nil)
		So(errors.Is(err, strategy.ErrInsufficientData), ShouldBeTrue)
	})
}

type stubStrategy struct {
	name string
	err  error
	pred model.Prediction
	runs int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Predict(_ context.Context, _ []model.DrawRecord) (model.Prediction, error) {
	s.runs++
	if s.err != nil {
		return model.Prediction{}, s.err
	}
	p := s.pred
	p.Strategy = s.name
	return p, nil
}

func TestChain(t *testing.T) {
	Convey("Given a chain whose first strategy fails", t, func() {
		boom := errors.New("boom")
		first := &stubStrategy{name: "first", err: boom}
		second := &stubStrategy{name: "second", pred: model.Prediction{PrimarySpecial: 7}}
		third := &stubStrategy{name: "third"}
		chain := strategy.NewChain(nil, first, second, third)

		p, err := chain.Predict(context.Background(), nil)

		Convey("Then the next strategy's prediction is returned", func() {
			So(err, ShouldBeNil)
			So(p.Strategy, ShouldEqual, "second")
			So(p.PrimarySpecial, ShouldEqual, 7)
			So(third.runs, ShouldEqual, 0)
			So(chain.Name(), ShouldEqual, "first>second>third")
		})
	})

	Convey("Given a chain where every strategy fails", t, func() {
		e1, e2 := errors.New("one"), errors.New("two")
		chain := strategy.NewChain(nil, &stubStrategy{name: "a", err: e1}, &stubStrategy{name: "b", err: e2})
		_, err := chain.Predict(context.Background(), nil)

		Convey("Then every failure is reported", func() {
			So(errors.Is(err, strategy.ErrAllFailed), ShouldBeTrue)
			So(errors.Is(err, e1), ShouldBeTrue)
			So(errors.Is(err, e2), ShouldBeTrue)
		})
	})

	Convey("Given a chain whose first strategy hits a fatal failure", t, func() {
		next := &stubStrategy{name: "next", pred: model.Prediction{PrimarySpecial: 3}}
		for _, fatal := range []error{
			&strategy.StageError{Stage: strategy.StageTrain, Err: learn.ErrLabelDegenerate},
			&strategy.StageError{Stage: strategy.StageTrain, Err: ensemble.ErrModelFit},
			&strategy.StageError{Stage: strategy.StageValidate, Err: strategy.ErrInsufficientData},
		} {
			chain := strategy.NewChain(nil, &stubStrategy{name: "first", err: fatal}, next)
			_, err := chain.Predict(context.Background(), nil)

			So(err, ShouldNotBeNil)
			So(errors.Is(err, strategy.ErrAllFailed), ShouldBeFalse)
			var se *strategy.StageError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Stage, ShouldEqual, fatal.(*strategy.StageError).Stage)
		}

		Convey("Then no later strategy runs", func() {
			So(next.runs, ShouldEqual, 0)
		})
	})

	Convey("Given the ensemble ahead of the heatmap on a short history", t, func() {
		history := testdraws.Generate(5, testdraws.WithSeed(2))
		heat := strategy.NewHeatmap(strategy.DefaultHeatmapConfig(), category.DefaultRelations(), 20)
		chain := strategy.NewChain(nil, smallEnsemble(t), heat)

		_, err := chain.Predict(context.Background(), history)

		Convey("Then insufficient data reaches the caller", func() {
			So(errors.Is(err, strategy.ErrInsufficientData), ShouldBeTrue)
		})
	})

	Convey("Given an empty chain", t, func() {
		_, err := strategy.NewChain(nil).Predict(context.Background(), nil)
		So(err, ShouldEqual, strategy.ErrNoStrategies)
	})
}
