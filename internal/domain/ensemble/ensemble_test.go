package ensemble_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/drawcast/internal/domain/ensemble"
	"github.com/okian/drawcast/internal/domain/features"
	"github.com/okian/drawcast/internal/domain/learn"
	"github.com/okian/drawcast/internal/testdraws"
	. "github.com/smartystreets/goconvey/convey"
)

// smallConfig keeps the searches cheap while exercising every model.
func smallConfig() ensemble.Config {
	cfg := ensemble.DefaultConfig()
	cfg.ForestGrid = learn.Grid{"n_estimators": {5, 10}, "max_depth": {3, 5}, "min_samples_split": {2}}
	cfg.BoostGrid = learn.Grid{"n_estimators": {5, 10}, "max_depth": {2, 3}, "learning_rate": {0.1}}
	return cfg
}

func TestWeights(t *testing.T) {
	Convey("Given the declared weight sets", t, func() {
		So(ensemble.TripleWeights().Sum(true), ShouldEqual, 1.0)
		So(ensemble.PairWeights().Sum(false), ShouldEqual, 1.0)
		So(ensemble.TripleWeights().Validate(true), ShouldBeNil)
		So(ensemble.PairWeights().Validate(false), ShouldBeNil)

		Convey("Then weights that do not sum to one are rejected", func() {
			So(ensemble.TripleWeights().Validate(false), ShouldWrap, ensemble.ErrInvalidWeights)
			So(ensemble.Weights{Forest: 0.6, Boost: 0.6, Sequence: -0.2}.Validate(true), ShouldWrap, ensemble.ErrInvalidWeights)
		})

		Convey("Then switching the sequence model swaps the default weights", func() {
			cfg := ensemble.DefaultConfig().WithSequence(false)
			So(cfg.Weights, ShouldResemble, ensemble.PairWeights())
			So(cfg.Validate(), ShouldBeNil)
		})
	})

	Convey("Given a config with a single fold", t, func() {
		cfg := ensemble.DefaultConfig()
		cfg.Folds = 1
		_, err := ensemble.New(cfg)
		So(err, ShouldWrap, ensemble.ErrInvalidConfig)
	})
}

func TestStackPredict(t *testing.T) {
	Convey("Given features from a generated history", t, func() {
		records := testdraws.Generate(30, testdraws.WithSeed(5))
		maps, err := features.MapsFor(records)
		So(err, ShouldBeNil)
		set, err := features.Extract(records, maps, features.DefaultConfig())
		So(err, ShouldBeNil)

		stack, err := ensemble.New(smallConfig())
		So(err, ShouldBeNil)
		ctx := context.Background()

		res, err := stack.Predict(ctx, set.Train, set.Labels, set.Predict)
		So(err, ShouldBeNil)

		Convey("Then every candidate gets a fused probability in [0, 1]", func() {
			So(len(res.Fused), ShouldEqual, 49)
			So(len(res.Sequence), ShouldEqual, 49)
			for _, p := range res.Fused {
				So(p, ShouldBeBetweenOrEqual, 0, 1)
			}
		})

		Convey("Then the fusion is the declared weighted sum", func() {
			w := ensemble.TripleWeights()
			for i, p := range res.Fused {
				want := w.Forest*res.Forest[i] + w.Boost*res.Boost[i] + w.Sequence*res.Sequence[i]
				So(p, ShouldAlmostEqual, want, 1e-12)
			}
		})

		Convey("Then a second run is identical", func() {
			again, err := stack.Predict(ctx, set.Train, set.Labels, set.Predict)
			So(err, ShouldBeNil)
			So(again.Fused, ShouldResemble, res.Fused)
			So(again.ForestParams, ShouldResemble, res.ForestParams)
		})
	})

	Convey("Given labels with a single class", t, func() {
		records := testdraws.Generate(10)
		maps, _ := features.MapsFor(records)
		set, err := features.Extract(records, maps, features.DefaultConfig())
		So(err, ShouldBeNil)
		flat := make([]float64, len(set.Labels))

		stack, err := ensemble.New(smallConfig())
		So(err, ShouldBeNil)
		_, err = stack.Predict(context.Background(), set.Train, flat, set.Predict)

		Convey("Then training fails as a label degeneracy", func() {
			So(errors.Is(err, ensemble.ErrLabelDegenerate), ShouldBeTrue)
			So(errors.Is(err, ensemble.ErrModelFit), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, ensemble.ModelForest)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		stack, err := ensemble.New(smallConfig())
		So(err, ShouldBeNil)
		_, err = stack.Predict(ctx, [][]float64{{1}}, []float64{1}, [][]float64{{1}})
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}
