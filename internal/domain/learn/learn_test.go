package learn_test

import (
	"math"
	"testing"

	"github.com/okian/drawcast/internal/domain/learn"
	. "github.com/smartystreets/goconvey/convey"
)

// separable returns n rows where the label is determined by the first column.
func separable(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := float64(i%17) / 17
		b := float64((i*7)%11) / 11
		X[i] = []float64{a, b, float64(i % 3)}
		if a > 0.5 {
			y[i] = 1
		}
	}
	return X, y
}

func TestClassifiers(t *testing.T) {
	Convey("Given a separable dataset", t, func() {
		X, y := separable(200)

		classifiers := []struct {
			name  string
			build func() learn.Classifier
		}{
			{"forest", func() learn.Classifier {
				return learn.NewRandomForest(learn.Params{"n_estimators": 20, "max_depth": 5, "min_samples_split": 2}, learn.ClassWeightBalanced, 42)
			}},
			{"boost", func() learn.Classifier {
				return learn.NewGradientBoosting(learn.Params{"n_estimators": 30, "max_depth": 3, "learning_rate": 0.1})
			}},
			{"recurrent", func() learn.Classifier {
				r := learn.NewRecurrent(42)
				r.Epochs = 40
				r.Patience = 40
				r.LearningRate = 0.01
				return r
			}},
		}

		for _, tc := range classifiers {
			name, build := tc.name, tc.build
			Convey("When fitting the "+name+" classifier", func() {
				clf := build()
				So(clf.Fit(X, y), ShouldBeNil)
				proba, err := clf.PredictProba(X)
				So(err, ShouldBeNil)

				Convey("Then probabilities are bounded and separate the classes", func() {
					So(len(proba), ShouldEqual, len(X))
					for _, p := range proba {
						So(p, ShouldBeBetweenOrEqual, 0, 1)
					}
					So(learn.ROCAUC(y, proba), ShouldBeGreaterThan, 0.8)
				})

				Convey("Then a second fit with the same seed is identical", func() {
					again := build()
					So(again.Fit(X, y), ShouldBeNil)
					proba2, err := again.PredictProba(X)
					So(err, ShouldBeNil)
					So(proba2, ShouldResemble, proba)
				})
			})
		}

		Convey("When all labels are one class", func() {
			flat := make([]float64, len(y))
			err := learn.NewRandomForest(nil, learn.ClassWeightBalanced, 1).Fit(X, flat)
			So(err, ShouldWrap, learn.ErrLabelDegenerate)
			err = learn.NewGradientBoosting(nil).Fit(X, flat)
			So(err, ShouldWrap, learn.ErrLabelDegenerate)
		})

		Convey("When the dataset is empty", func() {
			err := learn.NewRandomForest(nil, learn.ClassWeightNone, 1).Fit(nil, nil)
			So(err, ShouldEqual, learn.ErrEmptyDataset)
		})

		Convey("When predicting before fitting", func() {
			_, err := learn.NewGradientBoosting(nil).PredictProba(X)
			So(err, ShouldEqual, learn.ErrNotFitted)
		})

		Convey("When predicting with the wrong width", func() {
			f := learn.NewRandomForest(learn.Params{"n_estimators": 2}, learn.ClassWeightNone, 1)
			So(f.Fit(X, y), ShouldBeNil)
			_, err := f.PredictProba([][]float64{{1, 2}})
			So(err, ShouldWrap, learn.ErrShapeMismatch)
		})
	})
}

func TestIsolationForest(t *testing.T) {
	Convey("Given a tight cluster with one distant point", t, func() {
		X := make([][]float64, 0, 101)
		for i := 0; i < 100; i++ {
			X = append(X, []float64{float64(i%10) / 10, float64(i/10) / 10})
		}
		X = append(X, []float64{50, 50})

		f := learn.NewIsolationForest(0.1, 42)
		So(f.Fit(X), ShouldBeNil)
		scores, err := f.Decision(X)
		So(err, ShouldBeNil)

		Convey("Then the distant point has the lowest decision value", func() {
			lowest := 0
			for i, s := range scores {
				if s < scores[lowest] {
					lowest = i
				}
			}
			So(lowest, ShouldEqual, 100)
			So(scores[100], ShouldBeLessThan, 0)
		})

		Convey("Then roughly the contamination share scores below zero", func() {
			below := 0
			for _, s := range scores {
				if s < 0 {
					below++
				}
			}
			So(below, ShouldBeBetweenOrEqual, 5, 15)
		})

		Convey("Then refitting with the same seed is identical", func() {
			g := learn.NewIsolationForest(0.1, 42)
			So(g.Fit(X), ShouldBeNil)
			again, err := g.Decision(X)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, scores)
		})
	})

	Convey("Given an invalid contamination", t, func() {
		err := learn.NewIsolationForest(0, 1).Fit([][]float64{{1}})
		So(err, ShouldWrap, learn.ErrInvalidParam)
	})
}

func TestROCAUC(t *testing.T) {
	Convey("Given labels and scores", t, func() {
		Convey("Perfect ranking scores 1", func() {
			So(learn.ROCAUC([]float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}), ShouldEqual, 1)
		})
		Convey("Reversed ranking scores 0", func() {
			So(learn.ROCAUC([]float64{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9}), ShouldEqual, 0)
		})
		Convey("Ties count half", func() {
			So(learn.ROCAUC([]float64{0, 1}, []float64{0.5, 0.5}), ShouldEqual, 0.5)
		})
		Convey("A single class is undefined", func() {
			So(math.IsNaN(learn.ROCAUC([]float64{1, 1}, []float64{0.1, 0.2})), ShouldBeTrue)
		})
	})
}

func TestRandomizedSearch(t *testing.T) {
	Convey("Given a search over a forest grid", t, func() {
		X, y := separable(150)
		search := learn.RandomizedSearch{
			Grid: learn.Grid{
				"n_estimators":      {5, 10},
				"max_depth":         {3, 5, 8},
				"min_samples_split": {2, 5},
			},
			Iterations: 3,
			Folds:      3,
			Seed:       42,
			New: func(p learn.Params) learn.Classifier {
				return learn.NewRandomForest(p, learn.ClassWeightBalanced, 42)
			},
		}

		Convey("Then it samples distinct points deterministically", func() {
			a := search.Candidates()
			b := search.Candidates()
			So(len(a), ShouldEqual, 3)
			So(a, ShouldResemble, b)
			So(a[0], ShouldNotResemble, a[1])
		})

		Convey("Then the best point is refit and scored", func() {
			res, err := search.Fit(X, y)
			So(err, ShouldBeNil)
			So(res.Best, ShouldNotBeNil)
			So(res.BestScore, ShouldBeGreaterThan, 0.8)
			So(len(res.Scores), ShouldEqual, 3)
		})

		Convey("Then asking for more iterations than points caps at the grid size", func() {
			search.Iterations = 100
			So(len(search.Candidates()), ShouldEqual, 12)
		})
	})

	Convey("Given stratified folds", t, func() {
		y := []float64{0, 0, 0, 0, 0, 0, 1, 1, 1}
		folds := learn.StratifiedFolds(y, 3)
		Convey("Then every fold holds one positive and two negatives", func() {
			for _, f := range folds {
				pos := 0
				for _, i := range f {
					pos += int(y[i])
				}
				So(pos, ShouldEqual, 1)
				So(len(f), ShouldEqual, 3)
			}
		})
	})
}
