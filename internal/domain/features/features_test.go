package features_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/drawcast/internal/domain/category"
	"github.com/okian/drawcast/internal/domain/features"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/testdraws"
	. "github.com/smartystreets/goconvey/convey"
)

func extract(t *testing.T, records []model.DrawRecord) *features.Set {
	t.Helper()
	maps, err := features.MapsFor(records)
	if err != nil {
		t.Fatalf("maps: %v", err)
	}
	set, err := features.Extract(records, maps, features.DefaultConfig())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return set
}

func TestExtractShape(t *testing.T) {
	Convey("Given forty generated draws", t, func() {
		records := testdraws.Generate(40)
		set := extract(t, records)

		Convey("Then there are 49 labeled rows per transition", func() {
			So(set.Transitions(), ShouldEqual, 39)
			So(len(set.Train), ShouldEqual, 39*49)
			So(len(set.Labels), ShouldEqual, 39*49)
			So(len(set.Predict), ShouldEqual, 49)
			for _, row := range set.Train {
				So(len(row), ShouldEqual, features.Width)
			}
		})

		Convey("Then labels mark the next draw's numbers", func() {
			for i := 0; i < set.Transitions(); i++ {
				next := records[i+1].Drawn()
				positives := 0
				for c := 1; c <= 49; c++ {
					label := set.Labels[i*49+c-1]
					So(label == 1, ShouldEqual, next[c])
					positives += int(label)
				}
				So(positives, ShouldEqual, 7)
			}
		})

		Convey("Then the static columns follow the candidate", func() {
			row := set.Row(25)
			So(row[features.Big], ShouldEqual, 1)
			So(row[features.Odd], ShouldEqual, 1)
			So(row[features.ColorCode], ShouldEqual, 2)
			So(set.Row(24)[features.Big], ShouldEqual, 0)
			So(set.Row(24)[features.Odd], ShouldEqual, 0)
		})

		Convey("Then momentum is active once thirty draws are observed", func() {
			// Transition 28 has observed 29 draws, transition 29 has observed 30.
			for c := 1; c <= 49; c++ {
				So(set.Train[28*49+c-1][features.Momentum], ShouldEqual, 0)
			}
			nonZero := 0
			for c := 1; c <= 49; c++ {
				if set.Train[29*49+c-1][features.Momentum] != 0 {
					nonZero++
				}
			}
			So(nonZero, ShouldBeGreaterThan, 0)
		})

		Convey("Then transition probabilities per antecedent sum to one or zero", func() {
			for i := 0; i < set.Transitions(); i++ {
				byZodiac := map[category.Zodiac]float64{}
				for c := 1; c <= 49; c++ {
					byZodiac[set.Maps.Zodiac(c)] = set.Train[i*49+c-1][features.Transition]
				}
				sum := 0.0
				for _, p := range byZodiac {
					sum += p
				}
				if i == 0 {
					So(sum, ShouldEqual, 0)
				} else {
					So(sum == 0 || (sum > 0.999999 && sum < 1.000001), ShouldBeTrue)
				}
			}
		})

		Convey("Then the last drawn set and macro shares describe the latest draws", func() {
			So(set.LastDrawn, ShouldResemble, records[39].Drawn())
			So(set.BigShare, ShouldBeBetweenOrEqual, 0, 1)
			So(set.OddShare, ShouldBeBetweenOrEqual, 0, 1)
		})
	})

	Convey("Given an empty history", t, func() {
		_, err := features.Extract(nil, category.Build(2024), features.DefaultConfig())
		So(err, ShouldEqual, features.ErrEmptyHistory)
	})

	Convey("Given a single record", t, func() {
		set := extract(t, testdraws.Generate(1))
		So(len(set.Train), ShouldEqual, 0)
		So(len(set.Predict), ShouldEqual, 49)
		So(set.Row(1)[features.Anomaly], ShouldEqual, 0)
	})

	Convey("Given an invalid config", t, func() {
		cfg := features.DefaultConfig()
		cfg.LongMomentum = cfg.ShortMomentum
		_, err := features.Extract(testdraws.Generate(3), category.Build(2024), cfg)
		So(err, ShouldWrap, features.ErrInvalidConfig)
	})
}

func TestCausality(t *testing.T) {
	Convey("Given a history and its truncations", t, func() {
		records := testdraws.Generate(60, testdraws.WithSeed(11))

		Convey("Then features of records[0:i] ignore anything after i", func() {
			for _, i := range []int{2, 17, 31, 59} {
				clean := append([]model.DrawRecord(nil), records[:i]...)
				extended := append(append([]model.DrawRecord(nil), records[:i]...), records[i:]...)

				a := extract(t, clean)
				b := extract(t, extended[:i:i])
				So(cmp.Diff(a, b, cmp.AllowUnexported(category.Maps{})), ShouldBeEmpty)
			}
		})
	})
}

func TestMissStreakLaw(t *testing.T) {
	Convey("Given consecutive transitions", t, func() {
		records := testdraws.Generate(45, testdraws.WithSeed(3))
		set := extract(t, records)

		Convey("Then each streak resets on a draw and otherwise grows by one", func() {
			for i := 0; i+1 < set.Transitions(); i++ {
				drawn := records[i+1].Drawn()
				for c := 1; c <= 49; c++ {
					before := set.Train[i*49+c-1][features.MissStreak]
					after := set.Train[(i+1)*49+c-1][features.MissStreak]
					if drawn[c] {
						So(after, ShouldEqual, 0)
					} else {
						So(after, ShouldEqual, before+1)
					}
				}
			}
		})
	})
}

func TestCandidateSevenScenario(t *testing.T) {
	Convey("Given six draws where 7 is drawn only in the second", t, func() {
		records := []model.DrawRecord{
			testdraws.Draw(1, [6]int{1, 2, 3, 4, 5, 6}, 40),
			testdraws.Draw(2, [6]int{7, 8, 9, 10, 11, 12}, 41),
			testdraws.Draw(3, [6]int{13, 14, 15, 16, 17, 18}, 42),
			testdraws.Draw(4, [6]int{19, 20, 21, 22, 23, 24}, 43),
			testdraws.Draw(5, [6]int{25, 26, 27, 28, 29, 30}, 44),
			testdraws.Draw(6, [6]int{31, 32, 33, 34, 35, 36}, 45),
		}
		set := extract(t, records)

		Convey("Then after the last transition its miss streak is 3", func() {
			// The last transition row reflects draws 1..5: reset at draw 2,
			// missed at draws 3, 4 and 5.
			So(set.Train[4*49+7-1][features.MissStreak], ShouldEqual, 3)
		})

		Convey("Then the prediction row, which also sees draw 6, reports 4", func() {
			So(set.Row(7)[features.MissStreak], ShouldEqual, 4)
			So(set.Row(7)[features.Frequency], ShouldEqual, 1)
			So(set.Row(7)[features.WindowFrequency], ShouldEqual, 1)
			So(set.Row(7)[features.Momentum], ShouldEqual, 0)
		})
	})
}
