package dedupe_test

import (
	"sync"
	"testing"

	"github.com/okian/drawcast/internal/domain/dedupe"
	"github.com/okian/drawcast/internal/testdraws"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a period is recorded twice", func() {
			first := d.SeenAndRecord(2024001)
			second := d.SeenAndRecord(2024001)

			Convey("Then only the second is reported as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a period is unrecorded", func() {
			d.SeenAndRecord(2024001)
			d.Unrecord(2024001)

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(2024001), ShouldBeFalse)
			})
		})

		Convey("When many goroutines offer the same periods", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for p := int64(0); p < 100; p++ {
						if !d.SeenAndRecord(p) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each period is fresh exactly once", func() {
				So(fresh, ShouldEqual, 100)
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for p := int64(1); p <= 4; p++ {
			d.SeenAndRecord(p)
		}

		Convey("Then the oldest period is forgotten", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(1), ShouldBeFalse)
			So(d.SeenAndRecord(4), ShouldBeTrue)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for p := int64(0); p < 500; p++ {
			d.SeenAndRecord(p)
		}
		So(d.Size(), ShouldEqual, 500)
	})
}

func TestFilter(t *testing.T) {
	Convey("Given a batch with a repeated period", t, func() {
		records := testdraws.Generate(5)
		batch := append(records, records[2])
		d := dedupe.NewInMemoryDeduper()

		out, dups := dedupe.Filter(d, batch)

		Convey("Then the repeat is dropped and order kept", func() {
			So(dups, ShouldEqual, 1)
			So(out, ShouldResemble, records)
		})

		Convey("Then a second pass drops everything", func() {
			again, dups := dedupe.Filter(d, records)
			So(again, ShouldBeEmpty)
			So(dups, ShouldEqual, 5)
		})
	})
}
