package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/scoreboard/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When created with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording submissions", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the submission is new", func() {
				seen := d.SeenAndRecord(ctx, "sub-1")

				Convey("Then it should return false and record it", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the submission was already seen", func() {
				d.SeenAndRecord(ctx, "sub-1")
				seen := d.SeenAndRecord(ctx, "sub-1")

				Convey("Then it should return true without growing", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When unrecording submissions", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "sub-1")
			d.SeenAndRecord(ctx, "sub-2")
			d.Unrecord(ctx, "sub-1")
			d.Unrecord(ctx, "missing")

			Convey("Then only the known id should be forgotten", func() {
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "sub-2"), ShouldBeTrue)
			})
		})

		Convey("When bounded at three entries", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, id := range []string{"sub-1", "sub-2", "sub-3", "sub-4"} {
				So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
			}

			Convey("Then the oldest entry should have been evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "sub-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "sub-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})

			Convey("Then an unrecorded entry should free a slot", func() {
				d.Unrecord(ctx, "sub-2")
				So(d.SeenAndRecord(ctx, "sub-5"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "sub-3"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When unbounded", func() {
			for _, size := range []int{0, -1} {
				d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(size))
				for i := 0; i < 1000; i++ {
					d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
				}
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "sub-0"), ShouldBeTrue)
			}
		})

		Convey("When using a nil context", func() {
			d := dedupe.NewInMemoryDeduper()
			So(func() { d.SeenAndRecord(nil, "sub-1") }, ShouldNotPanic) //nolint:staticcheck // nil context tolerated
			So(func() { d.Unrecord(nil, "sub-1") }, ShouldNotPanic)       //nolint:staticcheck // nil context tolerated
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const numGoroutines = 10
		const perGoroutine = 100

		Convey("When goroutines record distinct ids", func() {
			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d-%d", g, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every id should be recorded", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*perGoroutine))
			})
		})

		Convey("When goroutines race on the same id", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, "shared") {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one should see it as new", func() {
				So(fresh, ShouldEqual, 1)
			})
		})
	})
}
