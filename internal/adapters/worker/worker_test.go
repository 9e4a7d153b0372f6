package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/drawcast/internal/adapters/worker"
	logging "github.com/okian/drawcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoolRun(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		pool := worker.NewPool(3, worker.WithName("test"), worker.WithLogger(logging.Nop()))
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When every job succeeds", func() {
			out := make([]int, 50)
			err := pool.Run(context.Background(), len(out), func(_ context.Context, i int) error {
				out[i] = i * i
				return nil
			})

			convey.Convey("Then each index is written by its own job", func() {
				convey.So(err, convey.ShouldBeNil)
				for i, v := range out {
					convey.So(v, convey.ShouldEqual, i*i)
				}
			})
		})

		convey.Convey("When jobs run concurrently", func() {
			var running, peak atomic.Int64
			err := pool.Run(context.Background(), 20, func(_ context.Context, _ int) error {
				cur := running.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				return nil
			})

			convey.Convey("Then no more than the pool size run at once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(peak.Load(), convey.ShouldBeLessThanOrEqualTo, 3)
			})
		})

		convey.Convey("When a job fails", func() {
			boom := errors.New("boom")
			var mu sync.Mutex
			var seen []int
			err := pool.Run(context.Background(), 100, func(ctx context.Context, i int) error {
				if i == 5 {
					return boom
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Millisecond):
				}
				mu.Lock()
				seen = append(seen, i)
				mu.Unlock()
				return nil
			})

			convey.Convey("Then the failure is returned and the rest stop early", func() {
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
				convey.So(len(seen), convey.ShouldBeLessThan, 99)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			var calls atomic.Int64
			err := pool.Run(ctx, 10, func(_ context.Context, _ int) error {
				calls.Add(1)
				return nil
			})

			convey.Convey("Then no job runs", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(calls.Load(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When no job is given", func() {
			err := pool.Run(context.Background(), 3, nil)
			convey.So(err, convey.ShouldEqual, worker.ErrNilJob)
		})

		convey.Convey("When there is nothing to do", func() {
			err := pool.Run(context.Background(), 0, func(context.Context, int) error { return errors.New("unreachable") })
			convey.So(err, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a non-positive size", t, func() {
		pool := worker.NewPool(0)
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
