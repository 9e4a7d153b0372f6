// Package worker runs indexed jobs on a bounded set of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/drawcast/pkg/logger"
	"github.com/okian/drawcast/pkg/metrics"
)

// Job processes the item at index i. Jobs must only write state owned by
// their index.
type Job func(ctx context.Context, i int) error

// Pool runs jobs with at most Size running at once. The first failing job
// cancels the context handed to the others and its error is returned.
type Pool struct {
	size   int
	name   string
	active atomic.Int64
	logger logger.Logger
}

// NewPool creates a pool of the given size. A size below one means one
// worker per CPU.
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:   size,
		name:   "worker-pool",
		logger: logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the maximum number of concurrent jobs.
func (p *Pool) Size() int { return p.size }

// Run executes job for every index in [0, n) and waits for all of them.
func (p *Pool) Run(ctx context.Context, n int, job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if n <= 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			metrics.UpdateWorkerActiveCount(int(p.active.Add(1)))
			defer func() { metrics.UpdateWorkerActiveCount(int(p.active.Add(-1))) }()

			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			err := job(gctx, i)
			metrics.RecordWorkerJobLatency(float64(time.Since(start).Milliseconds()))
			if err != nil {
				metrics.RecordWorkerError()
				metrics.RecordErrorByComponent("worker", "job_error")
				p.logger.Debug(gctx, "job failed",
					logger.String("pool", p.name),
					logger.Int("index", i),
					logger.Error(err))
				return fmt.Errorf("job %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// A cancelled parent can stop the loop before any job observes it.
	return ctx.Err()
}
