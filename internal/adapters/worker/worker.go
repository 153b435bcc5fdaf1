// Package worker runs independent per-participant jobs on a bounded pool.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/judgeboard/pkg/logger"
	"github.com/okian/judgeboard/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU(); jobs are I/O bound
	defaultJobTimeout       = 10 * time.Second
)

// Func is one job. It receives a context bounded by the job timeout.
type Func[T any] func(ctx context.Context, id string) (T, error)

// Result is the outcome of one job.
type Result[T any] struct {
	ID       string
	Value    T
	Err      error
	Duration time.Duration
}

// Pool bounds how many jobs run at once. A Pool holds no goroutines between
// runs and may be shared.
type Pool struct {
	size       int
	jobTimeout time.Duration
	name       string
	logger     logger.Logger
}

// NewPool creates a pool.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		size:       runtime.NumCPU() * defaultWorkerMultiplier,
		jobTimeout: defaultJobTimeout,
		name:       "worker-pool",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	return p
}

// Size reports the concurrency bound.
func (p *Pool) Size() int { return p.size }

// Name identifies the pool in logs.
func (p *Pool) Name() string { return p.name }

// Run executes fn once per id with at most Size jobs in flight and returns
// one Result per id in input order. A failing, slow or panicking job only
// affects its own Result. The returned error is non-nil only when ctx ends
// before every job ran; jobs that never started carry ctx.Err().
func Run[T any](ctx context.Context, p *Pool, ids []string, fn Func[T]) ([]Result[T], error) {
	results := make([]Result[T], len(ids))
	for i, id := range ids {
		results[i].ID = id
	}

	var g errgroup.Group
	g.SetLimit(p.size)

	for i := range ids {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(ids); j++ {
				results[j].Err = err
			}
			break
		}
		g.Go(func() error {
			runJob(ctx, p, &results[i], fn)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("worker pool interrupted: %w", err)
	}
	return results, nil
}

func runJob[T any](ctx context.Context, p *Pool, res *Result[T], fn Func[T]) {
	metrics.AddWorkerActiveJobs(1)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("job %s panicked: %v", res.ID, r)
			p.logger.Error(ctx, "job panicked",
				logger.String("pool", p.name), logger.String("participant", res.ID), logger.Any("panic", r))
		}
		res.Duration = time.Since(start)
		metrics.AddWorkerActiveJobs(-1)
		metrics.RecordWorkerJobLatency(float64(res.Duration.Microseconds()) / 1000)
	}()

	jctx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	res.Value, res.Err = fn(jctx, res.ID)
	if res.Err == nil && jctx.Err() != nil {
		res.Err = fmt.Errorf("job %s: %w", res.ID, jctx.Err())
	}
}
