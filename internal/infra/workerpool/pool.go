package workerpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/skillcoder/asyncrt/internal/infra/metrics"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
)

const defaultSize = 20

// Pool runs blocking tasks on a bounded set of goroutines.
type Pool struct {
	logger *slog.Logger
	size   int

	mu         sync.Mutex
	workers    *pool.Pool
	stopped    bool
	submitting sync.WaitGroup

	drained chan struct{}
	once    sync.Once
}

// New creates a pool running at most size tasks at once.
func New(logger *slog.Logger, size int) *Pool {
	if size <= 0 {
		size = defaultSize
	}

	return &Pool{
		logger:  logger,
		size:    size,
		workers: pool.New().WithMaxGoroutines(size),
		drained: make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Pool)(nil)

// Name returns the name of the worker pool component
func (p *Pool) Name() string {
	return "worker-pool"
}

// Size returns the maximum number of concurrently running tasks.
func (p *Pool) Size() int {
	return p.size
}

// Submit schedules task. It blocks while all workers are busy.
// A panic in task is logged and does not affect other tasks.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		metrics.RecordWorkerTask(metrics.TaskOutcomeDropped)

		return ErrStopped
	}

	p.submitting.Add(1)
	p.mu.Unlock()

	defer p.submitting.Done()

	p.workers.Go(func() {
		var catcher panics.Catcher

		catcher.Try(task)

		if r := catcher.Recovered(); r != nil {
			metrics.RecordWorkerTask(metrics.TaskOutcomePanic)
			p.logger.Error("worker task panicked", "reason", r.String())

			return
		}

		metrics.RecordWorkerTask(metrics.TaskOutcomeSuccess)
	})

	return nil
}

// Shutdown stops accepting tasks and waits for in-flight ones or ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		p.logger.DebugContext(ctx, "draining worker pool")

		go func() {
			defer close(p.drained)

			// Wait must not race with Go.
			p.submitting.Wait()
			p.workers.Wait()
		}()
	})

	select {
	case <-p.drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}
