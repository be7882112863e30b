// Package closehook coordinates the two-phase shutdown of a runtime: user
// registered hooks first, then the runtime's own infrastructure.
package closehook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/skillcoder/asyncrt/internal/infra/future"
	"github.com/skillcoder/asyncrt/internal/infra/metrics"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
)

// Coordinator owns the registered close hooks and drives the close sequence.
type Coordinator struct {
	logger    *slog.Logger
	internals []shutdown.Shutdowner

	mu      sync.Mutex
	hooks   map[HookID]Hook
	nextID  HookID
	closing bool

	closeOnce sync.Once
	closed    *future.Promise[struct{}]
}

// New creates a coordinator. internals are released after every hook has
// completed, in reverse order.
func New(logger *slog.Logger, internals ...shutdown.Shutdowner) *Coordinator {
	return &Coordinator{
		logger:    logger,
		internals: internals,
		hooks:     make(map[HookID]Hook),
		closed:    future.NewPromise[struct{}](),
	}
}

// AddHook registers hook and returns its id.
func (c *Coordinator) AddHook(hook Hook) (HookID, error) {
	if hook == nil {
		return 0, ErrNilHook
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		return 0, ErrShutdownStarted
	}

	c.nextID++
	id := c.nextID
	c.hooks[id] = hook

	metrics.AddRegisteredHooks(1)

	return id, nil
}

// RemoveHook deregisters the hook with the given id. It reports false when the
// hook is unknown or shutdown already started.
func (c *Coordinator) RemoveHook(id HookID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		return false
	}

	if _, ok := c.hooks[id]; !ok {
		return false
	}

	delete(c.hooks, id)

	metrics.AddRegisteredHooks(-1)

	return true
}

// Len returns the number of registered hooks. It is zero once shutdown started.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.hooks)
}

// IsClosing reports whether Close has been called.
func (c *Coordinator) IsClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closing
}

// Close starts the close sequence once and returns its future. Every call,
// concurrent or not, returns the same future. Close never blocks.
func (c *Coordinator) Close() *future.Future[struct{}] {
	c.closeOnce.Do(func() {
		snapshot := c.freeze()

		go c.run(snapshot)
	})

	return c.closed.Future()
}

// CloseFuture returns the future resolved when the close sequence finishes,
// without starting it.
func (c *Coordinator) CloseFuture() *future.Future[struct{}] {
	return c.closed.Future()
}

// freeze takes the hook snapshot in registration order and disables registration.
func (c *Coordinator) freeze() []registration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closing = true

	ids := make([]HookID, 0, len(c.hooks))
	for id := range c.hooks {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	snapshot := make([]registration, 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, registration{id: id, hook: c.hooks[id]})
	}

	metrics.AddRegisteredHooks(-len(c.hooks))

	c.hooks = nil

	return snapshot
}

func (c *Coordinator) run(snapshot []registration) {
	ctx := context.Background()
	start := time.Now()

	c.logger.InfoContext(ctx, "close sequence started", "hooks", len(snapshot))

	var pending sync.WaitGroup

	pending.Add(len(snapshot))

	for _, reg := range snapshot {
		c.invoke(ctx, reg, &pending)
	}

	pending.Wait()

	c.logger.DebugContext(ctx, "close hooks completed", "duration", time.Since(start))

	if err := shutdown.GracefulShutdown(ctx, c.logger, c.internals); err != nil {
		c.logger.WarnContext(ctx, "internal resources released with errors", "reason", err)
	}

	metrics.ObserveCloseDuration(time.Since(start))

	c.logger.InfoContext(ctx, "close sequence completed", "duration", time.Since(start))

	c.closed.Complete(struct{}{})
}

// invoke runs one hook inside a fault boundary. A panic counts as the hook's
// completion unless the hook already completed.
func (c *Coordinator) invoke(ctx context.Context, reg registration, pending *sync.WaitGroup) {
	logger := c.logger.With("hook", uint64(reg.id))
	completion := future.NewPromise[struct{}]()

	completion.Future().OnComplete(func(res future.Result[struct{}]) {
		defer pending.Done()

		switch {
		case res.Succeeded():
			metrics.RecordHookCompletion(metrics.HookOutcomeSuccess)
			logger.DebugContext(ctx, "close hook completed")
		case errors.Is(res.Err, ErrHookPanicked):
			metrics.RecordHookCompletion(metrics.HookOutcomePanic)
			logger.ErrorContext(ctx, "close hook panicked", "reason", res.Err)
		default:
			metrics.RecordHookCompletion(metrics.HookOutcomeFailure)
			logger.WarnContext(ctx, "close hook failed", "reason", res.Err)
		}
	})

	var catcher panics.Catcher

	catcher.Try(func() {
		reg.hook.Close(completion)
	})

	recovered := catcher.Recovered()
	if recovered == nil {
		return
	}

	if !completion.Fail(fmt.Errorf("%w: %w", ErrHookPanicked, recovered.AsError())) {
		logger.DebugContext(ctx, "close hook panicked after completing, ignored",
			"reason", recovered.String(),
		)
	}
}
