// Package engine is the asynchronous runtime: a worker pool for blocking
// work, timers, and network resources whose cleanup is driven by a close-hook
// coordinator.
package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/skillcoder/asyncrt/internal/infra/future"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
	"github.com/skillcoder/asyncrt/internal/infra/timer"
	"github.com/skillcoder/asyncrt/internal/infra/workerpool"
	"github.com/skillcoder/asyncrt/internal/logic/closehook"
)

const defaultName = "engine"

// Options configures an Engine.
type Options struct {
	Name           string
	WorkerPoolSize int
}

// Engine owns the runtime infrastructure and its shutdown.
type Engine struct {
	id     uuid.UUID
	name   string
	logger *slog.Logger

	pool   *workerpool.Pool
	timers *timer.Service
	hooks  *closehook.Coordinator

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a running engine.
func New(logger *slog.Logger, opts Options) *Engine {
	if opts.Name == "" {
		opts.Name = defaultName
	}

	id := uuid.New()
	logger = logger.With("engine", opts.Name, "engine_id", id.String())

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		id:     id,
		name:   opts.Name,
		logger: logger,
		pool:   workerpool.New(logger, opts.WorkerPoolSize),
		timers: timer.New(logger),
		ctx:    ctx,
		cancel: cancel,
	}

	// Released in reverse: context, timers, then the pool drains.
	e.hooks = closehook.New(logger,
		e.pool,
		e.timers,
		contextRelease{cancel: cancel},
	)

	logger.Info("engine started", "worker_pool_size", e.pool.Size())

	return e
}

var _ shutdown.Shutdowner = (*Engine)(nil)

// ID returns the engine's unique id.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return e.name
}

// AddCloseHook registers a hook run when the engine closes.
func (e *Engine) AddCloseHook(hook closehook.Hook) (closehook.HookID, error) {
	return e.hooks.AddHook(hook)
}

// RemoveCloseHook deregisters a hook. It is a no-op once closing.
func (e *Engine) RemoveCloseHook(id closehook.HookID) bool {
	return e.hooks.RemoveHook(id)
}

// HookCount returns the number of registered close hooks.
func (e *Engine) HookCount() int {
	return e.hooks.Len()
}

// IsClosing reports whether Close has been called.
func (e *Engine) IsClosing() bool {
	return e.hooks.IsClosing()
}

// Close starts the close sequence and returns its future. Safe to call many
// times; every caller gets the same future.
func (e *Engine) Close() *future.Future[struct{}] {
	return e.hooks.Close()
}

// CloseFuture returns the close future without starting the close sequence.
func (e *Engine) CloseFuture() *future.Future[struct{}] {
	return e.hooks.CloseFuture()
}

// Shutdown closes the engine and waits for the sequence or ctx.
func (e *Engine) Shutdown(ctx context.Context) error {
	_, err := e.Close().Await(ctx)

	return err
}

// Ping reports whether the engine accepts work.
func (e *Engine) Ping(_ context.Context) error {
	if e.IsClosing() {
		return ErrEngineClosed
	}

	return nil
}

// contextRelease cancels the context handed to blocking tasks.
type contextRelease struct {
	cancel context.CancelFunc
}

func (contextRelease) Name() string {
	return "engine-context"
}

func (r contextRelease) Shutdown(_ context.Context) error {
	r.cancel()

	return nil
}
