package engine

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"

	"github.com/skillcoder/asyncrt/internal/infra/future"
)

// ExecuteBlocking runs fn on the engine's worker pool and returns its result
// as a future. It blocks while every worker is busy. ctx passed to fn is
// cancelled when the engine releases its infrastructure.
func ExecuteBlocking[T any](e *Engine, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	if e.IsClosing() {
		return future.Failed[T](ErrEngineClosed)
	}

	promise := future.NewPromise[T]()

	err := e.pool.Submit(func() {
		var (
			catcher panics.Catcher
			value   T
			err     error
		)

		catcher.Try(func() {
			value, err = fn(e.ctx)
		})

		if r := catcher.Recovered(); r != nil {
			e.logger.Error("blocking task panicked", "reason", r.String())
			promise.Fail(fmt.Errorf("%w: %w", ErrTaskPanicked, r.AsError()))

			return
		}

		promise.TryComplete(future.Result[T]{Value: value, Err: err})
	})
	if err != nil {
		promise.Fail(fmt.Errorf("%w: %w", ErrEngineClosed, err))
	}

	return promise.Future()
}
