package future

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Result is the outcome of a completed future.
type Result[T any] struct {
	Value T
	Err   error
}

// Succeeded reports whether the result carries no error.
func (r Result[T]) Succeeded() bool {
	return r.Err == nil
}

// Failed reports whether the result carries an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Future is a read-only view of a value that becomes available exactly once.
type Future[T any] struct {
	done chan struct{}

	mu       sync.Mutex
	result   Result[T]
	handlers []func(Result[T])
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		done: make(chan struct{}),
	}
}

// Succeeded returns an already completed future holding v.
func Succeeded[T any](v T) *Future[T] {
	p := NewPromise[T]()
	p.Complete(v)

	return p.Future()
}

// Failed returns an already failed future. A nil err is replaced by ErrNilFailure.
func Failed[T any](err error) *Future[T] {
	p := NewPromise[T]()
	p.Fail(err)

	return p.Future()
}

// Done returns a channel that is closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the future has been resolved.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome and true once the future is complete.
func (f *Future[T]) Result() (Result[T], bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result[T]{}, false
	}
}

// Await blocks until the future completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result.Value, f.result.Err
	case <-ctx.Done():
		var zero T

		return zero, fmt.Errorf("await future: %w", ctx.Err())
	}
}

// OnComplete registers fn to be called with the outcome.
// If the future is already complete fn runs immediately on the calling goroutine,
// otherwise it runs on the goroutine that completes the future.
func (f *Future[T]) OnComplete(fn func(Result[T])) {
	if fn == nil {
		return
	}

	f.mu.Lock()
	if !f.IsComplete() {
		f.handlers = append(f.handlers, fn)
		f.mu.Unlock()

		return
	}
	f.mu.Unlock()

	fn(f.result)
}

func (f *Future[T]) resolve(res Result[T]) {
	f.mu.Lock()
	f.result = res
	close(f.done)
	handlers := f.handlers
	f.handlers = nil
	f.mu.Unlock()

	for _, h := range handlers {
		h(res)
	}
}

// Promise is the write side of a Future. Only the first completion takes effect.
type Promise[T any] struct {
	completed atomic.Bool
	future    *Future[T]
}

// NewPromise creates an uncompleted promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{
		future: newFuture[T](),
	}
}

// Future returns the future tied to this promise.
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// Complete resolves the promise with v. It returns false if it was already completed.
func (p *Promise[T]) Complete(v T) bool {
	return p.TryComplete(Result[T]{Value: v})
}

// Fail resolves the promise with err. It returns false if it was already completed.
func (p *Promise[T]) Fail(err error) bool {
	if err == nil {
		err = ErrNilFailure
	}

	return p.TryComplete(Result[T]{Err: err})
}

// TryComplete resolves the promise with res unless it was already completed.
func (p *Promise[T]) TryComplete(res Result[T]) bool {
	if !p.completed.CompareAndSwap(false, true) {
		return false
	}

	p.future.resolve(res)

	return true
}

// IsCompleted reports whether a completion has already been accepted.
func (p *Promise[T]) IsCompleted() bool {
	return p.completed.Load()
}
