package engine

import (
	"fmt"
	"sync"

	"github.com/skillcoder/asyncrt/internal/infra/future"
	"github.com/skillcoder/asyncrt/internal/logic/closehook"
)

// lifecycle ties a resource's close to the engine's close hooks. The resource
// closes once, either explicitly or when the engine closes.
type lifecycle struct {
	engine *Engine

	// release frees the resource and eventually resolves done.
	release func(done *future.Promise[struct{}])

	mu         sync.Mutex
	hookID     closehook.HookID
	registered bool

	once   sync.Once
	closed *future.Promise[struct{}]
}

func (l *lifecycle) setup(e *Engine, release func(done *future.Promise[struct{}])) {
	l.engine = e
	l.release = release
	l.closed = future.NewPromise[struct{}]()
}

func (l *lifecycle) register() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.engine.AddCloseHook(closehook.HookFunc(l.closeHook))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEngineClosed, err)
	}

	l.hookID = id
	l.registered = true

	return nil
}

// Close releases the resource and removes its engine hook.
func (l *lifecycle) Close() *future.Future[struct{}] {
	l.mu.Lock()
	if l.registered {
		l.engine.RemoveCloseHook(l.hookID)
		l.registered = false
	}
	l.mu.Unlock()

	l.shutdown()

	return l.closed.Future()
}

// CloseFuture resolves when the resource has been released.
func (l *lifecycle) CloseFuture() *future.Future[struct{}] {
	return l.closed.Future()
}

func (l *lifecycle) closeHook(completion *closehook.Completion) {
	l.shutdown()

	l.closed.Future().OnComplete(func(res future.Result[struct{}]) {
		completion.TryComplete(res)
	})
}

func (l *lifecycle) shutdown() {
	l.once.Do(func() {
		l.release(l.closed)
	})
}
