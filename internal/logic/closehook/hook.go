package closehook

import "github.com/skillcoder/asyncrt/internal/infra/future"

// Completion is the single-use sink a hook resolves when its close action is done.
type Completion = future.Promise[struct{}]

// HookID identifies a registered hook. Ids are assigned from a monotonic counter.
type HookID uint64

// Hook is a unit of cleanup invoked once during shutdown.
//
// Close must resolve completion exactly once, either before returning or later
// from any goroutine. Completions after the first are ignored.
type Hook interface {
	Close(completion *Completion)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(completion *Completion)

// Close implements Hook.
func (f HookFunc) Close(completion *Completion) {
	f(completion)
}

type registration struct {
	id   HookID
	hook Hook
}
