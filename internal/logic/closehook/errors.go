package closehook

import "errors"

var (
	// ErrShutdownStarted is returned by AddHook once Close has been called.
	ErrShutdownStarted = errors.New("close hook registration after shutdown started")

	// ErrNilHook is returned when registering a nil hook.
	ErrNilHook = errors.New("close hook cannot be nil")

	// ErrHookPanicked marks a hook completion synthesized from a recovered panic.
	ErrHookPanicked = errors.New("close hook panicked")
)
