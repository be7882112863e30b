package engine

import "errors"

var (
	// ErrEngineClosed is returned for work submitted after Close started.
	ErrEngineClosed = errors.New("engine closed")

	// ErrTaskPanicked wraps the value recovered from a blocking task.
	ErrTaskPanicked = errors.New("blocking task panicked")

	// ErrResourceClosed is returned by servers and clients used after Close.
	ErrResourceClosed = errors.New("resource closed")

	// ErrAlreadyListening is returned when Listen is called twice.
	ErrAlreadyListening = errors.New("server already listening")
)
