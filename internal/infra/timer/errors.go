package timer

import "errors"

var (
	// ErrStopped is returned when adding a timer after Shutdown.
	ErrStopped = errors.New("timer service stopped")

	// ErrInvalidDelay is returned for a non-positive one-shot delay.
	ErrInvalidDelay = errors.New("timer delay must be positive")

	// ErrInvalidPeriod is returned for periods shorter than one second.
	ErrInvalidPeriod = errors.New("timer period must be at least one second")
)
