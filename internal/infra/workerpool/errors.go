package workerpool

import "errors"

// ErrStopped is returned by Submit after Shutdown.
var ErrStopped = errors.New("worker pool stopped")
