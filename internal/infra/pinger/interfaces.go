package pinger

import (
	"context"
	"time"
)

// Pinger is a dependency probed periodically for readiness.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// timeoutPinger overrides the service-wide ping timeout.
type timeoutPinger interface {
	PingerTimeout() time.Duration
}
