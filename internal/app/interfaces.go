package app

import (
	"context"
	"os"
	"time"

	"github.com/skillcoder/asyncrt/internal/infra/appstate"
	"github.com/skillcoder/asyncrt/internal/infra/pinger"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
)

// appstater defines the interface for application state management
type appstater interface {
	RegisterPinger(p pinger.Pinger) error
	GetAllStats() map[string]pinger.Statistics
	RegisterShutdowner(shutdowner shutdown.Shutdowner) error
	StartPingers(ctx context.Context) error
	PingersReady() <-chan struct{}
	Quit() <-chan os.Signal
	SetStarting(ctx context.Context) error
	SetRunning(ctx context.Context) error
	GetStartTime() time.Time
	GetState() appstate.State
	GetUptime() time.Duration
	IsHealthy() bool
	IsReady() bool
	Shutdown(ctx context.Context) error
}

type appServer interface {
	pinger.Pinger
	Start(ctx context.Context) error
	Ready() <-chan struct{}
	shutdown.Shutdowner
}
