package httpserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillcoder/asyncrt/internal/infra/appstate"
	"github.com/skillcoder/asyncrt/internal/infra/pinger"
)

// appstater is an internal interface for application state management
type appstater interface {
	GetState() appstate.State
	IsHealthy() bool
	IsReady() bool
	GetUptime() time.Duration
	GetStartTime() time.Time
	GetAllStats() map[string]pinger.Statistics
}

// engineInfo exposes the runtime engine for the status endpoint
type engineInfo interface {
	ID() uuid.UUID
	Name() string
	HookCount() int
	IsClosing() bool
}
