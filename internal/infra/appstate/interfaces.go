package appstate

import (
	"context"

	"github.com/skillcoder/asyncrt/internal/infra/pinger"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
)

// pingerServer is an internal interface for pinger management
type pingerServer interface {
	Start(ctx context.Context) error
	Ready() <-chan struct{}
	shutdown.Shutdowner
	Register(p pinger.Pinger) error
	GetAllStats() map[string]pinger.Statistics
	AllPassing() bool
}
