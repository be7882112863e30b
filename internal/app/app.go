package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/skillcoder/asyncrt/internal/config"
	"github.com/skillcoder/asyncrt/internal/httpserver"
	"github.com/skillcoder/asyncrt/internal/infra/future"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
	"github.com/skillcoder/asyncrt/internal/logic/engine"
)

type App struct {
	logger   *slog.Logger
	cfg      *config.Config
	appState appstater
	signals  *shutdown.Handler
	engine   *engine.Engine
	servers  []appServer
}

// New creates a new application instance with all dependencies wired.
func New(logger *slog.Logger, cfg *config.Config, appState appstater) (*App, error) {
	e := engine.New(logger, engine.Options{
		Name:           "asyncrt",
		WorkerPoolSize: cfg.WorkerPoolSize,
	})

	servers := []appServer{
		httpserver.NewMetricsServer(logger, cfg.MetricsPort),
		httpserver.New(logger, appState, e, cfg.HTTPPort),
	}

	return &App{
		logger:   logger,
		cfg:      cfg,
		appState: appState,
		signals:  shutdown.New(logger, appState),
		engine:   e,
		servers:  servers,
	}, nil
}

// Run starts every component, blocks until a termination signal or ctx is
// done, then shuts everything down within the configured timeout.
func (a *App) Run(originCtx context.Context) error {
	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go a.signals.HandleSignals(ctx, cancel)

	startErr := a.start(ctx)
	if startErr != nil {
		a.logger.ErrorContext(ctx, "startup failed, shutting down", "reason", startErr)
		cancel()
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.appState.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return startErr
}

func (a *App) start(ctx context.Context) error {
	if err := a.appState.SetStarting(ctx); err != nil {
		return fmt.Errorf("set starting: %w", err)
	}

	ready, startErr := a.startServers(ctx)

	// Registered after the servers so the engine is closed first. It is
	// registered even when a server failed so that shutdown releases it.
	if err := a.appState.RegisterShutdowner(a.engine); err != nil {
		return fmt.Errorf("register shutdowner: %w", err)
	}

	if startErr != nil {
		return startErr
	}

	if err := a.appState.RegisterPinger(a.engine); err != nil {
		return fmt.Errorf("register pinger: %w", err)
	}

	if err := a.startWorkload(ctx); err != nil {
		return err
	}

	if err := a.appState.StartPingers(ctx); err != nil {
		return err
	}

	ready = append(ready, a.appState.PingersReady())

	<-allChannelsClose(ctx, a.logger, ready...)

	if err := a.appState.SetRunning(ctx); err != nil {
		return fmt.Errorf("set running: %w", err)
	}

	return nil
}

func (a *App) startServers(ctx context.Context) ([]<-chan struct{}, error) {
	ready := make([]<-chan struct{}, 0, len(a.servers)+1)

	for _, srv := range a.servers {
		if err := a.appState.RegisterShutdowner(srv); err != nil {
			return ready, fmt.Errorf("register shutdowner: %w", err)
		}

		if err := srv.Start(ctx); err != nil {
			return ready, fmt.Errorf("start %s: %w", srv.Name(), err)
		}

		if err := a.appState.RegisterPinger(srv); err != nil {
			return ready, fmt.Errorf("register pinger: %w", err)
		}

		ready = append(ready, srv.Ready())
	}

	return ready, nil
}

// startWorkload runs the demo workload on the engine: the TCP echo server
// and the heartbeat timer.
func (a *App) startWorkload(ctx context.Context) error {
	if a.cfg.EchoAddr != "" {
		echo := engine.NewNetServer(a.engine, engine.ConnHandlerFunc(echoHandler(a.logger)))

		if err := echo.Listen(ctx, a.cfg.EchoAddr); err != nil {
			return fmt.Errorf("start echo server: %w", err)
		}
	}

	if a.cfg.HeartbeatSchedule != "" {
		_, err := a.engine.Schedule(a.cfg.HeartbeatSchedule, a.cfg.HeartbeatTZ, a.heartbeat)
		if err != nil {
			return fmt.Errorf("schedule heartbeat: %w", err)
		}
	}

	return nil
}

func (a *App) heartbeat(id engine.TimerID) {
	engine.ExecuteBlocking(a.engine, func(context.Context) (int, error) {
		return runtime.NumGoroutine(), nil
	}).OnComplete(func(res future.Result[int]) {
		if res.Failed() {
			a.logger.Warn("heartbeat skipped", "timer_id", id, "reason", res.Err)

			return
		}

		a.logger.Info("heartbeat",
			"timer_id", id,
			"goroutines", res.Value,
			"close_hooks", a.engine.HookCount(),
		)
	})
}

// allChannelsClose returns a channel closed once every input channel is
// closed. Cancelling ctx stops waiting but the output still closes.
func allChannelsClose(ctx context.Context, logger *slog.Logger, chans ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(len(chans))

	for _, ch := range chans {
		go func() {
			defer wg.Done()

			select {
			case <-ch:
			case <-ctx.Done():
				logger.DebugContext(ctx, "stopped waiting for readiness", "reason", ctx.Err())
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
