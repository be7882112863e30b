package pinger

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/skillcoder/asyncrt/internal/infra/metrics"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
)

const defaultPingTimeout = time.Second

type entry struct {
	pinger  Pinger
	timeout time.Duration
	stats   *stats
}

// Service probes registered pingers on an interval.
type Service struct {
	logger   *slog.Logger
	interval time.Duration

	mu      sync.RWMutex
	entries map[string]*entry

	started    atomic.Bool
	inShutdown atomic.Bool
	ready      chan struct{}
	stop       chan struct{}
	done       chan struct{}
}

// New creates a pinger service probing every interval.
func New(logger *slog.Logger, interval time.Duration) *Service {
	return &Service{
		logger:   logger,
		interval: interval,
		entries:  make(map[string]*entry),
		ready:    make(chan struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Service)(nil)

// Name returns the name of the pinger service component
func (s *Service) Name() string {
	return "pinger-service"
}

// Register adds a pinger. Names must be unique.
func (s *Service) Register(p Pinger) error {
	if p == nil {
		return fmt.Errorf("register pinger: %w", ErrNilPinger)
	}

	name := p.Name()
	timeout := defaultPingTimeout

	if tp, ok := p.(timeoutPinger); ok && tp.PingerTimeout() > 0 {
		timeout = tp.PingerTimeout()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("register pinger %s: %w", name, ErrPingerAlreadyRegistered)
	}

	s.entries[name] = &entry{pinger: p, timeout: timeout, stats: &stats{}}

	s.logger.Info("pinger registered", "name", name, "timeout", timeout)

	return nil
}

// Start launches the probe loop: one round right away, then one every
// interval until Shutdown or ctx is done.
func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "pinger service is shutting down, skipping start")

		return nil
	}

	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready is closed after the first probe round.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Shutdown stops the probe loop and waits for the current round.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		return nil
	}

	close(s.stop)

	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		s.logger.InfoContext(ctx, "pinger loop exited")

		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before pinger loop exited: %w", ctx.Err())
	}
}

// GetStats returns statistics for one pinger.
func (s *Service) GetStats(name string) (Statistics, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok {
		return Statistics{}, fmt.Errorf("get stats: %w: %s", ErrPingerNotFound, name)
	}

	return e.stats.snapshot(name), nil
}

// GetAllStats returns statistics for every pinger keyed by name.
func (s *Service) GetAllStats() map[string]Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Statistics, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.stats.snapshot(name)
	}

	return out
}

// AllPassing reports whether every pinger ran and passed its last probe.
func (s *Service) AllPassing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if !e.stats.passing() {
			return false
		}
	}

	return true
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.probe(ctx)
	close(s.ready)

	for {
		select {
		case <-ticker.C:
			s.probe(ctx)
		case <-s.stop:
			s.logger.DebugContext(ctx, "terminating pinger loop")

			return
		case <-ctx.Done():
			s.logger.DebugContext(ctx, "terminating pinger loop")

			return
		}
	}
}

// probe runs every pinger concurrently and waits for all of them.
func (s *Service) probe(ctx context.Context) {
	s.mu.RLock()
	entries := maps.Clone(s.entries)
	s.mu.RUnlock()

	if len(entries) == 0 {
		return
	}

	p := pool.New().WithMaxGoroutines(len(entries))

	for name, e := range entries {
		p.Go(func() {
			pingCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			start := time.Now()
			err := e.pinger.Ping(pingCtx)
			latency := time.Since(start)

			e.stats.record(start, latency, err)
			metrics.ObservePing(name, latency, err)

			if err != nil {
				s.logger.DebugContext(ctx, "pinger error",
					"name", name,
					"latency", latency,
					"reason", err,
				)
			}
		})
	}

	p.Wait()
}
