package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cron "github.com/netresearch/go-cron"
	"github.com/sourcegraph/conc/panics"

	"github.com/skillcoder/asyncrt/internal/infra/metrics"
	"github.com/skillcoder/asyncrt/internal/infra/shutdown"
)

// ID identifies a timer created by the Service.
type ID uint64

// Handler is called with the id of the timer that fired.
type Handler func(id ID)

// Service owns one-shot, periodic and cron timers.
// Periodic and cron timers run on a shared cron scheduler.
type Service struct {
	logger *slog.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	nextID  ID
	stopped bool
	onces   map[ID]*time.Timer
	entries map[ID]cron.EntryID

	// running tracks one-shot handlers in flight; cron jobs are tracked by the scheduler.
	running sync.WaitGroup

	stopOnce sync.Once
	drained  chan struct{}
}

// New creates a started timer service.
func New(logger *slog.Logger) *Service {
	c := cron.New(
		cron.WithParser(_parser),
		cron.WithLocation(time.UTC),
	)
	c.Start()

	return &Service{
		logger:  logger,
		cron:    c,
		onces:   make(map[ID]*time.Timer),
		entries: make(map[ID]cron.EntryID),
	}
}

var _ shutdown.Shutdowner = (*Service)(nil)

// Name returns the name of the timer service component
func (s *Service) Name() string {
	return "timer-service"
}

// SetTimer fires handler once after delay.
func (s *Service) SetTimer(delay time.Duration, handler Handler) (ID, error) {
	if delay <= 0 {
		return 0, ErrInvalidDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0, ErrStopped
	}

	s.nextID++
	id := s.nextID

	s.onces[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.onces[id]
		delete(s.onces, id)

		if live {
			s.running.Add(1)
		}
		s.mu.Unlock()

		if !live {
			return
		}

		defer s.running.Done()

		s.fire(id, metrics.TimerKindOnce, handler)
	})

	return id, nil
}

// SetPeriodic fires handler every period until cancelled.
// Periods are truncated to whole seconds.
func (s *Service) SetPeriodic(period time.Duration, handler Handler) (ID, error) {
	if period < time.Second {
		return 0, ErrInvalidPeriod
	}

	return s.addSchedule(cron.Every(period), metrics.TimerKindPeriodic, handler)
}

// Schedule fires handler on every occurrence of a cron spec.
// tz applies when the spec carries no CRON_TZ= prefix; empty means UTC.
func (s *Service) Schedule(spec, tz string, handler Handler) (ID, error) {
	schedule, err := parse(spec, tz)
	if err != nil {
		return 0, err
	}

	return s.addSchedule(schedule, metrics.TimerKindCron, handler)
}

func (s *Service) addSchedule(
	schedule cron.Schedule,
	kind string,
	handler Handler,
) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0, ErrStopped
	}

	s.nextID++
	id := s.nextID

	s.entries[id] = s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.fire(id, kind, handler)
	}))

	return id, nil
}

// Next returns the next activation time of a periodic or cron timer.
func (s *Service) Next(id ID) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.entries[id]
	s.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}

	entry := s.cron.Entry(entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}

	return entry.Next, true
}

// Cancel stops a timer. It reports whether the timer was still active.
func (s *Service) Cancel(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.onces[id]; ok {
		delete(s.onces, id)
		t.Stop()

		return true
	}

	if entryID, ok := s.entries[id]; ok {
		delete(s.entries, id)
		s.cron.Remove(entryID)

		return true
	}

	return false
}

// Len returns the number of active timers.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.onces) + len(s.entries)
}

// Shutdown cancels all timers and waits for handlers already running,
// one-shot and scheduled alike, or for ctx.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true

		for id, t := range s.onces {
			t.Stop()
			delete(s.onces, id)
		}

		clear(s.entries)
		s.mu.Unlock()

		cronCtx := s.cron.Stop()
		s.drained = make(chan struct{})

		go func() {
			s.running.Wait()
			<-cronCtx.Done()
			close(s.drained)
		}()
	})

	select {
	case <-s.drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timer service stop: %w", ctx.Err())
	}
}

func (s *Service) fire(id ID, kind string, handler Handler) {
	metrics.RecordTimerFire(kind)

	var catcher panics.Catcher

	catcher.Try(func() { handler(id) })

	if r := catcher.Recovered(); r != nil {
		s.logger.Error("timer handler panicked",
			"timer_id", id,
			"kind", kind,
			"reason", r.String(),
		)
	}
}
