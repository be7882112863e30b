package pinger

import (
	"slices"
	"sync"
	"time"
)

// latencyWindow is the number of recent latencies kept per pinger.
const latencyWindow = 64

// Statistics is a point-in-time copy of one pinger's results.
type Statistics struct {
	Name      string        `json:"name"`
	Passing   bool          `json:"passing"`
	LastRun   time.Time     `json:"lastRun"`
	LastError string        `json:"lastError,omitempty"`
	Successes uint64        `json:"successes"`
	Failures  uint64        `json:"failures"`
	P50       time.Duration `json:"p50"`
	P90       time.Duration `json:"p90"`
	P99       time.Duration `json:"p99"`
}

type stats struct {
	mu        sync.Mutex
	lastRun   time.Time
	lastErr   error
	successes uint64
	failures  uint64
	latencies [latencyWindow]time.Duration
	next      int
	filled    int
}

func (s *stats) record(at time.Time, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRun = at
	s.lastErr = err

	if err != nil {
		s.failures++

		return
	}

	s.successes++
	s.latencies[s.next] = latency
	s.next = (s.next + 1) % latencyWindow
	s.filled = min(s.filled+1, latencyWindow)
}

// passing is true once the pinger ran and its last run succeeded.
func (s *stats) passing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.lastRun.IsZero() && s.lastErr == nil
}

func (s *stats) snapshot(name string) Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := slices.Clone(s.latencies[:s.filled])
	slices.Sort(sorted)

	out := Statistics{
		Name:      name,
		Passing:   !s.lastRun.IsZero() && s.lastErr == nil,
		LastRun:   s.lastRun,
		Successes: s.successes,
		Failures:  s.failures,
		P50:       Percentile(sorted, 50),
		P90:       Percentile(sorted, 90),
		P99:       Percentile(sorted, 99),
	}

	if s.lastErr != nil {
		out.LastError = s.lastErr.Error()
	}

	return out
}

// Percentile returns the nearest-rank percentile p (0-100) of sorted.
func Percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	rank := (p*len(sorted) + 99) / 100
	rank = max(1, min(rank, len(sorted)))

	return sorted[rank-1]
}
