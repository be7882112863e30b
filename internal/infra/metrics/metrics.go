package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Close hook outcomes.
const (
	HookOutcomeSuccess = "success"
	HookOutcomeFailure = "failure"
	HookOutcomePanic   = "panic"
)

// Worker task outcomes.
const (
	TaskOutcomeSuccess = "success"
	TaskOutcomePanic   = "panic"
	TaskOutcomeDropped = "dropped"
)

// Timer kinds.
const (
	TimerKindOnce     = "once"
	TimerKindPeriodic = "periodic"
	TimerKindCron     = "cron"
)

// Ping outcomes.
const (
	PingOutcomeSuccess = "success"
	PingOutcomeFailure = "failure"
)

var closeHookInvocationsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "asyncrt_close_hook_invocations_total",
		Help: "Total number of close hook completions observed during shutdown, by outcome.",
	},
	[]string{"outcome"},
)

var closeHooksRegistered = promauto.With(prometheus.DefaultRegisterer).NewGauge(
	prometheus.GaugeOpts{
		Name: "asyncrt_close_hooks_registered",
		Help: "Number of close hooks currently registered across all engines.",
	},
)

var closeDurationSeconds = promauto.With(prometheus.DefaultRegisterer).NewHistogram(
	prometheus.HistogramOpts{
		Name:    "asyncrt_close_duration_seconds",
		Help:    "Time from Close() until every hook completed and internal resources were released.",
		Buckets: prometheus.DefBuckets,
	},
)

var workerTasksTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "asyncrt_worker_tasks_total",
		Help: "Total number of worker pool tasks, by outcome.",
	},
	[]string{"outcome"},
)

var timerFiresTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "asyncrt_timer_fires_total",
		Help: "Total number of timer callbacks fired, by timer kind.",
	},
	[]string{"kind"},
)

var pingDurationSeconds = promauto.With(prometheus.DefaultRegisterer).NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "asyncrt_ping_duration_seconds",
		Help:    "Latency of readiness pings, by pinger and outcome.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	},
	[]string{"pinger", "outcome"},
)

// RecordHookCompletion counts a close hook completion with the given outcome.
func RecordHookCompletion(outcome string) {
	closeHookInvocationsTotal.WithLabelValues(outcome).Inc()
}

// AddRegisteredHooks adjusts the registered hooks gauge by delta.
func AddRegisteredHooks(delta int) {
	closeHooksRegistered.Add(float64(delta))
}

// ObserveCloseDuration records how long a full close sequence took.
func ObserveCloseDuration(d time.Duration) {
	closeDurationSeconds.Observe(d.Seconds())
}

// RecordWorkerTask counts a worker pool task with the given outcome.
func RecordWorkerTask(outcome string) {
	workerTasksTotal.WithLabelValues(outcome).Inc()
}

// RecordTimerFire counts a fired timer callback of the given kind.
func RecordTimerFire(kind string) {
	timerFiresTotal.WithLabelValues(kind).Inc()
}

// ObservePing records a readiness ping of the named pinger.
func ObservePing(pinger string, latency time.Duration, err error) {
	outcome := PingOutcomeSuccess
	if err != nil {
		outcome = PingOutcomeFailure
	}

	pingDurationSeconds.WithLabelValues(pinger, outcome).Observe(latency.Seconds())
}

// HookCompletions returns the counter for the given outcome. Intended for tests.
func HookCompletions(outcome string) prometheus.Counter {
	return closeHookInvocationsTotal.WithLabelValues(outcome)
}

// WorkerTasks returns the counter for the given outcome. Intended for tests.
func WorkerTasks(outcome string) prometheus.Counter {
	return workerTasksTotal.WithLabelValues(outcome)
}
