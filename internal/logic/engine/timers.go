package engine

import (
	"time"

	"github.com/skillcoder/asyncrt/internal/infra/timer"
)

// TimerID identifies a timer created on the engine.
type TimerID = timer.ID

// SetTimer runs handler once after delay.
func (e *Engine) SetTimer(delay time.Duration, handler timer.Handler) (TimerID, error) {
	if e.IsClosing() {
		return 0, ErrEngineClosed
	}

	return e.timers.SetTimer(delay, handler)
}

// SetPeriodic runs handler every period, in whole seconds.
func (e *Engine) SetPeriodic(period time.Duration, handler timer.Handler) (TimerID, error) {
	if e.IsClosing() {
		return 0, ErrEngineClosed
	}

	return e.timers.SetPeriodic(period, handler)
}

// Schedule runs handler on each occurrence of a five-field cron spec.
func (e *Engine) Schedule(spec, tz string, handler timer.Handler) (TimerID, error) {
	if e.IsClosing() {
		return 0, ErrEngineClosed
	}

	return e.timers.Schedule(spec, tz, handler)
}

// CancelTimer stops a timer and reports whether it was active.
func (e *Engine) CancelTimer(id TimerID) bool {
	return e.timers.Cancel(id)
}

// NextFire returns when a periodic or cron timer fires next.
func (e *Engine) NextFire(id TimerID) (time.Time, bool) {
	return e.timers.Next(id)
}
