// Package metrics tracks per-request timing and token consumption.
// The tracker is a pausable stopwatch: wall clock spent waiting on a human
// decision is excluded from reported model latency by pausing around the wait.
package metrics

import (
	"sync"
	"time"

	"github.com/yanmxa/codo/internal/message"
)

// Snapshot is a point-in-time copy of the tracker's raw fields.
// Derived values (e.g. think time) are computed by the caller.
type Snapshot struct {
	CompletionTokens int
	StartTime        *time.Time
	EndTime          *time.Time
	PausedTime       time.Duration
	IsPaused         bool
	IsActive         bool
}

// ThinkTime returns elapsed request time minus paused time.
// Zero if the request never started or has not ended.
func (s Snapshot) ThinkTime() time.Duration {
	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(*s.StartTime) - s.PausedTime
}

// Tracker accumulates completion tokens and pause-aware elapsed time for one
// request at a time. Safe for concurrent use.
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time

	completionTokens int
	startTime        *time.Time
	endTime          *time.Time
	pausedTime       time.Duration
	isPaused         bool
	isActive         bool
	pausedAt         time.Time
}

// NewTracker creates a tracker using the wall clock.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// NewTrackerWithClock creates a tracker with a custom clock, for tests.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// StartRequest begins a new request measurement. It always resets, even if a
// prior request is still marked active.
func (t *Tracker) StartRequest() {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.now()
	t.completionTokens = 0
	t.startTime = &start
	t.endTime = nil
	t.pausedTime = 0
	t.isPaused = false
	t.isActive = true
}

// AddAPITokens accumulates completion tokens from a usage report.
// Prompt and total tokens are ignored. Callable at any time.
func (t *Tracker) AddAPITokens(usage message.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completionTokens += usage.CompletionTokens
}

// Pause stops the stopwatch. No-op if already paused.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isPaused {
		return
	}
	t.pausedAt = t.now()
	t.isPaused = true
}

// Resume restarts the stopwatch, folding the open pause interval into the
// accumulated paused time. No-op if not paused.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isPaused {
		return
	}
	t.pausedTime += t.now().Sub(t.pausedAt)
	t.isPaused = false
}

// CompleteRequest ends the measurement. An open pause interval is folded into
// the paused time first. Re-callable; each call records a later end time.
func (t *Tracker) CompleteRequest() {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := t.now()
	if t.isPaused {
		t.pausedTime += end.Sub(t.pausedAt)
		t.isPaused = false
	}
	t.endTime = &end
	t.isActive = false
}

// Reset returns every field to its initial zero state regardless of phase.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completionTokens = 0
	t.startTime = nil
	t.endTime = nil
	t.pausedTime = 0
	t.isPaused = false
	t.isActive = false
}

// Snapshot returns a copy of the current raw fields.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		CompletionTokens: t.completionTokens,
		StartTime:        t.startTime,
		EndTime:          t.endTime,
		PausedTime:       t.pausedTime,
		IsPaused:         t.isPaused,
		IsActive:         t.isActive,
	}
}
