package metrics

import (
	"testing"
	"time"

	"github.com/yanmxa/codo/internal/message"
)

// fakeClock advances only when told to, so pause deltas are exact.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewTrackerWithClock(clock.now), clock
}

func TestStartRequestResets(t *testing.T) {
	tr, clock := newTestTracker()

	tr.AddAPITokens(message.Usage{CompletionTokens: 99})
	tr.StartRequest()

	s := tr.Snapshot()
	if s.CompletionTokens != 0 {
		t.Errorf("expected 0 tokens after start, got %d", s.CompletionTokens)
	}
	if s.StartTime == nil || !s.StartTime.Equal(clock.t) {
		t.Errorf("unexpected start time: %v", s.StartTime)
	}
	if s.EndTime != nil {
		t.Error("end time should be nil after start")
	}
	if !s.IsActive || s.IsPaused {
		t.Errorf("expected active and not paused, got active=%v paused=%v", s.IsActive, s.IsPaused)
	}
}

func TestStartRequestMidFlight(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartRequest()
	tr.Pause()
	clock.advance(500 * time.Millisecond)
	tr.StartRequest()

	s := tr.Snapshot()
	if s.PausedTime != 0 {
		t.Errorf("expected paused time reset, got %v", s.PausedTime)
	}
	if s.IsPaused {
		t.Error("expected not paused after restart")
	}
}

func TestAddAPITokensCompletionOnly(t *testing.T) {
	tr, _ := newTestTracker()

	tr.StartRequest()
	tr.AddAPITokens(message.Usage{PromptTokens: 1000, CompletionTokens: 15, TotalTokens: 1015})
	tr.AddAPITokens(message.Usage{PromptTokens: 2000, CompletionTokens: 10, TotalTokens: 2010})

	if got := tr.Snapshot().CompletionTokens; got != 25 {
		t.Errorf("expected 25 completion tokens, got %d", got)
	}
}

func TestAddAPITokensBeforeStart(t *testing.T) {
	tr, _ := newTestTracker()

	tr.AddAPITokens(message.Usage{CompletionTokens: 5})
	if got := tr.Snapshot().CompletionTokens; got != 5 {
		t.Errorf("expected 5 tokens before start, got %d", got)
	}
}

func TestPauseResumeDelta(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartRequest()
	tr.Pause()
	clock.advance(2 * time.Second)
	tr.Resume()

	if got := tr.Snapshot().PausedTime; got != 2*time.Second {
		t.Errorf("expected 2s paused, got %v", got)
	}
}

func TestPauseResumeAccumulates(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartRequest()

	for _, d := range []time.Duration{1000 * time.Millisecond, 300 * time.Millisecond, 700 * time.Millisecond} {
		tr.Pause()
		clock.advance(d)
		tr.Resume()
	}

	if got := tr.Snapshot().PausedTime; got != 2*time.Second {
		t.Errorf("expected cycles to sum to 2s, got %v", got)
	}
}

func TestPauseIdempotent(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartRequest()

	tr.Pause()
	clock.advance(time.Second)
	tr.Pause() // second pause must not reset the pause instant
	clock.advance(time.Second)
	tr.Resume()

	if got := tr.Snapshot().PausedTime; got != 2*time.Second {
		t.Errorf("expected 2s paused, got %v", got)
	}
}

func TestResumeWithoutPause(t *testing.T) {
	tr, _ := newTestTracker()
	tr.StartRequest()
	tr.Resume()

	if got := tr.Snapshot().PausedTime; got != 0 {
		t.Errorf("expected 0 paused time, got %v", got)
	}
}

func TestCompleteFoldsOpenPause(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartRequest()

	tr.Pause()
	clock.advance(3 * time.Second)
	tr.CompleteRequest()

	s := tr.Snapshot()
	if s.PausedTime != 3*time.Second {
		t.Errorf("expected open pause folded to 3s, got %v", s.PausedTime)
	}
	if s.IsPaused {
		t.Error("expected not paused after complete")
	}
	if s.IsActive {
		t.Error("expected not active after complete")
	}
	if s.EndTime == nil {
		t.Fatal("expected end time set")
	}
}

func TestCompleteRecallable(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartRequest()

	tr.CompleteRequest()
	first := *tr.Snapshot().EndTime
	clock.advance(time.Second)
	tr.CompleteRequest()
	second := *tr.Snapshot().EndTime

	if !second.After(first) {
		t.Errorf("expected later end time on re-complete, got %v then %v", first, second)
	}
}

func TestResetFromAnyPhase(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartRequest()
	tr.AddAPITokens(message.Usage{CompletionTokens: 42})
	tr.Pause()
	clock.advance(time.Second)
	tr.Reset()

	s := tr.Snapshot()
	if s.CompletionTokens != 0 || s.StartTime != nil || s.EndTime != nil ||
		s.PausedTime != 0 || s.IsPaused || s.IsActive {
		t.Errorf("expected zero snapshot after reset, got %+v", s)
	}
}

func TestEndToEndScenario(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartRequest()
	tr.AddAPITokens(message.Usage{CompletionTokens: 15})
	tr.Pause()
	clock.advance(2 * time.Second)
	tr.Resume()
	tr.AddAPITokens(message.Usage{CompletionTokens: 10})
	clock.advance(time.Second)
	tr.CompleteRequest()

	s := tr.Snapshot()
	if s.CompletionTokens != 25 {
		t.Errorf("expected 25 tokens, got %d", s.CompletionTokens)
	}
	if s.PausedTime != 2*time.Second {
		t.Errorf("expected 2s paused, got %v", s.PausedTime)
	}
	if s.IsActive {
		t.Error("expected inactive after complete")
	}
	if got := s.ThinkTime(); got != time.Second {
		t.Errorf("expected 1s think time, got %v", got)
	}
}
