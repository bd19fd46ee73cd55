package walker

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// phaseRecorder captures the callback traffic of one timer run.
type phaseRecorder struct {
	phases    []Phase
	intervals int
}

func (r *phaseRecorder) onPhaseChange(p Phase) { r.phases = append(r.phases, p) }
func (r *phaseRecorder) onIntervalComplete()   { r.intervals++ }
func (r *phaseRecorder) countOf(p Phase) int {
	n := 0
	for _, got := range r.phases {
		if got == p {
			n++
		}
	}
	return n
}

// newSteppableTimer builds a timer whose tick goroutine is suppressed so tests
// advance time deterministically via tick().
func newSteppableTimer(f Formula) (*IntervalTimer, *phaseRecorder) {
	rec := &phaseRecorder{}
	timer := NewIntervalTimer(f, rec.onPhaseChange, rec.onIntervalComplete, testLogger())
	timer.engineOff = true
	return timer, rec
}

// tick simulates one engine tick against the current run.
func tick(t *testing.T, timer *IntervalTimer) {
	t.Helper()
	timer.mu.Lock()
	gen := timer.generation
	running := timer.state.IsRunning
	timer.mu.Unlock()
	require.True(t, running, "tick on a stopped timer")
	timer.step(gen)
}

func TestNewIntervalTimer_InitialState(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 180, FastSeconds: 120, Sets: 5}
	timer, rec := newSteppableTimer(f)

	state := timer.State()
	assert.Equal(t, PhaseSlow, state.CurrentPhase)
	assert.Equal(t, 180, state.TimeRemainingSeconds)
	assert.Equal(t, 0, state.CurrentInterval)
	assert.Equal(t, 5, state.TotalIntervals)
	assert.Equal(t, 0, state.ElapsedSeconds)
	assert.False(t, state.IsRunning)
	assert.Empty(t, rec.phases)
}

func TestNewIntervalTimer_StartsWithFast(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 180, FastSeconds: 120, Sets: 5, StartsWithFast: true}
	timer, _ := newSteppableTimer(f)

	state := timer.State()
	assert.Equal(t, PhaseFast, state.CurrentPhase)
	assert.Equal(t, 120, state.TimeRemainingSeconds)
}

func TestNewIntervalTimer_NilArgsPanic(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 10, FastSeconds: 10, Sets: 1}
	assert.Panics(t, func() { NewIntervalTimer(f, nil, func() {}, testLogger()) })
	assert.Panics(t, func() { NewIntervalTimer(f, func(Phase) {}, nil, testLogger()) })
	assert.Panics(t, func() { NewIntervalTimer(f, func(Phase) {}, func() {}, nil) })
}

func TestNotificationLeadMs(t *testing.T) {
	tests := []struct {
		phaseSeconds int
		wantLeadMs   int
	}{
		{1, 500},   // (1-1)*1000 floored to the minimum
		{2, 1000},  // 1 second before the boundary
		{3, 2000},  // the classic 3-second sub-phase
		{4, 2500},  // capped
		{180, 2500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantLeadMs, notificationLeadMs(tt.phaseSeconds), "phaseSeconds=%d", tt.phaseSeconds)
	}
}

func TestStart_AnnouncesOpeningPhaseOnce(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 180, FastSeconds: 120, Sets: 5}
	timer, rec := newSteppableTimer(f)

	timer.Start()
	assert.Equal(t, []Phase{PhaseSlow}, rec.phases)
	assert.True(t, timer.State().IsRunning)

	// Start while running is a no-op
	timer.Start()
	assert.Equal(t, []Phase{PhaseSlow}, rec.phases)
}

func TestPauseResume_DoesNotReannounce(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 180, FastSeconds: 120, Sets: 5}
	timer, rec := newSteppableTimer(f)

	timer.Start()
	tick(t, timer)
	tick(t, timer)
	require.Equal(t, 178, timer.State().TimeRemainingSeconds)

	timer.Pause()
	state := timer.State()
	assert.False(t, state.IsRunning)
	assert.Equal(t, PhaseSlow, state.CurrentPhase)
	assert.Equal(t, 178, state.TimeRemainingSeconds)
	assert.Equal(t, 2, state.ElapsedSeconds)

	// Resuming keeps position and stays quiet
	timer.Start()
	resumed := timer.State()
	assert.True(t, resumed.IsRunning)
	assert.Equal(t, 178, resumed.TimeRemainingSeconds)
	assert.Equal(t, []Phase{PhaseSlow}, rec.phases)
}

func TestPause_WhenNotRunning_IsNoop(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 180, FastSeconds: 120, Sets: 5}
	timer, _ := newSteppableTimer(f)

	before := timer.State()
	timer.Pause()
	assert.Equal(t, before, timer.State())
}

func TestReset_ReturnsToStartAndReannounces(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 180, FastSeconds: 120, Sets: 5}
	timer, rec := newSteppableTimer(f)

	timer.Start()
	tick(t, timer)
	tick(t, timer)
	timer.Reset()

	state := timer.State()
	assert.Equal(t, PhaseSlow, state.CurrentPhase)
	assert.Equal(t, 180, state.TimeRemainingSeconds)
	assert.Equal(t, 0, state.CurrentInterval)
	assert.Equal(t, 0, state.ElapsedSeconds)
	assert.False(t, state.IsRunning)
	// Start announced once, Reset announced again
	assert.Equal(t, []Phase{PhaseSlow, PhaseSlow}, rec.phases)
}

// TestFullWorkout walks a slow=3/fast=2 x2 formula tick by tick and checks
// every transition, announcement and the exactly-once completion.
func TestFullWorkout(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}
	timer, rec := newSteppableTimer(f)

	timer.Start()
	require.Equal(t, []Phase{PhaseSlow}, rec.phases)

	// Slow phase of interval 1: lead = min(2500, (3-1)*1000) = 2000ms, so the
	// Fast cue fires on the tick that leaves 2s remaining.
	tick(t, timer)
	state := timer.State()
	assert.Equal(t, 2, state.TimeRemainingSeconds)
	assert.Equal(t, 1, state.CurrentInterval)
	assert.Equal(t, 1, state.ElapsedSeconds)
	assert.Equal(t, []Phase{PhaseSlow, PhaseFast}, rec.phases)

	tick(t, timer)
	assert.Equal(t, []Phase{PhaseSlow, PhaseFast}, rec.phases, "cue must not repeat")

	// Final slow tick crosses into the fast sub-phase
	tick(t, timer)
	state = timer.State()
	assert.Equal(t, PhaseFast, state.CurrentPhase)
	assert.Equal(t, 2, state.TimeRemainingSeconds)
	assert.Equal(t, 3, state.ElapsedSeconds)
	assert.Equal(t, 0, rec.intervals)

	// Fast phase: lead = min(2500, (2-1)*1000) = 1000ms, cue at 1s remaining.
	// More intervals follow, so the upcoming phase is Slow.
	tick(t, timer)
	assert.Equal(t, []Phase{PhaseSlow, PhaseFast, PhaseSlow}, rec.phases)

	// Final fast tick completes interval 1
	tick(t, timer)
	state = timer.State()
	assert.Equal(t, 1, rec.intervals)
	assert.Equal(t, PhaseSlow, state.CurrentPhase)
	assert.Equal(t, 2, state.CurrentInterval)
	assert.Equal(t, 3, state.TimeRemainingSeconds)
	assert.Equal(t, 5, state.ElapsedSeconds)

	// Interval 2: slow
	tick(t, timer) // 2s remaining, Fast cue
	tick(t, timer) // 1s remaining
	tick(t, timer) // boundary -> fast
	state = timer.State()
	assert.Equal(t, PhaseFast, state.CurrentPhase)
	assert.Equal(t, 8, state.ElapsedSeconds)
	assert.Equal(t, []Phase{PhaseSlow, PhaseFast, PhaseSlow, PhaseFast}, rec.phases)

	// Last fast phase: the cue announces Completed ahead of the boundary
	tick(t, timer)
	assert.Equal(t, []Phase{PhaseSlow, PhaseFast, PhaseSlow, PhaseFast, PhaseCompleted}, rec.phases)

	tick(t, timer)
	state = timer.State()
	assert.Equal(t, PhaseCompleted, state.CurrentPhase)
	assert.Equal(t, 0, state.TimeRemainingSeconds)
	assert.Equal(t, 2, state.CurrentInterval)
	assert.Equal(t, 10, state.ElapsedSeconds)
	assert.False(t, state.IsRunning)
	assert.Equal(t, 2, rec.intervals)
	assert.Equal(t, 1, rec.countOf(PhaseCompleted), "Completed must be announced exactly once")
}

// TestOneSecondPhases exercises the failsafe: with 1-second sub-phases the
// lead (500ms) is shorter than a tick, so the cue can only fire on the final
// tick itself.
func TestOneSecondPhases(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 1, FastSeconds: 1, Sets: 1}
	timer, rec := newSteppableTimer(f)

	timer.Start()
	tick(t, timer)
	assert.Equal(t, []Phase{PhaseSlow, PhaseFast}, rec.phases)
	assert.Equal(t, PhaseFast, timer.State().CurrentPhase)

	tick(t, timer)
	assert.Equal(t, []Phase{PhaseSlow, PhaseFast, PhaseCompleted}, rec.phases)
	assert.Equal(t, PhaseCompleted, timer.State().CurrentPhase)
	assert.Equal(t, 1, rec.intervals)
}

func TestStart_AfterCompletion_ResetsAndAnnounces(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 1, FastSeconds: 1, Sets: 1}
	timer, rec := newSteppableTimer(f)

	timer.Start()
	tick(t, timer)
	tick(t, timer)
	require.Equal(t, PhaseCompleted, timer.State().CurrentPhase)

	timer.Start()
	state := timer.State()
	assert.Equal(t, PhaseSlow, state.CurrentPhase)
	assert.Equal(t, 1, state.TimeRemainingSeconds)
	assert.Equal(t, 0, state.CurrentInterval)
	assert.Equal(t, 0, state.ElapsedSeconds)
	assert.True(t, state.IsRunning)
	assert.Equal(t, PhaseSlow, rec.phases[len(rec.phases)-1])
}

func TestRestoreState_MidSlow(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}
	timer, rec := newSteppableTimer(f)

	timer.RestoreState(1, 1, PhaseSlow, false)

	state := timer.State()
	assert.Equal(t, PhaseSlow, state.CurrentPhase)
	assert.Equal(t, 1, state.TimeRemainingSeconds)
	assert.Equal(t, 1, state.CurrentInterval)
	assert.Equal(t, 2, state.ElapsedSeconds, "2s into the slow phase of interval 1")
	assert.False(t, state.IsRunning)
	assert.Equal(t, []Phase{PhaseSlow}, rec.phases, "restore re-announces the restored phase")
}

func TestRestoreState_MidFast(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}
	timer, rec := newSteppableTimer(f)

	timer.RestoreState(1, 1, PhaseFast, false)

	state := timer.State()
	assert.Equal(t, PhaseFast, state.CurrentPhase)
	assert.Equal(t, 1, state.TimeRemainingSeconds)
	assert.Equal(t, 6, state.ElapsedSeconds, "one banked interval (5s) plus 1s into fast")
	assert.Equal(t, []Phase{PhaseFast}, rec.phases)
}

func TestRestoreState_Completed(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}
	timer, rec := newSteppableTimer(f)

	timer.RestoreState(0, 2, PhaseCompleted, false)

	state := timer.State()
	assert.Equal(t, PhaseCompleted, state.CurrentPhase)
	assert.Equal(t, 0, state.TimeRemainingSeconds)
	assert.Equal(t, f.TotalDurationSeconds(), state.ElapsedSeconds)
	assert.False(t, state.IsRunning)
	assert.Equal(t, []Phase{PhaseCompleted}, rec.phases)
}

func TestRestoreState_RunningResumesWithoutSecondAnnouncement(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}
	timer, rec := newSteppableTimer(f)

	timer.RestoreState(2, 1, PhaseSlow, true)

	state := timer.State()
	assert.True(t, state.IsRunning)
	assert.Equal(t, 2, state.TimeRemainingSeconds)
	assert.Equal(t, []Phase{PhaseSlow}, rec.phases, "resume must not announce a second time")

	// Ticking continues from the restored position: next tick crosses the
	// lead threshold and cues the fast phase.
	tick(t, timer)
	assert.Equal(t, []Phase{PhaseSlow, PhaseFast}, rec.phases)
	assert.Equal(t, 1, timer.State().TimeRemainingSeconds)
	assert.Equal(t, 2, timer.State().ElapsedSeconds)
}

func TestRestoreState_ContinuationMatchesFreshRun(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}

	fresh, _ := newSteppableTimer(f)
	fresh.Start()
	tick(t, fresh) // 2s remaining in slow of interval 1
	tick(t, fresh) // 1s remaining
	want := fresh.State()
	require.Equal(t, PhaseSlow, want.CurrentPhase)

	restored, _ := newSteppableTimer(f)
	restored.RestoreState(want.TimeRemainingSeconds, want.CurrentInterval, want.CurrentPhase, true)

	got := restored.State()
	assert.Equal(t, want.CurrentPhase, got.CurrentPhase)
	assert.Equal(t, want.TimeRemainingSeconds, got.TimeRemainingSeconds)
	assert.Equal(t, want.CurrentInterval, got.CurrentInterval)
	assert.Equal(t, want.ElapsedSeconds, got.ElapsedSeconds)

	// Both reach Completed after the same number of further ticks.
	for fresh.State().CurrentPhase != PhaseCompleted {
		tick(t, fresh)
		tick(t, restored)
	}
	assert.Equal(t, PhaseCompleted, restored.State().CurrentPhase)
	assert.Equal(t, fresh.State().ElapsedSeconds, restored.State().ElapsedSeconds)
}

func TestDispose_IsIdempotentAndKeepsState(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}
	timer, _ := newSteppableTimer(f)

	timer.Start()
	tick(t, timer)
	before := timer.State()

	timer.Dispose()
	timer.Dispose()
	assert.Equal(t, before, timer.State())
}

func TestDispose_StaleTickIsIgnored(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}
	timer, rec := newSteppableTimer(f)

	timer.Start()
	timer.mu.Lock()
	gen := timer.generation
	timer.mu.Unlock()

	timer.Dispose()

	// A tick raced with Dispose: its generation is stale, so it must not
	// advance anything.
	before := timer.State()
	assert.False(t, timer.step(gen))
	assert.Equal(t, before, timer.State())
	assert.Equal(t, []Phase{PhaseSlow}, rec.phases)
}

func TestPauseFromPhaseChangeCallback(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}

	var timer *IntervalTimer
	calls := 0
	timer = NewIntervalTimer(f,
		func(p Phase) {
			calls++
			if p == PhaseFast {
				timer.Pause()
			}
		},
		func() {}, testLogger())
	timer.engineOff = true

	timer.Start()
	tick(t, timer) // fires the Fast cue, whose callback pauses

	state := timer.State()
	assert.False(t, state.IsRunning)
	assert.Equal(t, 2, state.TimeRemainingSeconds)
	assert.Equal(t, 2, calls)
}

func TestListenToState_ReplaysLatestSnapshot(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternInterval, SlowSeconds: 3, FastSeconds: 2, Sets: 2}
	timer, _ := newSteppableTimer(f)

	timer.Start()
	tick(t, timer)

	ch := make(chan TimerState, 4)
	unlisten := timer.ListenToState(ch)
	defer unlisten()

	select {
	case state := <-ch:
		assert.Equal(t, 2, state.TimeRemainingSeconds)
		assert.Equal(t, 1, state.CurrentInterval)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for replayed snapshot")
	}
}

func TestCircuitFormula_RunsDoubledIntervals(t *testing.T) {
	f := Formula{Name: "t", Kind: PatternCircuit, SlowSeconds: 1, FastSeconds: 1, Sets: 1}
	timer, rec := newSteppableTimer(f)

	require.Equal(t, 2, f.TotalIntervals())
	timer.Start()
	assert.Equal(t, 2, timer.State().TotalIntervals)

	for timer.State().CurrentPhase != PhaseCompleted {
		tick(t, timer)
	}
	assert.Equal(t, 2, rec.intervals)
	assert.Equal(t, 4, timer.State().ElapsedSeconds)
}
