package walker

import (
	"log"
	"sync"
	"time"

	"github.com/lowaak/interval-walk/interval-walk-app/internal/events"
	"github.com/lowaak/interval-walk/interval-walk-app/internal/go_func_utils"
)

const tickInterval = 1 * time.Second

// Early-notification lead: the next phase is announced this far before the
// sub-phase boundary so a spoken cue finishes as the boundary is crossed.
const (
	maxNotificationLeadMs = 2500
	minNotificationLeadMs = 500
)

// notificationLeadMs shrinks the lead for short sub-phases so the cue never
// lands before the phase has meaningfully begun.
func notificationLeadMs(phaseSeconds int) int {
	lead := (phaseSeconds - 1) * 1000
	if lead > maxNotificationLeadMs {
		lead = maxNotificationLeadMs
	}
	if lead < minNotificationLeadMs {
		lead = minNotificationLeadMs
	}
	return lead
}

// IntervalTimer drives the slow/fast alternation of a single workout. It owns
// the countdown engine and the observable TimerState; hosts command it through
// Start/Pause/Reset/RestoreState/Dispose and observe via State/ListenToState.
//
// The two callbacks fire synchronously from the tick path and must return
// quickly. onPhaseChange fires ahead of each boundary (see notificationLeadMs)
// and exactly once per sub-phase; onIntervalComplete fires once per finished
// slow+fast pair. Calling Pause/Reset/Dispose from inside a callback is safe:
// the engine generation is bumped under the mutex and any in-flight tick for
// the old run becomes a no-op.
type IntervalTimer struct {
	formula            Formula
	onPhaseChange      func(Phase)
	onIntervalComplete func()
	logger             *log.Logger

	mu                  sync.Mutex
	state               TimerState
	completedIntervals  int  // fully finished slow+fast pairs
	isSlowPhase         bool // which half of the current interval is active
	phaseStartSeconds   int  // nominal duration of the active sub-phase
	totalElapsedSeconds int  // seconds banked for finished sub-phases
	notified            bool // next-phase cue already delivered for this sub-phase
	generation          uint64
	stopCh              chan struct{}
	engineOff           bool // test hook: suppress the tick goroutine, drive step directly

	stateEvent *events.ChannelEvent[TimerState]
}

// NewIntervalTimer creates a timer positioned before interval 1 of the given
// formula. The formula is assumed valid (see Formula.Validate).
func NewIntervalTimer(formula Formula, onPhaseChange func(Phase), onIntervalComplete func(), logger *log.Logger) *IntervalTimer {
	if onPhaseChange == nil {
		panic("IntervalTimer: onPhaseChange cannot be nil")
	}
	if onIntervalComplete == nil {
		panic("IntervalTimer: onIntervalComplete cannot be nil")
	}
	if logger == nil {
		panic("IntervalTimer: logger cannot be nil")
	}

	t := &IntervalTimer{
		formula:            formula,
		onPhaseChange:      onPhaseChange,
		onIntervalComplete: onIntervalComplete,
		logger:             logger,
		stateEvent:         events.NewChannelEvent[TimerState](true),
	}
	t.resetBookkeepingLocked()
	t.stateEvent.Notify(t.state)
	return t
}

// Formula returns the training pattern this timer was built for.
func (t *IntervalTimer) Formula() Formula {
	return t.formula
}

// State returns the current observable snapshot.
func (t *IntervalTimer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ListenToState registers a channel to receive every TimerState replacement.
// The latest snapshot is replayed to new listeners. Returns a deregistration
// function.
func (t *IntervalTimer) ListenToState(ch chan<- TimerState) func() {
	return t.stateEvent.Listen(ch)
}

// Start begins or resumes the countdown. A fresh, never-ticked timer
// announces its opening phase; resuming after a pause does not re-announce.
// A timer with no time remaining (completed or corrupted) is reset to the
// formula's initial position first.
func (t *IntervalTimer) Start() {
	t.mu.Lock()
	if t.state.IsRunning {
		t.mu.Unlock()
		t.logger.Printf("IntervalTimer: already running")
		return
	}

	announce := false
	if t.state.TimeRemainingSeconds > 0 {
		// First-ever start announces the opening phase. A resume after
		// pause has elapsed time on the clock and stays quiet.
		announce = t.state.ElapsedSeconds == 0
	} else {
		t.resetBookkeepingLocked()
		announce = true
	}
	t.state.IsRunning = true
	t.startEngineLocked()
	phase := t.state.CurrentPhase
	state := t.state
	t.mu.Unlock()

	t.logger.Printf("IntervalTimer: started (%s, %ds remaining)", phase, state.TimeRemainingSeconds)
	if announce {
		t.onPhaseChange(phase)
	}
	t.stateEvent.Notify(state)
}

// Pause stops the countdown in place. Phase, remaining time and interval are
// untouched so a later Start resumes. No-op if not running.
func (t *IntervalTimer) Pause() {
	t.mu.Lock()
	if !t.state.IsRunning {
		t.mu.Unlock()
		return
	}
	t.state.IsRunning = false
	t.stopEngineLocked()
	state := t.state
	t.mu.Unlock()

	t.logger.Printf("IntervalTimer: paused (%s, %ds remaining)", state.CurrentPhase, state.TimeRemainingSeconds)
	t.stateEvent.Notify(state)
}

// Reset cancels the countdown and returns to the formula's initial position.
// Unlike a pause/resume cycle, the initial phase is re-announced.
func (t *IntervalTimer) Reset() {
	t.mu.Lock()
	t.stopEngineLocked()
	t.resetBookkeepingLocked()
	phase := t.state.CurrentPhase
	state := t.state
	t.mu.Unlock()

	t.logger.Printf("IntervalTimer: reset to %s", phase)
	t.onPhaseChange(phase)
	t.stateEvent.Notify(state)
}

// RestoreState reconstructs the timer from a persisted four-scalar snapshot
// (used after process death). The snapshot is assumed coherent - a nonsense
// combination such as currentInterval=0 with PhaseFast is not defended.
// Restoration always re-announces the restored phase; when isRunning is true
// and time remains, ticking resumes from that point without a second
// announcement.
func (t *IntervalTimer) RestoreState(timeRemainingSeconds, currentInterval int, phase Phase, isRunning bool) {
	t.mu.Lock()
	t.stopEngineLocked()

	total := t.formula.TotalDurationSeconds()
	if phase == PhaseCompleted {
		t.completedIntervals = t.formula.TotalIntervals()
		t.isSlowPhase = false
		t.phaseStartSeconds = t.formula.FastSeconds
		t.totalElapsedSeconds = total
		t.notified = true
		t.state = TimerState{
			CurrentPhase:         PhaseCompleted,
			TimeRemainingSeconds: 0,
			CurrentInterval:      currentInterval,
			TotalIntervals:       t.formula.TotalIntervals(),
			IsRunning:            false,
			ElapsedSeconds:       total,
		}
	} else {
		isSlow := phase == PhaseSlow
		phaseStart := t.formula.FastSeconds
		completed := currentInterval
		if isSlow {
			// Mid-slow: this interval has not finished anything yet.
			phaseStart = t.formula.SlowSeconds
			completed = currentInterval - 1
		}
		banked := completed * (t.formula.SlowSeconds + t.formula.FastSeconds)
		elapsed := banked + (phaseStart - timeRemainingSeconds)
		if elapsed > total {
			elapsed = total
		}
		t.completedIntervals = completed
		t.isSlowPhase = isSlow
		t.phaseStartSeconds = phaseStart
		t.totalElapsedSeconds = banked
		t.notified = false
		t.state = TimerState{
			CurrentPhase:         phase,
			TimeRemainingSeconds: timeRemainingSeconds,
			CurrentInterval:      currentInterval,
			TotalIntervals:       t.formula.TotalIntervals(),
			IsRunning:            false,
			ElapsedSeconds:       elapsed,
		}
	}
	state := t.state
	t.mu.Unlock()

	t.logger.Printf("IntervalTimer: restored (%s, interval %d, %ds remaining, running=%v)",
		phase, currentInterval, timeRemainingSeconds, isRunning)
	t.onPhaseChange(phase)
	t.stateEvent.Notify(state)

	if isRunning && phase != PhaseCompleted && timeRemainingSeconds > 0 {
		t.resume()
	}
}

// resume restarts ticking without the announcement logic of Start.
func (t *IntervalTimer) resume() {
	t.mu.Lock()
	if t.state.IsRunning {
		t.mu.Unlock()
		return
	}
	t.state.IsRunning = true
	t.startEngineLocked()
	state := t.state
	t.mu.Unlock()
	t.stateEvent.Notify(state)
}

// Dispose cancels the countdown engine. Idempotent; the observable state is
// left as-is.
func (t *IntervalTimer) Dispose() {
	t.mu.Lock()
	t.stopEngineLocked()
	t.mu.Unlock()
}

// resetBookkeepingLocked positions the timer before interval 1.
// MUST be called with mu held (or before the timer is shared).
func (t *IntervalTimer) resetBookkeepingLocked() {
	phase, duration := t.formula.startPhase()
	t.completedIntervals = 0
	t.totalElapsedSeconds = 0
	t.isSlowPhase = phase == PhaseSlow
	t.phaseStartSeconds = duration
	t.notified = false
	t.state = TimerState{
		CurrentPhase:         phase,
		TimeRemainingSeconds: duration,
		CurrentInterval:      0,
		TotalIntervals:       t.formula.TotalIntervals(),
		IsRunning:            false,
		ElapsedSeconds:       0,
	}
}

// startEngineLocked launches the per-run tick goroutine.
// MUST be called with mu held.
func (t *IntervalTimer) startEngineLocked() {
	if t.engineOff {
		return
	}
	stop := make(chan struct{})
	t.stopCh = stop
	gen := t.generation
	go_func_utils.SafeGo(t.logger, func() { t.runEngine(gen, stop) })
}

// stopEngineLocked cancels the active engine, if any. Bumping the generation
// turns any tick already past the select into a no-op.
// MUST be called with mu held.
func (t *IntervalTimer) stopEngineLocked() {
	t.generation++
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
}

// runEngine is the countdown loop for one run. It exits when cancelled or
// when its generation goes stale.
func (t *IntervalTimer) runEngine(gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.step(gen) {
				return
			}
		}
	}
}

// tickOutcome carries what a single tick decided, so callbacks and the state
// publication happen after the mutex is released.
type tickOutcome struct {
	state            TimerState
	stale            bool
	announce         bool
	announcePhase    Phase
	intervalComplete bool
	engineDone       bool
}

// step processes one tick and dispatches its effects. Returns false when the
// engine should exit.
func (t *IntervalTimer) step(gen uint64) bool {
	t.mu.Lock()
	if gen != t.generation || !t.state.IsRunning {
		t.mu.Unlock()
		return false
	}
	outcome := t.advanceTickLocked()
	t.mu.Unlock()

	// Callbacks run without the lock so they may pause/reset/dispose freely.
	if outcome.announce {
		t.onPhaseChange(outcome.announcePhase)
	}
	if outcome.intervalComplete {
		t.onIntervalComplete()
	}
	t.stateEvent.Notify(outcome.state)

	return !outcome.engineDone
}

// advanceTickLocked moves the countdown forward one second and performs any
// due sub-phase or interval transition.
// MUST be called with mu held.
func (t *IntervalTimer) advanceTickLocked() tickOutcome {
	var outcome tickOutcome

	t.state.TimeRemainingSeconds--
	remaining := t.state.TimeRemainingSeconds
	t.state.CurrentInterval = t.completedIntervals + 1

	total := t.formula.TotalDurationSeconds()
	elapsed := t.totalElapsedSeconds + (t.phaseStartSeconds - remaining)
	if elapsed > total {
		elapsed = total
	}
	t.state.ElapsedSeconds = elapsed

	// Announce the upcoming phase once remaining time crosses the lead.
	// At remaining zero this doubles as the failsafe for a tick loop that
	// lagged past the intended threshold.
	if !t.notified && remaining*1000 <= notificationLeadMs(t.phaseStartSeconds) {
		t.notified = true
		outcome.announce = true
		outcome.announcePhase = t.upcomingPhaseLocked()
	}

	if remaining > 0 {
		outcome.state = t.state
		return outcome
	}

	// Sub-phase exhausted.
	t.totalElapsedSeconds += t.phaseStartSeconds

	if t.isSlowPhase {
		// Slow half done, fast half of the same interval begins. The fast
		// cue was already delivered ahead of this boundary.
		t.isSlowPhase = false
		t.phaseStartSeconds = t.formula.FastSeconds
		t.notified = false
		t.state.CurrentPhase = PhaseFast
		t.state.TimeRemainingSeconds = t.formula.FastSeconds
		outcome.state = t.state
		return outcome
	}

	// Fast half done: the interval is complete.
	t.completedIntervals++
	outcome.intervalComplete = true

	if t.completedIntervals >= t.formula.TotalIntervals() {
		t.logger.Printf("IntervalTimer: workout complete (%d intervals, %ds)", t.completedIntervals, total)
		t.state.CurrentPhase = PhaseCompleted
		t.state.TimeRemainingSeconds = 0
		t.state.ElapsedSeconds = total
		t.state.CurrentInterval = t.completedIntervals
		t.state.IsRunning = false
		t.stopEngineLocked()
		outcome.engineDone = true
		outcome.state = t.state
		return outcome
	}

	t.isSlowPhase = true
	t.phaseStartSeconds = t.formula.SlowSeconds
	t.notified = false
	t.state.CurrentPhase = PhaseSlow
	t.state.TimeRemainingSeconds = t.formula.SlowSeconds
	t.state.CurrentInterval = t.completedIntervals + 1
	outcome.state = t.state
	return outcome
}

// upcomingPhaseLocked returns what the phase changes to at the next boundary.
// The termination check runs ahead of the actual transition so the final fast
// phase announces PhaseCompleted, not another slow phase.
// MUST be called with mu held.
func (t *IntervalTimer) upcomingPhaseLocked() Phase {
	if t.isSlowPhase {
		return PhaseFast
	}
	if t.completedIntervals+1 >= t.formula.TotalIntervals() {
		return PhaseCompleted
	}
	return PhaseSlow
}
