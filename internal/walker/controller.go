package walker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/interval-walk/interval-walk-app/internal/events"
	"github.com/lowaak/interval-walk/interval-walk-app/internal/go_func_utils"
	"github.com/lowaak/interval-walk/interval-walk-app/internal/history"
	"github.com/lowaak/interval-walk/interval-walk-app/internal/notify"
)

// Controller handles UI events and binds the interval timer to the announcer,
// the session store and the restore-snapshot file.
type Controller struct {
	model      *AppModel
	store      *history.Store
	announcer  notify.Announcer
	snapshots  *snapshotStore
	phaseEvent *events.CallbackEvent[Phase]
	logger     *log.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	mu            sync.Mutex
	timer         *IntervalTimer
	stateUnlisten func()
	stateQuit     chan struct{}
}

// NewController creates a new Controller. stateDir is where the timer restore
// snapshot lives.
func NewController(model *AppModel, store *history.Store, announcer notify.Announcer, stateDir string, logger *log.Logger) *Controller {
	if model == nil {
		panic("Controller: model cannot be nil")
	}
	if store == nil {
		panic("Controller: store cannot be nil")
	}
	if announcer == nil {
		panic("Controller: announcer cannot be nil")
	}
	if logger == nil {
		panic("Controller: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		model:      model,
		store:      store,
		announcer:  announcer,
		snapshots:  newSnapshotStore(stateDir, logger),
		phaseEvent: events.NewCallbackEvent[Phase](false),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	c.phaseEvent.Listen(func(p Phase) {
		if phrase := AnnouncementPhrase(p); phrase != "" {
			c.announcer.Announce(phrase)
		}
	})
	return c
}

// ListenToPhaseChanges registers a callback for every phase transition the
// active timer reports, in addition to the built-in announcer.
func (c *Controller) ListenToPhaseChanges(callback func(Phase)) func() {
	return c.phaseEvent.Listen(callback)
}

// Bootstrap selects the initial formula, restoring a persisted mid-workout
// snapshot when one matches an available formula. Call once before the UI
// starts.
func (c *Controller) Bootstrap() {
	if data, ok := c.snapshots.load(); ok {
		for _, f := range c.model.Formulas() {
			if f.Name == data.FormulaName {
				phase, err := parsePhase(data.CurrentPhase)
				if err != nil {
					break
				}
				c.logger.Printf("Controller: restoring %q (%s, interval %d, %ds remaining)",
					f.Name, phase, data.CurrentInterval, data.TimeRemainingSeconds)
				c.SelectFormula(f)
				c.currentTimer().RestoreState(data.TimeRemainingSeconds, data.CurrentInterval, phase, data.IsRunning)
				c.RefreshHistory()
				return
			}
		}
		c.logger.Printf("Controller: snapshot formula %q not available, starting fresh", data.FormulaName)
	}
	c.SelectFormula(c.model.Formulas()[0])
	c.RefreshHistory()
}

// SelectFormula replaces the active timer with a fresh one for the given
// formula. Any running workout is discarded.
func (c *Controller) SelectFormula(f Formula) {
	timer := NewIntervalTimer(f,
		func(p Phase) { c.handlePhaseChange(f, p) },
		func() { c.handleIntervalComplete(f) },
		c.logger)

	ch := make(chan TimerState, 8)
	unlisten := timer.ListenToState(ch)
	quit := make(chan struct{})

	c.mu.Lock()
	old, oldUnlisten, oldQuit := c.timer, c.stateUnlisten, c.stateQuit
	c.timer, c.stateUnlisten, c.stateQuit = timer, unlisten, quit
	c.mu.Unlock()

	if old != nil {
		oldUnlisten()
		close(oldQuit)
		old.Dispose()
	}

	c.wg.Add(1)
	go_func_utils.SafeGo(c.logger, func() { c.listenToTimerState(f, ch, quit) })

	c.logger.Printf("Controller: formula selected: %s (%d intervals, %v)", f.Name, f.TotalIntervals(), f.TotalDuration())
	c.model.SetSelectedFormula(f)
	c.model.SetTimerState(timer.State())
}

// SelectFormulaIndex handles a selection from the formula list widget.
func (c *Controller) SelectFormulaIndex(index int) {
	formulas := c.model.Formulas()
	if index < 0 || index >= len(formulas) {
		c.logger.Printf("Controller: invalid formula index: %d", index)
		return
	}
	c.SelectFormula(formulas[index])
}

// listenToTimerState forwards timer snapshots into the model and keeps the
// restore snapshot file current.
func (c *Controller) listenToTimerState(f Formula, ch <-chan TimerState, quit <-chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-quit:
			return
		case state, ok := <-ch:
			if !ok {
				return
			}
			c.model.SetTimerState(state)
			if state.CurrentPhase == PhaseCompleted {
				c.snapshots.clear()
			} else {
				c.snapshots.save(timerSnapshotData{
					FormulaName:          f.Name,
					TimeRemainingSeconds: state.TimeRemainingSeconds,
					CurrentInterval:      state.CurrentInterval,
					CurrentPhase:         state.CurrentPhase.String(),
					IsRunning:            state.IsRunning,
				})
			}
		}
	}
}

// handlePhaseChange runs inline with the tick loop: it must stay quick.
// Announcement rendering is fire-and-forget inside the announcer; the
// completion edge additionally records the session.
func (c *Controller) handlePhaseChange(f Formula, phase Phase) {
	c.logger.Printf("Controller: phase change: %s", phase)
	c.phaseEvent.Notify(phase)

	if phase == PhaseCompleted {
		// The timer enters Completed exactly once per run, so this edge is
		// the one safe place to record the session.
		if _, err := c.store.InsertSession(c.ctx, f.Name, f.DurationMinutes(), time.Now()); err != nil {
			c.logger.Printf("Controller: failed to record session: %v", err)
		}
		c.snapshots.clear()
		c.RefreshHistory()
	}
}

func (c *Controller) handleIntervalComplete(f Formula) {
	c.logger.Printf("Controller: interval complete (%s)", f.Name)
}

// RefreshHistory reloads stats off the tick path and publishes them.
func (c *Controller) RefreshHistory() {
	c.wg.Add(1)
	go_func_utils.SafeGo(c.logger, func() {
		defer c.wg.Done()

		stats, err := c.store.Stats(c.ctx)
		if err != nil {
			c.logger.Printf("Controller: stats query failed: %v", err)
			return
		}
		recent, err := c.store.RecentSessions(c.ctx, 20)
		if err != nil {
			c.logger.Printf("Controller: recent sessions query failed: %v", err)
			return
		}
		daily, err := c.store.DailyCounts(c.ctx, 28)
		if err != nil {
			c.logger.Printf("Controller: daily counts query failed: %v", err)
			return
		}
		c.model.SetHistoryView(HistoryView{Stats: stats, Recent: recent, Daily: daily})
	})
}

func (c *Controller) currentTimer() *IntervalTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer
}

// StartWorkout starts or resumes the countdown
func (c *Controller) StartWorkout() {
	if t := c.currentTimer(); t != nil {
		t.Start()
	}
}

// PauseWorkout pauses the countdown in place
func (c *Controller) PauseWorkout() {
	if t := c.currentTimer(); t != nil {
		t.Pause()
	}
}

// ResetWorkout returns the timer to the formula's initial position
func (c *Controller) ResetWorkout() {
	if t := c.currentTimer(); t != nil {
		t.Reset()
	}
}

// ToggleWorkout starts, pauses, or resumes based on the current state
func (c *Controller) ToggleWorkout() {
	t := c.currentTimer()
	if t == nil {
		c.logger.Printf("Controller: no formula selected - pick one in Formula Selection mode (press 2)")
		return
	}
	if t.State().IsRunning {
		t.Pause()
	} else {
		t.Start()
	}
}

// OnModeChange handles when the user requests a mode change
func (c *Controller) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("Controller: switching to %s mode", info.DisplayName)
	}
	if mode == UIModeHistory {
		c.RefreshHistory()
	}
	c.model.SetMode(mode)
}

// OnEscapeKey handles when the Escape key is pressed
func (c *Controller) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// Shutdown stops the active timer and all controller goroutines
func (c *Controller) Shutdown() {
	c.cancel()
	if t := c.currentTimer(); t != nil {
		t.Dispose()
	}
	c.wg.Wait()
}
