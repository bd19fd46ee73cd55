package walker

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-walk/interval-walk-app/internal/history"
)

// recordingAnnouncer collects announced phrases for assertions.
type recordingAnnouncer struct {
	mu      sync.Mutex
	phrases []string
}

func (r *recordingAnnouncer) Announce(phrase string) {
	r.mu.Lock()
	r.phrases = append(r.phrases, phrase)
	r.mu.Unlock()
}

func (r *recordingAnnouncer) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.phrases...)
}

type controllerFixture struct {
	model      *AppModel
	store      *history.Store
	announcer  *recordingAnnouncer
	controller *Controller
	stateDir   string
}

func newControllerFixture(t *testing.T, formulas []Formula) *controllerFixture {
	t.Helper()
	stateDir := t.TempDir()
	logger := testLogger()

	store, err := history.Open(filepath.Join(stateDir, "sessions.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logChan := make(chan string, 64)
	model := NewAppModel(formulas, logger, logChan)
	t.Cleanup(model.Shutdown)

	announcer := &recordingAnnouncer{}
	controller := NewController(model, store, announcer, stateDir, logger)
	t.Cleanup(controller.Shutdown)

	return &controllerFixture{
		model:      model,
		store:      store,
		announcer:  announcer,
		controller: controller,
		stateDir:   stateDir,
	}
}

func TestController_BootstrapSelectsFirstFormula(t *testing.T) {
	fx := newControllerFixture(t, AllFormulas)
	fx.controller.Bootstrap()

	assert.Equal(t, AllFormulas[0], fx.model.GetSelectedFormula())
	state := fx.model.GetTimerState()
	assert.Equal(t, PhaseSlow, state.CurrentPhase)
	assert.Equal(t, AllFormulas[0].SlowSeconds, state.TimeRemainingSeconds)
	assert.False(t, state.IsRunning)
}

func TestController_SelectFormulaIndex(t *testing.T) {
	fx := newControllerFixture(t, AllFormulas)
	fx.controller.Bootstrap()

	fx.controller.SelectFormulaIndex(1)
	assert.Equal(t, AllFormulas[1], fx.model.GetSelectedFormula())

	// Out of range is ignored
	fx.controller.SelectFormulaIndex(-1)
	fx.controller.SelectFormulaIndex(len(AllFormulas))
	assert.Equal(t, AllFormulas[1], fx.model.GetSelectedFormula())
}

func TestController_ToggleStartsAndAnnounces(t *testing.T) {
	fx := newControllerFixture(t, AllFormulas)
	fx.controller.Bootstrap()

	fx.controller.ToggleWorkout()
	require.Eventually(t, func() bool {
		return fx.model.GetTimerState().IsRunning
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Slow pace"}, fx.announcer.all())

	fx.controller.ToggleWorkout()
	require.Eventually(t, func() bool {
		return !fx.model.GetTimerState().IsRunning
	}, time.Second, 5*time.Millisecond)
}

// TestController_CompletionRecordsSessionOnce runs a real 2-second workout and
// checks the single completion edge: announcement, session row, snapshot gone.
func TestController_CompletionRecordsSessionOnce(t *testing.T) {
	tiny := []Formula{{Name: "Tiny", Kind: PatternInterval, SlowSeconds: 1, FastSeconds: 1, Sets: 1}}
	fx := newControllerFixture(t, tiny)
	fx.controller.Bootstrap()

	fx.controller.StartWorkout()

	require.Eventually(t, func() bool {
		return fx.model.GetTimerState().CurrentPhase == PhaseCompleted
	}, 10*time.Second, 20*time.Millisecond, "workout should complete")

	var sessions []history.SessionRecord
	require.Eventually(t, func() bool {
		var err error
		sessions, err = fx.store.RecentSessions(context.Background(), 10)
		return err == nil && len(sessions) > 0
	}, 2*time.Second, 20*time.Millisecond)

	require.Len(t, sessions, 1, "completion must be recorded exactly once")
	assert.Equal(t, "Tiny", sessions[0].FormulaName)
	assert.Equal(t, 1, sessions[0].DurationMinutes)

	phrases := fx.announcer.all()
	completions := 0
	for _, p := range phrases {
		if p == AnnouncementPhrase(PhaseCompleted) {
			completions++
		}
	}
	assert.Equal(t, 1, completions)

	// The restore snapshot is cleared on completion
	assert.Eventually(t, func() bool {
		_, ok := newSnapshotStore(fx.stateDir, testLogger()).load()
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestController_SnapshotRestoreAcrossRestart(t *testing.T) {
	fx := newControllerFixture(t, AllFormulas)
	fx.controller.Bootstrap()

	fx.controller.StartWorkout()
	require.Eventually(t, func() bool {
		return fx.model.GetTimerState().ElapsedSeconds >= 1
	}, 5*time.Second, 20*time.Millisecond)
	fx.controller.PauseWorkout()
	require.Eventually(t, func() bool {
		return !fx.model.GetTimerState().IsRunning
	}, time.Second, 5*time.Millisecond)

	paused := fx.model.GetTimerState()

	// The snapshot writer runs behind the state listener; wait until the
	// paused position has hit the disk.
	var snapshot timerSnapshotData
	require.Eventually(t, func() bool {
		data, ok := newSnapshotStore(fx.stateDir, testLogger()).load()
		snapshot = data
		return ok && !data.IsRunning
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, AllFormulas[0].Name, snapshot.FormulaName)

	fx.controller.Shutdown()

	// A fresh controller over the same state dir resumes from the snapshot
	logChan := make(chan string, 64)
	model2 := NewAppModel(AllFormulas, testLogger(), logChan)
	t.Cleanup(model2.Shutdown)
	controller2 := NewController(model2, fx.store, &recordingAnnouncer{}, fx.stateDir, testLogger())
	t.Cleanup(controller2.Shutdown)
	controller2.Bootstrap()

	restored := model2.GetTimerState()
	assert.Equal(t, paused.CurrentPhase, restored.CurrentPhase)
	assert.Equal(t, paused.TimeRemainingSeconds, restored.TimeRemainingSeconds)
	assert.Equal(t, paused.CurrentInterval, restored.CurrentInterval)
	assert.False(t, restored.IsRunning)
}

func TestController_ResetReannounces(t *testing.T) {
	fx := newControllerFixture(t, AllFormulas)
	fx.controller.Bootstrap()

	fx.controller.StartWorkout()
	require.Eventually(t, func() bool {
		return len(fx.announcer.all()) == 1
	}, time.Second, 5*time.Millisecond)

	fx.controller.ResetWorkout()
	require.Eventually(t, func() bool {
		return len(fx.announcer.all()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Slow pace", "Slow pace"}, fx.announcer.all())

	state := fx.model.GetTimerState()
	assert.False(t, state.IsRunning)
	assert.Equal(t, 0, state.ElapsedSeconds)
}

func TestController_ListenToPhaseChanges(t *testing.T) {
	fx := newControllerFixture(t, AllFormulas)
	fx.controller.Bootstrap()

	var mu sync.Mutex
	var phases []Phase
	unlisten := fx.controller.ListenToPhaseChanges(func(p Phase) {
		mu.Lock()
		phases = append(phases, p)
		mu.Unlock()
	})
	defer unlisten()

	fx.controller.StartWorkout()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(phases) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []Phase{PhaseSlow}, phases)
	mu.Unlock()
}

func TestController_ModeChangeUpdatesModel(t *testing.T) {
	fx := newControllerFixture(t, AllFormulas)
	fx.controller.Bootstrap()

	fx.controller.OnModeChange(UIModeHistory)
	assert.Equal(t, UIModeHistory, fx.model.GetUIState().Mode)

	// History mode triggers an async refresh; the sticky event delivers it
	ch := make(chan HistoryView, 4)
	unlisten := fx.model.ListenToHistory(ch)
	defer unlisten()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for history refresh")
	}
}

func TestController_RefreshHistoryPublishesStats(t *testing.T) {
	fx := newControllerFixture(t, AllFormulas)
	_, err := fx.store.InsertSession(context.Background(), "Seeded", 30, time.Now())
	require.NoError(t, err)

	fx.controller.RefreshHistory()

	require.Eventually(t, func() bool {
		view := fx.model.GetHistoryView()
		return view.Stats.TotalSessions == 1 && len(view.Recent) == 1
	}, 2*time.Second, 10*time.Millisecond)

	view := fx.model.GetHistoryView()
	assert.Equal(t, 30, view.Stats.TotalMinutes)
	assert.Equal(t, "Seeded", view.Recent[0].FormulaName)
	assert.Len(t, view.Daily, 28)
}
