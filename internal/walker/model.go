package walker

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/interval-walk/interval-walk-app/internal/events"
	"github.com/lowaak/interval-walk/interval-walk-app/internal/go_func_utils"
	"github.com/lowaak/interval-walk/interval-walk-app/internal/history"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// HistoryView is the aggregated history data the history screen renders.
type HistoryView struct {
	Stats  history.Stats
	Recent []history.SessionRecord
	Daily  []history.DailyCount
}

// AppModel is the central observable hub: the controller writes timer state,
// formula selection and history data into it, views listen and render.
type AppModel struct {
	logEvent             *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent         *events.ChannelEvent[UIState]
	uiState              UIState
	timerStateEvent      *events.ChannelEvent[TimerState]
	timerState           TimerState
	selectedFormulaEvent *events.ChannelEvent[Formula]
	selectedFormula      Formula
	historyEvent         *events.ChannelEvent[HistoryView]
	historyView          HistoryView
	formulas             []Formula
	logLines             []string
	logMu                sync.RWMutex
	mu                   sync.RWMutex
	ctx                  context.Context
	cancel               context.CancelFunc
	wg                   sync.WaitGroup
	logger               *log.Logger
}

const maxLogLines = 1000

// NewAppModel creates the model. formulas is the full preset list (built-ins
// plus any user formula file entries); uiLogChan feeds the on-screen log pane.
func NewAppModel(formulas []Formula, logger *log.Logger, uiLogChan <-chan string) *AppModel {
	if logger == nil {
		panic("AppModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("AppModel: uiLogChan cannot be nil")
	}
	if len(formulas) == 0 {
		panic("AppModel: need at least one formula")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &AppModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeWorkout},
		timerStateEvent:       events.NewChannelEvent[TimerState](true),
		selectedFormulaEvent:  events.NewChannelEvent[Formula](true),
		historyEvent:          events.NewChannelEvent[HistoryView](true),
		formulas:              formulas,
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *AppModel) Shutdown() {
	m.logger.Println("AppModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("AppModel: Shutdown complete")
}

// Formulas returns the available formula presets.
func (m *AppModel) Formulas() []Formula {
	return m.formulas
}

// ListenToLog registers a channel to receive log messages
func (m *AppModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
func (m *AppModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *AppModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
func (m *AppModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *AppModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *AppModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToTimerState registers a channel to receive timer state updates
func (m *AppModel) ListenToTimerState(ch chan<- TimerState) func() {
	return m.timerStateEvent.Listen(ch)
}

// GetTimerState returns the current timer state snapshot
func (m *AppModel) GetTimerState() TimerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timerState
}

// SetTimerState updates the timer state and notifies listeners
func (m *AppModel) SetTimerState(state TimerState) {
	m.mu.Lock()
	m.timerState = state
	m.mu.Unlock()

	m.timerStateEvent.Notify(state)
}

// ListenToSelectedFormula registers a channel to receive formula selection changes
func (m *AppModel) ListenToSelectedFormula(ch chan<- Formula) func() {
	return m.selectedFormulaEvent.Listen(ch)
}

// GetSelectedFormula returns the currently selected formula
func (m *AppModel) GetSelectedFormula() Formula {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectedFormula
}

// SetSelectedFormula updates the selected formula and notifies listeners
func (m *AppModel) SetSelectedFormula(f Formula) {
	m.mu.Lock()
	m.selectedFormula = f
	m.mu.Unlock()

	m.selectedFormulaEvent.Notify(f)
}

// ListenToHistory registers a channel to receive history view updates
func (m *AppModel) ListenToHistory(ch chan<- HistoryView) func() {
	return m.historyEvent.Listen(ch)
}

// GetHistoryView returns the current history view data
func (m *AppModel) GetHistoryView() HistoryView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.historyView
}

// SetHistoryView updates the history view data and notifies listeners
func (m *AppModel) SetHistoryView(view HistoryView) {
	m.mu.Lock()
	m.historyView = view
	m.mu.Unlock()

	m.historyEvent.Notify(view)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *AppModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *AppModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
