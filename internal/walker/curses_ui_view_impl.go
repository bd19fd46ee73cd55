package walker

import (
	"fmt"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Page names for tview.Pages
const (
	pageWorkout          = "workout"
	pageFormulaSelection = "formula_selection"
	pageHistory          = "history"
)

// Progress bar characters for the phase countdown
const (
	timerBarFilledChar = "⣶"
	timerBarEmptyChar  = "⡀"
	timerBarWidth      = 24
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *AppModel
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Workout mode components
	workoutFlex       *tview.Flex
	workoutTabWidgets []*tview.Box
	countdownPanel    *tview.TextView
	formulaPanel      *tview.TextView

	// Formula Selection mode components
	selectionFlex       *tview.Flex
	selectionTabWidgets []*tview.Box
	formulaList         *tview.List
	formulaDetailsPanel *tview.TextView
	formulas            []Formula // Available formulas
	selectedFormula     Formula   // Formula the workout screen is showing

	// History mode components
	historyFlex       *tview.Flex
	historyTabWidgets []*tview.Box
	statsPanel        *tview.TextView
	calendarPanel     *tview.TextView
	recentPanel       *tview.TextView
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *AppModel) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeWorkout,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *Controller) {
	// Create shared log view
	// Note: Don't use SetChangedFunc with app.Draw() - it can cause hangs during shutdown
	// when the app has been stopped but log messages are still being written.
	// The BaseUIView's event listeners already call Draw() after updating content.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	// Create pages container for mode switching
	ui.pages = tview.NewPages()

	// Initialize each mode
	ui.initWorkoutMode(controller)
	ui.initFormulaSelectionMode(controller)
	ui.initHistoryMode(controller)

	// Add pages
	ui.pages.AddPage(pageWorkout, ui.workoutFlex, true, true)
	ui.pages.AddPage(pageFormulaSelection, ui.selectionFlex, true, false)
	ui.pages.AddPage(pageHistory, ui.historyFlex, true, false)

	// Create main layout: pages on left, logs on right
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	// Set initial focus
	ui.setFocusForCurrentMode()
}

// initWorkoutMode sets up the Workout mode UI
func (ui *CursesUIViewImpl) initWorkoutMode(controller *Controller) {
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText("[yellow]Space[white] Start/Pause  |  [yellow]R[white] Reset  |  [yellow]Esc[white] Quit\n[yellow]1[white] Workout  |  [yellow]2[white] Formulas  |  [yellow]3[white] History")

	ui.countdownPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.countdownPanel.SetBorder(true).SetTitle(" Countdown ")
	ui.updateCountdownDisplay(TimerState{})

	ui.formulaPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.formulaPanel.SetBorder(true).SetTitle(" Formula ")
	ui.updateFormulaPanelDisplay(Formula{})

	ui.workoutTabWidgets = append(ui.workoutTabWidgets, ui.countdownPanel.Box)
	ui.workoutTabWidgets = append(ui.workoutTabWidgets, ui.formulaPanel.Box)

	ui.workoutFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(ui.countdownPanel, 0, 3, true).
		AddItem(ui.formulaPanel, 0, 1, false)
}

// initFormulaSelectionMode sets up the Formula Selection mode UI
func (ui *CursesUIViewImpl) initFormulaSelectionMode(controller *Controller) {
	ui.formulaList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Formula selected: index=%d, name=%s", index, mainText)
			controller.SelectFormulaIndex(index)
			controller.OnModeChange(UIModeWorkout)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			// Update details panel when selection changes
			ui.updateFormulaDetailsDisplay(index)
		})
	ui.formulaList.SetBorder(true).SetTitle(" Formulas ")

	ui.formulaDetailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.formulaDetailsPanel.SetBorder(true).SetTitle(" Formula Details ")
	ui.updateFormulaDetailsDisplay(-1) // Initialize with no selection

	ui.selectionTabWidgets = append(ui.selectionTabWidgets, ui.formulaList.Box)
	ui.selectionTabWidgets = append(ui.selectionTabWidgets, ui.formulaDetailsPanel.Box)

	ui.selectionFlex = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.formulaList, 0, 1, true).
		AddItem(ui.formulaDetailsPanel, 0, 1, false)
}

// initHistoryMode sets up the History mode UI
func (ui *CursesUIViewImpl) initHistoryMode(controller *Controller) {
	ui.statsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.statsPanel.SetBorder(true).SetTitle(" Statistics ")

	ui.calendarPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.calendarPanel.SetBorder(true).SetTitle(" Last 4 Weeks ")

	ui.recentPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.recentPanel.SetBorder(true).SetTitle(" Recent Sessions ")

	ui.updateHistoryDisplay(HistoryView{})

	ui.historyTabWidgets = append(ui.historyTabWidgets, ui.statsPanel.Box)
	ui.historyTabWidgets = append(ui.historyTabWidgets, ui.calendarPanel.Box)
	ui.historyTabWidgets = append(ui.historyTabWidgets, ui.recentPanel.Box)

	leftColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.statsPanel, 0, 1, true).
		AddItem(ui.calendarPanel, 0, 2, false)

	ui.historyFlex = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(leftColumn, 0, 1, true).
		AddItem(ui.recentPanel, 0, 1, false)
}

// SetFormulaList populates the formula selection list
func (ui *CursesUIViewImpl) SetFormulaList(formulas []Formula) {
	ui.formulas = formulas
	ui.formulaList.Clear()

	for _, f := range formulas {
		detail := fmt.Sprintf("%s slow / %s fast x%d (%s)",
			formatSecondsShort(f.SlowSeconds), formatSecondsShort(f.FastSeconds), f.Sets, formatSecondsShort(f.TotalDurationSeconds()))
		ui.formulaList.AddItem(f.Name, detail, 0, nil)
	}

	// Update details for first item if list is not empty
	if len(formulas) > 0 {
		ui.updateFormulaDetailsDisplay(0)
	}
}

// updateFormulaDetailsDisplay formats and displays the formula details
func (ui *CursesUIViewImpl) updateFormulaDetailsDisplay(index int) {
	if ui.formulaDetailsPanel == nil {
		return
	}

	var text string

	if index < 0 || index >= len(ui.formulas) {
		text = "\n\n  [yellow]Formula Selection[white]\n\n"
		text += "  Select a formula from the list to view details.\n\n"
		text += "  [gray]Press Enter to train with the selected formula.[white]\n"
	} else {
		f := ui.formulas[index]
		text = "\n"
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", f.Name)
		text += fmt.Sprintf("  [gray]Pattern:[white]   %s\n", f.Kind)
		text += fmt.Sprintf("  [gray]Slow:[white]      %s\n", formatSecondsShort(f.SlowSeconds))
		text += fmt.Sprintf("  [gray]Fast:[white]      %s\n", formatSecondsShort(f.FastSeconds))
		text += fmt.Sprintf("  [gray]Sets:[white]      %d (%d intervals)\n", f.Sets, f.TotalIntervals())
		text += fmt.Sprintf("  [gray]Duration:[white]  %s\n", formatSecondsShort(f.TotalDurationSeconds()))
		if f.StartsWithFast {
			text += "\n  [gray]Starts with the fast phase.[white]\n"
		}
		text += "\n  [green]Press Enter to train with this formula[white]\n"
	}

	ui.formulaDetailsPanel.SetText(text)
}

// UpdateTimerState updates the countdown display
func (ui *CursesUIViewImpl) UpdateTimerState(state TimerState) {
	ui.updateCountdownDisplay(state)
}

// updateCountdownDisplay formats and displays the timer state
func (ui *CursesUIViewImpl) updateCountdownDisplay(state TimerState) {
	if ui.countdownPanel == nil {
		return
	}

	var text string
	text = "\n"

	switch {
	case state.CurrentPhase == PhaseCompleted:
		text += "\n[green]WORKOUT COMPLETE[white]\n\n"
		text += fmt.Sprintf("%d intervals, %s\n\n", state.TotalIntervals, formatSecondsMMSS(state.ElapsedSeconds))
		text += "[gray]Press Space to start again[white]\n"

	case state.CurrentInterval == 0:
		text += fmt.Sprintf("\n[yellow]%s[white]\n\n", state.CurrentPhase)
		text += fmt.Sprintf("[white]%s[white]\n\n", formatSecondsMMSS(state.TimeRemainingSeconds))
		text += "[green]Ready to start[white]\n\n"
		text += "[gray]Press Space to begin[white]\n"

	default:
		phaseColor := "green"
		if state.CurrentPhase == PhaseFast {
			phaseColor = "red"
		}
		text += fmt.Sprintf("\n[%s]%s[white]", phaseColor, strings.ToUpper(state.CurrentPhase.String()))
		if !state.IsRunning {
			text += " [gray](PAUSED)[white]"
		}
		text += "\n\n"
		text += fmt.Sprintf("[yellow]%s[white]\n\n", formatSecondsMMSS(state.TimeRemainingSeconds))
		text += ui.phaseProgressBar(state) + "\n\n"
		text += fmt.Sprintf("Interval [yellow]%d[white] of [yellow]%d[white]\n", state.CurrentInterval, state.TotalIntervals)
		text += fmt.Sprintf("[gray]Elapsed %s[white]\n", formatSecondsMMSS(state.ElapsedSeconds))
	}

	ui.countdownPanel.SetText(text)
}

// phaseProgressBar renders how far into the current sub-phase the walker is
func (ui *CursesUIViewImpl) phaseProgressBar(state TimerState) string {
	phaseDuration := ui.selectedFormula.SlowSeconds
	if state.CurrentPhase == PhaseFast {
		phaseDuration = ui.selectedFormula.FastSeconds
	}
	filled := 0
	if phaseDuration > 0 {
		filled = timerBarWidth * (phaseDuration - state.TimeRemainingSeconds) / phaseDuration
	}
	if filled < 0 {
		filled = 0
	}
	if filled > timerBarWidth {
		filled = timerBarWidth
	}
	return "[gray]" + strings.Repeat(timerBarFilledChar, filled) + strings.Repeat(timerBarEmptyChar, timerBarWidth-filled) + "[white]"
}

// UpdateSelectedFormula updates the formula shown on the workout screen
func (ui *CursesUIViewImpl) UpdateSelectedFormula(f Formula) {
	ui.selectedFormula = f
	ui.updateFormulaPanelDisplay(f)
}

func (ui *CursesUIViewImpl) updateFormulaPanelDisplay(f Formula) {
	if ui.formulaPanel == nil {
		return
	}

	var text string
	if f.Name == "" {
		text = "\n  [gray]No formula selected[white]\n\n"
		text += "  Go to Formula Selection (press 2) to pick one.\n"
	} else {
		text = "\n"
		text += fmt.Sprintf("  [yellow]%s[white]\n", f.Name)
		text += fmt.Sprintf("  [gray]%s slow / %s fast, %d sets, %s total[white]\n",
			formatSecondsShort(f.SlowSeconds), formatSecondsShort(f.FastSeconds), f.Sets, formatSecondsShort(f.TotalDurationSeconds()))
	}
	ui.formulaPanel.SetText(text)
}

// UpdateHistory updates the statistics and calendar display
func (ui *CursesUIViewImpl) UpdateHistory(view HistoryView) {
	ui.updateHistoryDisplay(view)
}

func (ui *CursesUIViewImpl) updateHistoryDisplay(view HistoryView) {
	if ui.statsPanel == nil {
		return
	}

	statsText := "\n"
	statsText += fmt.Sprintf("  [gray]Workouts:[white]  [yellow]%d[white]\n", view.Stats.TotalSessions)
	statsText += fmt.Sprintf("  [gray]Minutes:[white]   [yellow]%d[white]\n", view.Stats.TotalMinutes)
	statsText += fmt.Sprintf("  [gray]Streak:[white]    [yellow]%d[white] days\n", view.Stats.CurrentStreakDays)
	ui.statsPanel.SetText(statsText)

	// Calendar: one week per row, a filled cell per day with sessions.
	calText := "\n"
	for i, day := range view.Daily {
		if i > 0 && i%7 == 0 {
			calText += "\n"
		}
		if day.Sessions > 0 {
			calText += fmt.Sprintf(" [green]%2d[white]", day.Sessions)
		} else {
			calText += " [gray] ·[white]"
		}
	}
	calText += "\n"
	ui.calendarPanel.SetText(calText)

	recentText := "\n"
	if len(view.Recent) == 0 {
		recentText += "  [gray]No sessions recorded yet.[white]\n"
	} else {
		for _, rec := range view.Recent {
			recentText += fmt.Sprintf("  [gray]%s[white]  %3d min  %s\n",
				rec.CompletedAt.Format("2006-01-02 15:04"), rec.DurationMinutes, rec.FormulaName)
		}
	}
	ui.recentPanel.SetText(recentText)
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeWorkout:
		ui.pages.SwitchToPage(pageWorkout)
	case UIModeFormulaSelection:
		ui.pages.SwitchToPage(pageFormulaSelection)
	case UIModeHistory:
		ui.pages.SwitchToPage(pageHistory)
	}

	ui.setFocusForCurrentMode()
	ui.app.Draw()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	widgets := ui.getTabWidgetsForCurrentMode()
	if len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// getTabWidgetsForCurrentMode returns the tab widgets for the current mode
func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeWorkout:
		return ui.workoutTabWidgets
	case UIModeFormulaSelection:
		return ui.selectionTabWidgets
	case UIModeHistory:
		return ui.historyTabWidgets
	default:
		return nil
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *Controller) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Number keys for mode switching (1-9)
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// Delegate to controller - it will update the model, which will notify us
				controller.OnModeChange(mode)
				return nil
			}
		}

		// Tab to switch focus between widgets in current mode
		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			widgetCount := len(widgets)
			if widgetCount > 0 {
				for i := 0; i < widgetCount+1; i++ {
					idx := i % widgetCount
					if widgets[idx].HasFocus() {
						nextIdx := (idx + 1) % widgetCount
						ui.app.SetFocus(widgets[nextIdx])
						break
					}
				}
			}
			return nil
		}

		// Escape to quit
		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		// Mode-specific key handlers
		if ui.currentMode == UIModeWorkout {
			// Space to start/pause the workout
			if event.Key() == tcell.KeyRune && event.Rune() == ' ' {
				controller.ToggleWorkout()
				return nil
			}
			// 'r' to reset the workout
			if event.Key() == tcell.KeyRune && event.Rune() == 'r' {
				controller.ResetWorkout()
				return nil
			}
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, line)
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}

// formatSecondsMMSS formats whole seconds as MM:SS
func formatSecondsMMSS(totalSeconds int) string {
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// formatSecondsShort formats whole seconds compactly ("45s", "3m", "3m30s")
func formatSecondsShort(totalSeconds int) string {
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
