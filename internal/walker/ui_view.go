package walker

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *Controller)

	// SetupKeyboardHandlers sets up keyboard event handlers
	// controller is used to handle keyboard events
	SetupKeyboardHandlers(controller *Controller)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Mode Management ---

	// SetMode switches the UI to the specified mode
	SetMode(mode UIMode)

	// GetCurrentMode returns the currently active UI mode
	GetCurrentMode() UIMode

	// --- Log View (shared across modes) ---

	// GetLogViewHeight returns the visible height of the log view
	GetLogViewHeight() int

	// ClearLogView clears the log view
	ClearLogView()

	// WriteLogLine writes a line to the log view
	WriteLogLine(line string) error

	// --- Workout Mode ---

	// UpdateTimerState updates the countdown display
	UpdateTimerState(state TimerState)

	// UpdateSelectedFormula updates the formula shown on the workout screen
	UpdateSelectedFormula(f Formula)

	// --- Formula Selection Mode ---

	// SetFormulaList populates the formula selection list
	SetFormulaList(formulas []Formula)

	// --- History Mode ---

	// UpdateHistory updates the statistics and calendar display
	UpdateHistory(view HistoryView)
}
