package walker

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeWorkout          UIMode = iota // Live countdown and workout controls
	UIModeFormulaSelection               // Formula selection and management
	UIModeHistory                        // Session history and statistics
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeWorkout, DisplayName: "Workout", KeyBinding: '1'},
	{Mode: UIModeFormulaSelection, DisplayName: "Formula Selection", KeyBinding: '2'},
	{Mode: UIModeHistory, DisplayName: "History", KeyBinding: '3'},
}

// GetUIModeInfo returns the display info for a mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// GetUIModeByKey returns the mode bound to a number key, if any
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return UIModeWorkout, false
}

// AnnouncementPhrase returns the spoken cue for entering a phase.
func AnnouncementPhrase(p Phase) string {
	switch p {
	case PhaseSlow:
		return "Slow pace"
	case PhaseFast:
		return "Fast pace"
	case PhaseCompleted:
		return "Workout complete. Well done."
	default:
		return ""
	}
}
