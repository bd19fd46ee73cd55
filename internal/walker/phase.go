package walker

import "fmt"

// Phase identifies which half of an interval the walker is in.
// PhaseCompleted is terminal - a timer never leaves it without a reset.
type Phase int

const (
	PhaseSlow Phase = iota
	PhaseFast
	PhaseCompleted
)

// parsePhase is the inverse of Phase.String, used when deserializing a
// persisted snapshot.
func parsePhase(s string) (Phase, error) {
	switch s {
	case "Slow":
		return PhaseSlow, nil
	case "Fast":
		return PhaseFast, nil
	case "Completed":
		return PhaseCompleted, nil
	default:
		return PhaseSlow, fmt.Errorf("unknown phase %q", s)
	}
}

func (p Phase) String() string {
	switch p {
	case PhaseSlow:
		return "Slow"
	case PhaseFast:
		return "Fast"
	case PhaseCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// TimerState is the externally observable snapshot of an IntervalTimer.
// It is replaced wholesale on every tick or transition, never mutated in
// place, so readers on other goroutines always see a consistent value.
//
// Invariants: ElapsedSeconds stays within [0, formula total];
// TimeRemainingSeconds is never negative; when CurrentPhase is
// PhaseCompleted, IsRunning is false, TimeRemainingSeconds is 0 and
// ElapsedSeconds equals the formula's total duration.
type TimerState struct {
	CurrentPhase         Phase
	TimeRemainingSeconds int
	CurrentInterval      int // 1-indexed once ticking has begun, 0 before
	TotalIntervals       int
	IsRunning            bool
	ElapsedSeconds       int
}
