package walker

import (
	"fmt"
	"time"
)

// PatternKind classifies how a formula maps onto the slow/fast engine.
type PatternKind int

const (
	// PatternInterval is the plain alternation: one set = one slow+fast pair.
	PatternInterval PatternKind = iota
	// PatternCircuit runs two slow/fast alternations per set, so the engine
	// sees twice as many intervals as the user-facing set count.
	PatternCircuit
)

func (k PatternKind) String() string {
	switch k {
	case PatternInterval:
		return "interval"
	case PatternCircuit:
		return "circuit"
	default:
		return "unknown"
	}
}

// Valid range for user-configurable phase durations (1 second to 60 minutes)
// and set counts.
const (
	MinPhaseSeconds = 1
	MaxPhaseSeconds = 3600
	MinSets         = 1
	MaxSets         = 99
)

// Formula is the immutable description of a training pattern. All derived
// quantities are computed on demand so they cannot drift from the inputs.
type Formula struct {
	Name           string
	Kind           PatternKind
	SlowSeconds    int
	FastSeconds    int
	Sets           int
	StartsWithFast bool
}

// TotalIntervals returns the number of slow+fast pairs the engine runs.
// Circuit patterns count two engine intervals per user-facing set.
func (f Formula) TotalIntervals() int {
	if f.Kind == PatternCircuit {
		return f.Sets * 2
	}
	return f.Sets
}

// TotalDurationSeconds returns the full workout length.
func (f Formula) TotalDurationSeconds() int {
	return (f.SlowSeconds + f.FastSeconds) * f.TotalIntervals()
}

// TotalDuration returns the full workout length as a time.Duration.
func (f Formula) TotalDuration() time.Duration {
	return time.Duration(f.TotalDurationSeconds()) * time.Second
}

// DurationMinutes returns the workout length in whole minutes, floor-rounded
// with a minimum of 1. This is the key the session recorder files completed
// workouts under.
func (f Formula) DurationMinutes() int {
	minutes := f.TotalDurationSeconds() / 60
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Validate checks the user-configurable ranges. The timer itself assumes a
// valid formula; validation is the host's job before construction.
func (f Formula) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("formula: name is required")
	}
	if f.SlowSeconds < MinPhaseSeconds || f.SlowSeconds > MaxPhaseSeconds {
		return fmt.Errorf("formula %q: slow duration %ds outside [%d, %d]", f.Name, f.SlowSeconds, MinPhaseSeconds, MaxPhaseSeconds)
	}
	if f.FastSeconds < MinPhaseSeconds || f.FastSeconds > MaxPhaseSeconds {
		return fmt.Errorf("formula %q: fast duration %ds outside [%d, %d]", f.Name, f.FastSeconds, MinPhaseSeconds, MaxPhaseSeconds)
	}
	if f.Sets < MinSets || f.Sets > MaxSets {
		return fmt.Errorf("formula %q: set count %d outside [%d, %d]", f.Name, f.Sets, MinSets, MaxSets)
	}
	if f.Kind != PatternInterval && f.Kind != PatternCircuit {
		return fmt.Errorf("formula %q: unknown pattern kind %d", f.Name, f.Kind)
	}
	return nil
}

// startPhase returns the phase and nominal duration interval 1 begins with.
func (f Formula) startPhase() (Phase, int) {
	if f.StartsWithFast {
		return PhaseFast, f.FastSeconds
	}
	return PhaseSlow, f.SlowSeconds
}

// AllFormulas defines the built-in training patterns. The classic interval
// walking protocol is 3 minutes slow / 3 minutes fast repeated 5 times.
var AllFormulas = []Formula{
	{
		Name:        "Interval Walking 3/3 x5",
		Kind:        PatternInterval,
		SlowSeconds: 180,
		FastSeconds: 180,
		Sets:        5,
	},
	{
		Name:        "Beginner 3/1 x5",
		Kind:        PatternInterval,
		SlowSeconds: 180,
		FastSeconds: 60,
		Sets:        5,
	},
	{
		Name:           "Brisk Start 2/3 x5",
		Kind:           PatternInterval,
		SlowSeconds:    120,
		FastSeconds:    180,
		Sets:           5,
		StartsWithFast: true,
	},
	{
		Name:        "Short Session 3/3 x3",
		Kind:        PatternInterval,
		SlowSeconds: 180,
		FastSeconds: 180,
		Sets:        3,
	},
	{
		Name:        "Walking Circuit 1/1 x4",
		Kind:        PatternCircuit,
		SlowSeconds: 60,
		FastSeconds: 60,
		Sets:        4,
	},
}
