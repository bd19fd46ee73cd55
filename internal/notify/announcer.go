// Package notify renders phase-change signals as speech and terminal haptics.
// Delivery is fire-and-forget: the timer never learns whether an announcement
// actually reached the user, and a slow announcer must never block ticking.
package notify

// Announcer receives the phrase for a phase transition. Implementations must
// return quickly; anything slow (spawning a TTS process) happens on a
// background goroutine.
type Announcer interface {
	Announce(phrase string)
}

// NopAnnouncer discards announcements. Used when the user has switched a
// channel off.
type NopAnnouncer struct{}

func (NopAnnouncer) Announce(string) {}

// MultiAnnouncer fans an announcement out to several channels (speech plus
// bell, typically).
type MultiAnnouncer []Announcer

func (m MultiAnnouncer) Announce(phrase string) {
	for _, a := range m {
		a.Announce(phrase)
	}
}
