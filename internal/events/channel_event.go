package events

import (
	"sync"
)

// ChannelEvent provides pub/sub behavior using channels.
// T is the type of the value sent to listener channels.
type ChannelEvent[T any] struct {
	mu           sync.RWMutex
	channels     map[uint64]chan<- T
	nextID       uint64
	replayLatest bool
	latest       T
	hasNotified  bool
}

// NewChannelEvent creates a new ChannelEvent instance.
// replayLatest: if true, the event remembers the last Notify argument and
// sends it to new listeners immediately if Notify has been called at least
// once.
func NewChannelEvent[T any](replayLatest bool) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		channels:     make(map[uint64]chan<- T),
		replayLatest: replayLatest,
	}
}

// Listen registers a channel to receive values whenever Notify is invoked.
// Returns a deregistration function that removes the listener.
func (e *ChannelEvent[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	replay := e.replayLatest && e.hasNotified
	latest := e.latest
	e.mu.Unlock()

	if replay {
		select {
		case ch <- latest:
		default:
			// Channel is full, skip the replay.
		}
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// Notify sends the provided value to all registered channels. Sends are
// non-blocking - a full channel is skipped rather than stalling the notifier.
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.replayLatest {
		e.latest = value
		e.hasNotified = true
	}
	channels := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		channels = append(channels, ch)
	}
	e.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- value:
		default:
		}
	}
}

// ListenerCount returns the current number of registered listeners.
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels)
}
