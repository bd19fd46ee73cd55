package events

import (
	"sync"
)

// CallbackEvent provides pub/sub behavior with type-safe callbacks.
// T is the type of the argument passed to callback functions.
type CallbackEvent[T any] struct {
	mu           sync.RWMutex
	listeners    map[uint64]func(T)
	nextID       uint64
	replayLatest bool
	latest       T
	hasNotified  bool
}

// NewCallbackEvent creates a new CallbackEvent instance.
// replayLatest: if true, the event remembers the last Notify argument and
// calls new listeners immediately with that value if Notify has been called
// at least once.
func NewCallbackEvent[T any](replayLatest bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{
		listeners:    make(map[uint64]func(T)),
		replayLatest: replayLatest,
	}
}

// Listen registers a callback to be called whenever Notify is invoked.
// Returns a deregistration function that removes the listener.
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = callback
	replay := e.replayLatest && e.hasNotified
	latest := e.latest
	e.mu.Unlock()

	// Replay outside the lock to avoid deadlock if the callback re-enters.
	if replay {
		callback(latest)
	}

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Notify calls all registered listener callbacks with the provided value.
// This operation is thread-safe.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.Lock()
	if e.replayLatest {
		e.latest = value
		e.hasNotified = true
	}
	callbacks := make([]func(T), 0, len(e.listeners))
	for _, callback := range e.listeners {
		callbacks = append(callbacks, callback)
	}
	e.mu.Unlock()

	// Invoke outside the lock so listeners can register/deregister freely.
	for _, callback := range callbacks {
		callback(value)
	}
}

// ListenerCount returns the current number of registered listeners.
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
