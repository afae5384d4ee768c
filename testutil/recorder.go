package testutil

import (
	"sync"

	"github.com/SaxonRah/Linen/event"
)

// EventRecorder captures delivered events for verification. Safe for
// concurrent use; Handler is the function to pass to Subscribe.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// NewEventRecorder creates an empty recorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Handler records the delivered event
func (r *EventRecorder) Handler(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]event.Event(nil), r.events...)
}

// Payloads returns the recorded payloads in delivery order
func (r *EventRecorder) Payloads() []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]any, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Payload)
	}
	return out
}

// Count returns the number of recorded events
func (r *EventRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}

// Reset discards everything recorded so far
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}
