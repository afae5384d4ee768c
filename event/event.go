package event

import (
	"github.com/google/uuid"
)

// Priority determines delivery order during a drain. Higher tiers are
// delivered first; within a tier delivery is FIFO by enqueue order.
type Priority int

const (
	// PriorityLow is delivered after all other tiers
	PriorityLow Priority = iota
	// PriorityNormal is the default tier for published events
	PriorityNormal
	// PriorityHigh is delivered before Normal and Low
	PriorityHigh
	// PriorityCritical is delivered first
	PriorityCritical
)

// String returns the string representation of a Priority
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is an immutable typed message routed by the Bus.
//
// Type is the routing key: subscribers register against it and producers and
// consumers agree on the payload shape out-of-band. Filter optionally narrows
// delivery to handlers subscribed with the same filter value. The zero Filter
// means unfiltered.
type Event struct {
	// ID uniquely identifies this event instance. Assigned at creation.
	ID string
	// Type is the type tag used as the subscription key
	Type string
	// Payload carries the event data; its shape is defined per event type
	Payload any
	// Filter optionally scopes delivery ("" = global)
	Filter string
	// Priority selects the delivery tier during a drain
	Priority Priority
}

// New creates an event with a fresh ID and Normal priority
func New(eventType string, payload any) Event {
	return Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		Payload:  payload,
		Priority: PriorityNormal,
	}
}

// WithFilter returns a copy of the event scoped to the given filter tag
func (e Event) WithFilter(filter string) Event {
	e.Filter = filter
	return e
}

// WithPriority returns a copy of the event at the given priority tier
func (e Event) WithPriority(priority Priority) Event {
	e.Priority = priority
	return e
}
