package event

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/metric"
)

// Handler processes a single delivered event. Handlers run on the goroutine
// that calls Drain (or PublishImmediate) and must not block.
type Handler func(Event)

// Invoker delivers one event to one handler. A host may install an invoker
// with SetInvoker to isolate per-handler failures; the bus itself never
// contains handler panics, so without an invoker a panic propagates to the
// drain caller.
type Invoker func(Handler, Event)

// queuedEvent pairs an event with its enqueue sequence number so that drains
// can break priority ties FIFO.
type queuedEvent struct {
	event Event
	seq   uint64
}

// Bus routes typed events from producers to subscribed handlers.
//
// Publish defers delivery to the next Drain; PublishImmediate invokes
// matching handlers synchronously. Subscriber tables and the pending queue
// are guarded by a single mutex shared across Subscribe, Publish and Drain.
// The handler set invoked during a drain is a snapshot taken under that lock
// and executed without holding it, so handlers may publish or subscribe
// without deadlocking. Events published from inside a handler are queued for
// a subsequent drain, never delivered recursively within the same one.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]Handler            // global handlers by type tag
	filtered map[string]map[string][]Handler // type tag -> filter -> handlers
	pending  []queuedEvent
	seq      uint64
	invoker  Invoker

	logger  *slog.Logger
	metrics *metric.Metrics
}

// NewBus creates an empty event bus. Logger and metrics may be nil.
func NewBus(logger *slog.Logger, metrics *metric.Metrics) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		filtered: make(map[string]map[string][]Handler),
		logger:   logger.With("component", "EventBus"),
		metrics:  metrics,
	}
}

// SetInvoker installs the delivery wrapper used for every handler
// invocation during Drain and PublishImmediate. The registry installs one
// that recovers per-handler panics, so one failing handler never discards
// the rest of a drained batch.
func (b *Bus) SetInvoker(inv Invoker) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.invoker = inv
}

// Subscribe registers a handler for every event of the given type tag,
// regardless of the event's filter. Handlers for the same tag run in
// registration order.
func (b *Bus) Subscribe(eventType string, handler Handler) error {
	if eventType == "" {
		return errors.WrapInvalid(errors.ErrEmptyType, "EventBus", "Subscribe", "type tag validation")
	}
	if handler == nil {
		return errors.WrapInvalid(errors.ErrNilHandler, "EventBus", "Subscribe", "handler validation")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeWithFilter registers a handler for events of the given type tag
// published with a matching filter value. An empty filter is equivalent to
// Subscribe.
func (b *Bus) SubscribeWithFilter(eventType, filter string, handler Handler) error {
	if filter == "" {
		return b.Subscribe(eventType, handler)
	}
	if eventType == "" {
		return errors.WrapInvalid(errors.ErrEmptyType, "EventBus", "SubscribeWithFilter", "type tag validation")
	}
	if handler == nil {
		return errors.WrapInvalid(errors.ErrNilHandler, "EventBus", "SubscribeWithFilter", "handler validation")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	byFilter, ok := b.filtered[eventType]
	if !ok {
		byFilter = make(map[string][]Handler)
		b.filtered[eventType] = byFilter
	}
	byFilter[filter] = append(byFilter[filter], handler)
	return nil
}

// Publish enqueues a copy of the event for deferred delivery on the next
// Drain. It never blocks and never invokes handlers synchronously. Safe to
// call from any goroutine, including from inside a handler.
func (b *Bus) Publish(e Event) error {
	if e.Type == "" {
		return errors.WrapInvalid(errors.ErrEmptyType, "EventBus", "Publish", "type tag validation")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	b.mu.Lock()
	b.pending = append(b.pending, queuedEvent{event: e, seq: b.seq})
	b.seq++
	depth := len(b.pending)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.EventsPublished.WithLabelValues(e.Priority.String()).Inc()
		b.metrics.EventQueueDepth.Set(float64(depth))
	}
	return nil
}

// PublishImmediate invokes all matching handlers synchronously, bypassing the
// pending queue. Global handlers for the type tag run first, then handlers
// registered with the event's filter. Use only where causal ordering relative
// to the caller's continuation matters more than batching.
func (b *Bus) PublishImmediate(e Event) error {
	if e.Type == "" {
		return errors.WrapInvalid(errors.ErrEmptyType, "EventBus", "PublishImmediate", "type tag validation")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	b.mu.Lock()
	targets := b.snapshotHandlers(e)
	inv := b.invoker
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.EventsPublished.WithLabelValues(e.Priority.String()).Inc()
		b.metrics.EventsDelivered.WithLabelValues(e.Priority.String()).Inc()
	}

	for _, h := range targets {
		b.deliver(inv, h, e)
	}
	return nil
}

// Drain atomically swaps out the entire pending queue and delivers every
// queued event in priority order (Critical first), FIFO within a tier. For
// each event, global handlers run before filtered ones. Events published by
// handlers during the drain are queued for the next call. Returns the number
// of events delivered.
func (b *Bus) Drain() int {
	start := time.Now()

	b.mu.Lock()
	batch := b.pending
	b.pending = nil

	// Snapshot handler tables so subscriptions made by handlers during this
	// drain only affect the next one.
	targets := make([][]Handler, len(batch))
	for i := range batch {
		targets[i] = b.snapshotHandlers(batch[i].event)
	}
	inv := b.invoker
	b.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	order := make([]int, len(batch))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool {
		a, c := batch[order[x]], batch[order[y]]
		if a.event.Priority != c.event.Priority {
			return a.event.Priority > c.event.Priority
		}
		return a.seq < c.seq
	})

	for _, idx := range order {
		e := batch[idx].event
		for _, h := range targets[idx] {
			b.deliver(inv, h, e)
		}
		if b.metrics != nil {
			b.metrics.EventsDelivered.WithLabelValues(e.Priority.String()).Inc()
		}
	}

	if b.metrics != nil {
		b.metrics.EventQueueDepth.Set(float64(b.Pending()))
		b.metrics.DrainDuration.Observe(time.Since(start).Seconds())
	}
	b.logger.Debug("drained event queue", "events", len(batch))

	return len(batch)
}

// deliver runs one handler invocation through the installed invoker
func (b *Bus) deliver(inv Invoker, h Handler, e Event) {
	if inv != nil {
		inv(h, e)
		return
	}
	h(e)
}

// Pending returns the number of events awaiting the next drain
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// snapshotHandlers collects the handlers matching an event: global handlers
// for its type tag first, then handlers registered with its filter value.
// Caller must hold b.mu.
func (b *Bus) snapshotHandlers(e Event) []Handler {
	global := b.handlers[e.Type]
	var scoped []Handler
	if e.Filter != "" {
		if byFilter, ok := b.filtered[e.Type]; ok {
			scoped = byFilter[e.Filter]
		}
	}

	if len(global) == 0 && len(scoped) == 0 {
		return nil
	}
	out := make([]Handler, 0, len(global)+len(scoped))
	out = append(out, global...)
	out = append(out, scoped...)
	return out
}
