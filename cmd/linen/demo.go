package main

import (
	"sync"
	"time"

	"github.com/SaxonRah/Linen/component"
	"github.com/SaxonRah/Linen/event"
	"github.com/SaxonRah/Linen/kernel"
	"github.com/SaxonRah/Linen/persist"
)

// eventTick is published by the heartbeat component once per second
const eventTick = "heartbeat.tick"

// registerDemoComponents wires the demo graph: a chronicle that depends on
// a heartbeat, with the chronicle's counters persisted across runs.
func registerDemoComponents(k *kernel.Kernel) error {
	if err := k.Register(newHeartbeat()); err != nil {
		return err
	}
	if err := k.Register(newChronicle()); err != nil {
		return err
	}
	// Loading the chronicle activates the heartbeat first
	if err := k.Load("chronicle"); err != nil {
		return err
	}
	return k.Persistence().RegisterForPersistence("chronicle")
}

// heartbeat publishes a tick event roughly once per second of accumulated
// update time.
type heartbeat struct {
	bus     *event.Bus
	elapsed time.Duration
}

func newHeartbeat() *heartbeat { return &heartbeat{} }

func (h *heartbeat) Name() string           { return "heartbeat" }
func (h *heartbeat) Dependencies() []string { return nil }

func (h *heartbeat) Initialize(deps component.Dependencies) error {
	h.bus = deps.Bus
	return nil
}

func (h *heartbeat) Shutdown() error { return nil }

func (h *heartbeat) Update(delta time.Duration) {
	h.elapsed += delta
	for h.elapsed >= time.Second {
		h.elapsed -= time.Second
		_ = h.bus.Publish(event.New(eventTick, time.Now().Unix()))
	}
}

// chronicle counts delivered ticks and persists the count, so restored
// runs continue where the previous one stopped.
type chronicle struct {
	mu    sync.Mutex
	ticks int64
}

func newChronicle() *chronicle { return &chronicle{} }

func (c *chronicle) Name() string           { return "chronicle" }
func (c *chronicle) Dependencies() []string { return []string{"heartbeat"} }

func (c *chronicle) Initialize(deps component.Dependencies) error {
	logger := deps.GetLoggerWithComponent("chronicle")
	return deps.Bus.Subscribe(eventTick, func(event.Event) {
		c.mu.Lock()
		c.ticks++
		ticks := c.ticks
		c.mu.Unlock()
		if ticks%10 == 0 {
			logger.Info("ticks observed", "count", ticks)
		}
	})
}

func (c *chronicle) Shutdown() error { return nil }

func (c *chronicle) SerializeBinary(w *persist.BinaryWriter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w.WriteInt64(c.ticks)
	return w.Err()
}

func (c *chronicle) DeserializeBinary(r *persist.BinaryReader) error {
	ticks := r.ReadInt64()
	if err := r.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticks = ticks
	return nil
}

func (c *chronicle) SerializeText(w *persist.TextWriter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w.WriteInt("ticks", int(c.ticks))
	return w.Err()
}

func (c *chronicle) DeserializeText(r *persist.TextReader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := r.Int("ticks"); ok {
		c.ticks = int64(v)
	}
	return nil
}
