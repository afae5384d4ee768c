// Package linen is an in-process component orchestration kernel: a
// registry that owns named, interdependent components, resolves their
// initialization and shutdown order from a declared dependency graph,
// routes typed messages between them through a priority-ordered
// publish/subscribe bus, and persists their state through interchangeable
// binary and text encodings.
//
// # Architecture
//
// Three packages form the core, leaves first:
//
//	┌─────────────────────────────────────┐
//	│             kernel                  │  Tick loop, wiring,
//	│      (Run, SaveGame, LoadGame)      │  graceful teardown
//	└─────────────────────────────────────┘
//	           ↓ orchestrates
//	┌──────────────┐  ┌─────────────────┐
//	│  component   │  │     persist     │  Registry + lifecycle,
//	│  (Registry)  │←─│    (Manager)    │  save/load records
//	└──────┬───────┘  └─────────────────┘
//	       ↓ delivers through
//	┌─────────────────────────────────────┐
//	│              event                  │  Typed pub/sub, priority
//	│              (Bus)                  │  tiers, filter scoping
//	└─────────────────────────────────────┘
//
// The event bus has no dependency on the other two. The registry is
// message-agnostic; it shares its bus with the components it loads. The
// persistence manager is itself a component that reaches other components
// through the registry by name.
//
// # Control flow
//
// A host loop calls the registry's UpdateAll once per tick. Every active
// component updates in dependency order, then the bus drains exactly
// once, so message effects become visible at the end of the tick and
// components get a consistent view within one tick. Events published by
// handlers during a drain are deferred to the next one.
//
// # Supporting packages
//
//   - errors: sentinel taxonomy with classified wrapping
//   - config: YAML configuration with validation and safe concurrent access
//   - metric: Prometheus metrics registry and HTTP endpoint
//   - testutil: reusable component fixtures for tests
//
// # Ownership
//
// All component instances are owned by a registry the host constructs;
// there are no package-level singletons. Collaborators reach a component
// through Get or the typed As helper on the registry handle they were
// given at Initialize time.
//
// # Binary
//
// cmd/linen is a demo host: it loads the YAML configuration, registers a
// small component graph, runs the tick loop until a signal arrives, and
// saves persisted state on shutdown.
package linen
