// Package component provides the core component infrastructure for the
// Linen kernel: the component contract, lifecycle states, and the Registry
// that owns instances, resolves dependency order, and drives per-tick
// updates.
//
// # Overview
//
// A component is a named unit of behavior with declared dependencies on
// other components, an initialize/shutdown pair, and an optional per-tick
// Update hook. The Registry is the only owner of component instances:
// collaborators reach a component through Get (or the typed As helper),
// never through package-level singletons.
//
// # Lifecycle
//
// Registered components are inert until loaded. Load initializes the
// component's transitive dependencies first, failing if any declared
// dependency is not registered. Unload is guarded: while an active
// component lists the target as a dependency, the unload is refused.
// Teardown shuts everything down in reverse initialization order.
//
//	registry := component.NewRegistry(bus, logger, metrics)
//	_ = registry.Register(questSystem)   // depends on "progression"
//	_ = registry.Register(progression)
//	_ = registry.Load("quests")          // loads "progression" first
//
// # Dependency order
//
// Every registration recomputes the global initialization order with a
// depth-first topological sort. Cycle detection runs first, using an
// explicit recursion stack; a cycle is reported through the registry's
// logger and leaves the previous order in effect rather than producing a
// partial one.
//
// # Ticking
//
// The host calls UpdateAll once per tick. Active components update in
// initialization order, then the event bus drains exactly once, making the
// tick the unit of event visibility: events published during update are
// observed by handlers at the end of the same tick.
//
// # Registration pattern
//
// Linen uses explicit registration rather than init() self-registration.
// Hosts construct component instances, register them against a registry
// they own, and load what they need. This keeps registries isolated in
// tests and makes the dependency graph visible in one place.
package component
