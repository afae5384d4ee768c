package component

import (
	"time"
)

// Component is a named, independently lifecycle-managed unit of behavior.
//
// The name is the component's identity: it is the registry key, the handle
// other components declare dependencies against, and the tag persistence
// records are written under. Names must be unique within a registry and
// stable across runs.
//
// Initialize is called when the component is loaded, after every declared
// dependency has been loaded. Shutdown is called when the component is
// unloaded or the registry tears down; dependents are always shut down
// before their dependencies.
type Component interface {
	// Name returns the unique, stable identity of the component
	Name() string

	// Dependencies returns the names of components that must be active
	// before this one initializes. May be empty.
	Dependencies() []string

	// Initialize transitions the component to active. The Dependencies
	// value carries back-references to the owning registry and bus for
	// later lookups and publication.
	Initialize(deps Dependencies) error

	// Shutdown releases the component's resources. Called at most once per
	// activation.
	Shutdown() error
}

// Updatable is implemented by components that want a per-tick update hook.
// Update runs on the single update goroutine in initialization order.
type Updatable interface {
	Update(delta time.Duration)
}
