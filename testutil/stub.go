package testutil

import (
	"sync"
	"time"

	"github.com/SaxonRah/Linen/component"
)

// StubComponent is a generic component for testing that implements the full
// lifecycle and records every call for verification.
type StubComponent struct {
	mu sync.Mutex

	ComponentName string
	Deps          []string

	// Lifecycle control; nil funcs default to success
	InitializeFunc func(deps component.Dependencies) error
	ShutdownFunc   func() error
	UpdateFunc     func(delta time.Duration)

	// Call counts for verification
	InitializeCalls int
	ShutdownCalls   int
	UpdateCalls     int

	// Captured injection from the most recent Initialize
	LastDeps component.Dependencies
}

// NewStubComponent creates a stub with the given name and dependency names
func NewStubComponent(name string, deps ...string) *StubComponent {
	return &StubComponent{ComponentName: name, Deps: deps}
}

// Name implements component.Component
func (s *StubComponent) Name() string { return s.ComponentName }

// Dependencies implements component.Component
func (s *StubComponent) Dependencies() []string { return s.Deps }

// Initialize records the call and the injected collaborators
func (s *StubComponent) Initialize(deps component.Dependencies) error {
	s.mu.Lock()
	s.InitializeCalls++
	s.LastDeps = deps
	fn := s.InitializeFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(deps)
	}
	return nil
}

// Shutdown records the call
func (s *StubComponent) Shutdown() error {
	s.mu.Lock()
	s.ShutdownCalls++
	fn := s.ShutdownFunc
	s.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

// Update records the call
func (s *StubComponent) Update(delta time.Duration) {
	s.mu.Lock()
	s.UpdateCalls++
	fn := s.UpdateFunc
	s.mu.Unlock()

	if fn != nil {
		fn(delta)
	}
}

// Counts returns the lifecycle call counts under the stub's lock
func (s *StubComponent) Counts() (initialized, shutdown, updated int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.InitializeCalls, s.ShutdownCalls, s.UpdateCalls
}
