package component

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/event"
)

// callLog records lifecycle calls across components so tests can assert
// ordering.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

// stubComponent implements Component (and Updatable) for registry tests
type stubComponent struct {
	name     string
	deps     []string
	log      *callLog
	failInit error
	failShut error

	initCount     int
	shutdownCount int
	updateCount   int
	gotDeps       Dependencies
}

func newStub(name string, log *callLog, deps ...string) *stubComponent {
	return &stubComponent{name: name, deps: deps, log: log}
}

func (s *stubComponent) Name() string           { return s.name }
func (s *stubComponent) Dependencies() []string { return s.deps }

func (s *stubComponent) Initialize(deps Dependencies) error {
	if s.failInit != nil {
		return s.failInit
	}
	s.initCount++
	s.gotDeps = deps
	if s.log != nil {
		s.log.add("init:%s", s.name)
	}
	return nil
}

func (s *stubComponent) Shutdown() error {
	if s.failShut != nil {
		return s.failShut
	}
	s.shutdownCount++
	if s.log != nil {
		s.log.add("shutdown:%s", s.name)
	}
	return nil
}

func (s *stubComponent) Update(time.Duration) {
	s.updateCount++
	if s.log != nil {
		s.log.add("update:%s", s.name)
	}
}

// panicComponent panics in Update to exercise tick isolation
type panicComponent struct {
	stubComponent
}

func (p *panicComponent) Update(time.Duration) {
	panic("update exploded")
}

func newTestRegistry() *Registry {
	return NewRegistry(nil, nil, nil)
}

func TestRegisterAndNames(t *testing.T) {
	r := newTestRegistry()

	require.NoError(t, r.Register(newStub("beta", nil)))
	require.NoError(t, r.Register(newStub("alpha", nil)))

	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry()

	require.NoError(t, r.Register(newStub("quests", nil)))
	err := r.Register(newStub("quests", nil))

	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestRegisterInvalidName(t *testing.T) {
	r := newTestRegistry()

	tests := []string{
		"", "has space", "semi;colon", "new\nline",
		// save header namespaces are off limits
		"linen", "linen.magic", "record", "record.0",
	}
	for _, name := range tests {
		err := r.Register(newStub(name, nil))
		require.Error(t, err, "name %q", name)
		assert.True(t, errors.IsInvalid(err))
	}
}

func TestRegisterNil(t *testing.T) {
	r := newTestRegistry()
	err := r.Register(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadUnknown(t *testing.T) {
	r := newTestRegistry()

	err := r.Load("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadInitializesDependenciesFirst(t *testing.T) {
	log := &callLog{}
	r := newTestRegistry()

	a := newStub("a", log, "b")
	b := newStub("b", log)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	require.NoError(t, r.Load("a"))

	assert.Equal(t, []string{"init:b", "init:a"}, log.calls)

	stateA, _ := r.StateOf("a")
	stateB, _ := r.StateOf("b")
	assert.Equal(t, StateActive, stateA)
	assert.Equal(t, StateActive, stateB)
}

func TestLoadIdempotent(t *testing.T) {
	r := newTestRegistry()
	c := newStub("solo", nil)
	require.NoError(t, r.Register(c))

	require.NoError(t, r.Load("solo"))
	require.NoError(t, r.Load("solo"))

	assert.Equal(t, 1, c.initCount, "initialize must not run twice")
}

func TestLoadMissingDependency(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(newStub("a", nil, "nowhere")))

	err := r.Load("a")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingDependency)
	assert.True(t, errors.IsConflict(err))

	state, _ := r.StateOf("a")
	assert.Equal(t, StateRegistered, state)
}

func TestLoadInitializeFailure(t *testing.T) {
	r := newTestRegistry()
	c := newStub("broken", nil)
	c.failInit = fmt.Errorf("no disk")
	require.NoError(t, r.Register(c))

	err := r.Load("broken")
	require.Error(t, err)

	state, _ := r.StateOf("broken")
	assert.Equal(t, StateRegistered, state, "failed initialize must not activate")
}

func TestLoadInjectsDependencies(t *testing.T) {
	r := newTestRegistry()
	c := newStub("aware", nil)
	require.NoError(t, r.Register(c))
	require.NoError(t, r.Load("aware"))

	assert.Same(t, r, c.gotDeps.Registry)
	assert.Same(t, r.Bus(), c.gotDeps.Bus)
	assert.NotNil(t, c.gotDeps.GetLogger())
}

func TestUnloadInactiveIsNoOp(t *testing.T) {
	r := newTestRegistry()
	c := newStub("idle", nil)
	require.NoError(t, r.Register(c))

	assert.NoError(t, r.Unload("idle"))
	assert.Equal(t, 0, c.shutdownCount)
}

func TestUnloadUnknown(t *testing.T) {
	r := newTestRegistry()
	err := r.Unload("ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestUnloadGuardedByDependents(t *testing.T) {
	r := newTestRegistry()
	a := newStub("a", nil, "b")
	b := newStub("b", nil)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Load("a"))

	// b is still required by active a
	err := r.Unload("b")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDependencyConflict)

	// Unloading the dependent first unblocks the dependency
	require.NoError(t, r.Unload("a"))
	require.NoError(t, r.Unload("b"))
	assert.Equal(t, 1, a.shutdownCount)
	assert.Equal(t, 1, b.shutdownCount)
}

func TestUnloadedComponentCanReload(t *testing.T) {
	r := newTestRegistry()
	c := newStub("phoenix", nil)
	require.NoError(t, r.Register(c))
	require.NoError(t, r.Load("phoenix"))
	require.NoError(t, r.Unload("phoenix"))
	require.NoError(t, r.Load("phoenix"))

	assert.Equal(t, 2, c.initCount)
	assert.Equal(t, 1, c.shutdownCount)
}

func TestGetReturnsOnlyActive(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(newStub("c", nil)))

	_, ok := r.Get("c")
	assert.False(t, ok, "registered but inactive components are not returned")

	require.NoError(t, r.Load("c"))
	got, ok := r.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", got.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestAsTypedLookup(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(newStub("typed", nil)))
	require.NoError(t, r.Load("typed"))

	got, ok := As[*stubComponent](r, "typed")
	require.True(t, ok)
	assert.Equal(t, "typed", got.Name())

	_, ok = As[*panicComponent](r, "typed")
	assert.False(t, ok, "mismatched type must not cast")

	_, ok = As[*stubComponent](r, "missing")
	assert.False(t, ok)
}

func TestInitializationOrderTopological(t *testing.T) {
	r := newTestRegistry()
	// c -> b -> a plus independent d
	require.NoError(t, r.Register(newStub("c", nil, "b")))
	require.NoError(t, r.Register(newStub("b", nil, "a")))
	require.NoError(t, r.Register(newStub("a", nil)))
	require.NoError(t, r.Register(newStub("d", nil)))

	order := r.InitializationOrder()
	require.Len(t, order, 4)

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["a"], pos["b"], "dependency a before dependent b")
	assert.Less(t, pos["b"], pos["c"], "dependency b before dependent c")
}

func TestCycleDetectionLeavesOrderUnchanged(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(newStub("solo", nil)))
	before := r.InitializationOrder()

	// a <-> b cycle; registration succeeds, order stays as it was
	require.NoError(t, r.Register(newStub("a", nil, "b")))
	require.NoError(t, r.Register(newStub("b", nil, "a")))

	assert.Equal(t, before, r.InitializationOrder())
}

func TestCyclicLoadFailsWithoutRecursing(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(newStub("a", nil, "b")))
	require.NoError(t, r.Register(newStub("b", nil, "a")))

	done := make(chan error, 1)
	go func() { done <- r.Load("a") }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrCycleDetected)
	case <-time.After(5 * time.Second):
		t.Fatal("Load did not return; unbounded recursion suspected")
	}
}

func TestUpdateAllRunsInOrderAndDrains(t *testing.T) {
	log := &callLog{}
	r := newTestRegistry()

	a := newStub("a", log, "b")
	b := newStub("b", log)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Load("a"))

	var seen []string
	require.NoError(t, r.Bus().Subscribe("ping", func(e event.Event) {
		seen = append(seen, e.Payload.(string))
	}))
	require.NoError(t, r.Bus().Publish(event.New("ping", "queued")))

	log.calls = nil
	r.UpdateAll(16 * time.Millisecond)

	assert.Equal(t, []string{"update:b", "update:a"}, log.calls)
	assert.Equal(t, []string{"queued"}, seen, "UpdateAll drains the bus once")
}

func TestUpdateAllSkipsInactive(t *testing.T) {
	r := newTestRegistry()
	c := newStub("sleeper", nil)
	require.NoError(t, r.Register(c))

	r.UpdateAll(time.Millisecond)
	assert.Equal(t, 0, c.updateCount)
}

func TestUpdateAllIsolatesPanics(t *testing.T) {
	log := &callLog{}
	r := newTestRegistry()

	bad := &panicComponent{stubComponent{name: "bad", log: log}}
	good := newStub("good", log, "bad")
	require.NoError(t, r.Register(bad))
	require.NoError(t, r.Register(good))
	require.NoError(t, r.Load("good"))

	log.calls = nil
	require.NotPanics(t, func() { r.UpdateAll(time.Millisecond) })
	assert.Contains(t, log.calls, "update:good", "panic in one component must not starve the rest")
}

func TestUpdateAllIsolatesHandlerPanics(t *testing.T) {
	r := newTestRegistry()

	require.NoError(t, r.Bus().Subscribe("explode", func(event.Event) {
		panic("handler exploded")
	}))
	var seen []string
	require.NoError(t, r.Bus().Subscribe("explode", func(e event.Event) {
		seen = append(seen, e.Payload.(string))
	}))
	require.NoError(t, r.Bus().Subscribe("report", func(e event.Event) {
		seen = append(seen, e.Payload.(string))
	}))

	require.NoError(t, r.Bus().Publish(
		event.New("explode", "first").WithPriority(event.PriorityCritical)))
	require.NoError(t, r.Bus().Publish(event.New("report", "second")))

	require.NotPanics(t, func() { r.UpdateAll(time.Millisecond) })

	assert.Equal(t, []string{"first", "second"}, seen,
		"one panicking handler must not discard the rest of the batch")
	assert.Equal(t, 0, r.Bus().Pending())
}

func TestTeardownReverseOrder(t *testing.T) {
	log := &callLog{}
	r := newTestRegistry()

	a := newStub("a", log, "b")
	b := newStub("b", log)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Load("a"))

	log.calls = nil
	r.Teardown()

	assert.Equal(t, []string{"shutdown:a", "shutdown:b"}, log.calls)
	assert.Empty(t, r.Names())
	assert.Empty(t, r.InitializationOrder())

	// Torn-down registries refuse new registrations
	err := r.Register(newStub("late", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidState)
}

func TestEndToEndScenario(t *testing.T) {
	// Register B (no deps) and A (depends on B); load(A) auto-loads B;
	// UpdateAll ticks both; A publishes X at Critical; the next drain
	// delivers the payload exactly once.
	log := &callLog{}
	r := newTestRegistry()

	b := newStub("B", log)
	a := newStub("A", log, "B")
	require.NoError(t, r.Register(b))
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Load("A"))

	var payloads []any
	require.NoError(t, r.Bus().Subscribe("X", func(e event.Event) {
		payloads = append(payloads, e.Payload)
	}))

	log.calls = nil
	r.UpdateAll(16 * time.Millisecond)
	require.Equal(t, []string{"update:B", "update:A"}, log.calls)

	require.NoError(t, r.Bus().Publish(
		event.New("X", "critical-payload").WithPriority(event.PriorityCritical)))
	r.UpdateAll(16 * time.Millisecond)

	assert.Equal(t, []any{"critical-payload"}, payloads)
}
