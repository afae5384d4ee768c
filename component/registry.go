package component

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/event"
	"github.com/SaxonRah/Linen/metric"
)

// managed tracks a component instance and its lifecycle state
type managed struct {
	component Component
	state     State
	deps      []string // declared dependency names, captured at registration
}

// Registry owns component instances, validates and orders their dependency
// graph, and drives lifecycle transitions.
//
// Two locks split the concerns: mu guards the bookkeeping maps and the
// initialization order for short read/write sections, while lifecycleMu
// serializes the long-running transitions (Load, Unload, UpdateAll,
// Teardown) so component hooks run outside mu and may safely call back into
// Get or the event bus.
type Registry struct {
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	components  map[string]*managed
	order       []string // initialization order, dependencies first
	tornDown    bool

	bus        *event.Bus
	logger     *slog.Logger
	metricsReg *metric.MetricsRegistry
	metrics    *metric.Metrics
}

// NewRegistry creates an empty component registry. The bus is shared with
// every component the registry loads; if nil, a private bus is created.
// Logger and metrics may be nil.
func NewRegistry(bus *event.Bus, logger *slog.Logger, metricsReg *metric.MetricsRegistry) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	var metrics *metric.Metrics
	if metricsReg != nil {
		metrics = metricsReg.CoreMetrics()
	}
	if bus == nil {
		bus = event.NewBus(logger, metrics)
	}
	r := &Registry{
		components: make(map[string]*managed),
		bus:        bus,
		logger:     logger.With("component", "Registry"),
		metricsReg: metricsReg,
		metrics:    metrics,
	}
	// The registry is the wrapping host for handler failures: each handler
	// invocation recovers on its own, so one panic never discards the rest
	// of a drained batch.
	bus.SetInvoker(r.invokeHandler)
	return r
}

// Bus returns the event bus shared by this registry's components
func (r *Registry) Bus() *event.Bus {
	return r.bus
}

// Register stores a component instance under its name and recomputes the
// global initialization order. Fails if a component with the same name is
// already registered. A dependency cycle introduced by the registration is
// reported and leaves the previous order unchanged; it does not fail the
// registration itself.
func (r *Registry) Register(c Component) error {
	if c == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "component validation")
	}
	if err := ValidateName(c.Name()); err != nil {
		return errors.Wrap(err, "Registry", "Register", "component name validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tornDown {
		return errors.WrapConflict(errors.ErrInvalidState, "Registry", "Register", "registry torn down")
	}

	name := c.Name()
	if _, exists := r.components[name]; exists {
		msg := fmt.Errorf("%w: %q", errors.ErrAlreadyExists, name)
		return errors.WrapConflict(msg, "Registry", "Register", "duplicate registration check")
	}

	deps := append([]string(nil), c.Dependencies()...)
	r.components[name] = &managed{component: c, state: StateRegistered, deps: deps}

	if err := r.recomputeOrderLocked(); err != nil {
		// Cycles are a reported configuration error, not a registration
		// failure; the previous order stays in effect.
		r.logger.Error("initialization order not updated", "error", err)
		if r.metrics != nil {
			r.metrics.LifecycleErrors.WithLabelValues("register").Inc()
		}
	}

	if r.metrics != nil {
		r.metrics.ComponentsRegistered.Set(float64(len(r.components)))
	}
	r.logger.Info("registered component", "name", name, "dependencies", deps)
	return nil
}

// Load transitions the named component to active, first loading every
// declared dependency that is not active yet. Loading an already-active
// component succeeds as a no-op.
func (r *Registry) Load(name string) error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	plan, err := r.loadPlan(name)
	if err != nil {
		if r.metrics != nil {
			r.metrics.LifecycleErrors.WithLabelValues("load").Inc()
		}
		return err
	}

	for _, n := range plan {
		r.mu.RLock()
		m := r.components[n]
		r.mu.RUnlock()

		if m.state == StateActive {
			continue
		}
		if n != name {
			r.logger.Info("loading dependency", "name", n, "for", name)
		}

		if err := m.component.Initialize(r.dependencies()); err != nil {
			if r.metrics != nil {
				r.metrics.LifecycleErrors.WithLabelValues("load").Inc()
			}
			return errors.Wrap(err, "Registry", "Load", fmt.Sprintf("initialize %q", n))
		}

		r.mu.Lock()
		m.state = StateActive
		r.mu.Unlock()
		r.logger.Info("loaded component", "name", n)
	}

	r.updateActiveGauge()
	return nil
}

// loadPlan computes the ordered list of components to initialize for a load
// of name: its transitive inactive dependencies first, then name itself.
func (r *Registry) loadPlan(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.components[name]; !ok {
		msg := fmt.Errorf("%w: %q", errors.ErrNotFound, name)
		return nil, errors.Wrap(msg, "Registry", "Load", "component lookup")
	}

	var plan []string
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(n string) error
	visit = func(n string) error {
		if visited[n] {
			return nil
		}
		if visiting[n] {
			msg := fmt.Errorf("%w: involving %q", errors.ErrCycleDetected, n)
			return errors.WrapConflict(msg, "Registry", "Load", "dependency traversal")
		}
		visiting[n] = true
		defer delete(visiting, n)

		m := r.components[n]
		if m.state != StateActive {
			for _, dep := range m.deps {
				if _, ok := r.components[dep]; !ok {
					msg := fmt.Errorf("%w: %q required by %q", errors.ErrMissingDependency, dep, n)
					return errors.WrapConflict(msg, "Registry", "Load", "dependency resolution")
				}
				if err := visit(dep); err != nil {
					return err
				}
			}
			plan = append(plan, n)
		}
		visited[n] = true
		return nil
	}

	if err := visit(name); err != nil {
		return nil, err
	}
	return plan, nil
}

// Unload shuts the named component down and returns it to the registered,
// inactive state. Unloading an inactive component is a no-op. Fails with a
// dependency conflict while any active component still depends on it.
func (r *Registry) Unload(name string) error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	r.mu.RLock()
	m, ok := r.components[name]
	if !ok {
		r.mu.RUnlock()
		msg := fmt.Errorf("%w: %q", errors.ErrNotFound, name)
		return errors.Wrap(msg, "Registry", "Unload", "component lookup")
	}
	if m.state != StateActive {
		r.mu.RUnlock()
		r.logger.Debug("component not active, unload is a no-op", "name", name)
		return nil
	}
	for depName, dm := range r.components {
		if dm.state != StateActive {
			continue
		}
		for _, dep := range dm.deps {
			if dep == name {
				r.mu.RUnlock()
				msg := fmt.Errorf("%w: %q is required by %q", errors.ErrDependencyConflict, name, depName)
				if r.metrics != nil {
					r.metrics.LifecycleErrors.WithLabelValues("unload").Inc()
				}
				return errors.WrapConflict(msg, "Registry", "Unload", "dependent check")
			}
		}
	}
	r.mu.RUnlock()

	err := m.component.Shutdown()

	r.mu.Lock()
	m.state = StateRegistered
	r.mu.Unlock()
	r.updateActiveGauge()

	if err != nil {
		if r.metrics != nil {
			r.metrics.LifecycleErrors.WithLabelValues("unload").Inc()
		}
		return errors.Wrap(err, "Registry", "Unload", fmt.Sprintf("shutdown %q", name))
	}
	r.logger.Info("unloaded component", "name", name)
	return nil
}

// Get returns the active component with the given name. Inactive and
// unknown components return false; Get never creates as a side effect.
func (r *Registry) Get(name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.components[name]
	if !ok || m.state != StateActive {
		return nil, false
	}
	return m.component, true
}

// As retrieves the active component with the given name as type T. Returns
// false if the name is unknown, inactive, or of a different type.
func As[T Component](r *Registry, name string) (T, bool) {
	var zero T
	c, ok := r.Get(name)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// StateOf reports the lifecycle state of the named component
func (r *Registry) StateOf(name string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.components[name]
	if !ok {
		return 0, false
	}
	return m.state, true
}

// Names returns the names of all registered components, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns the names of all active components in initialization order
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if m, ok := r.components[name]; ok && m.state == StateActive {
			active = append(active, name)
		}
	}
	return active
}

// InitializationOrder returns a copy of the current initialization order,
// dependencies before dependents
func (r *Registry) InitializationOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// UpdateAll invokes Update on every active component in initialization
// order, then drains the event bus exactly once. This is the single
// synchronization point per tick: effects of events published during the
// update pass become visible to handlers at the end of the same tick, and
// events published by those handlers on the next one.
//
// A panic inside a component's Update or an event handler is recovered,
// logged and counted; it never aborts the tick.
func (r *Registry) UpdateAll(delta time.Duration) {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	start := time.Now()

	r.mu.RLock()
	updatables := make([]Component, 0, len(r.order))
	for _, name := range r.order {
		if m, ok := r.components[name]; ok && m.state == StateActive {
			updatables = append(updatables, m.component)
		}
	}
	r.mu.RUnlock()

	for _, c := range updatables {
		if u, ok := c.(Updatable); ok {
			r.updateOne(c.Name(), u, delta)
		}
	}

	r.bus.Drain()

	if r.metrics != nil {
		r.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

// updateOne runs a single component update with panic isolation
func (r *Registry) updateOne(name string, u Updatable, delta time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("component update panicked", "name", name, "panic", rec)
			if r.metrics != nil {
				r.metrics.UpdatePanics.WithLabelValues(name).Inc()
			}
		}
	}()
	u.Update(delta)
}

// invokeHandler delivers one event to one handler with panic isolation.
// Installed as the bus invoker, so delivery continues with the next
// handler and the next event of the batch after a panic.
func (r *Registry) invokeHandler(h event.Handler, e event.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("event handler panicked", "type", e.Type, "panic", rec)
			if r.metrics != nil {
				r.metrics.HandlerPanics.WithLabelValues(e.Type).Inc()
			}
		}
	}()
	h(e)
}

// Teardown shuts down all active components in reverse initialization
// order, then clears all bookkeeping. The registry cannot be reused after
// teardown.
func (r *Registry) Teardown() {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	r.mu.RLock()
	order := append([]string(nil), r.order...)
	r.mu.RUnlock()

	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		r.mu.RLock()
		m, ok := r.components[name]
		r.mu.RUnlock()
		if !ok || m.state != StateActive {
			continue
		}
		if err := m.component.Shutdown(); err != nil {
			r.logger.Error("component shutdown failed during teardown", "name", name, "error", err)
		}
		r.mu.Lock()
		m.state = StateShutdown
		r.mu.Unlock()
		r.logger.Info("shut down component", "name", name)
	}

	r.mu.Lock()
	r.components = make(map[string]*managed)
	r.order = nil
	r.tornDown = true
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ComponentsRegistered.Set(0)
		r.metrics.ComponentsActive.Set(0)
	}
	r.logger.Info("registry torn down")
}

// dependencies builds the injection structure passed to Initialize
func (r *Registry) dependencies() Dependencies {
	return Dependencies{
		Registry: r,
		Bus:      r.bus,
		Metrics:  r.metricsReg,
		Logger:   r.logger,
	}
}

// updateActiveGauge refreshes the active-components gauge
func (r *Registry) updateActiveGauge() {
	if r.metrics == nil {
		return
	}
	r.mu.RLock()
	active := 0
	for _, m := range r.components {
		if m.state == StateActive {
			active++
		}
	}
	r.mu.RUnlock()
	r.metrics.ComponentsActive.Set(float64(active))
}

// recomputeOrderLocked recalculates the initialization order. Caller must
// hold mu. Performs cycle detection with a recursion stack first; on a
// cycle the existing order is left untouched and the error is returned.
// Otherwise a post-order depth-first traversal produces a total order with
// every dependency before its dependents. Edges to unregistered names are
// ignored here; they surface as MissingDependency at load time.
func (r *Registry) recomputeOrderLocked() error {
	visited := make(map[string]bool)
	stack := make(map[string]bool)

	var detect func(name string) bool
	detect = func(name string) bool {
		if stack[name] {
			return true
		}
		if visited[name] {
			return false
		}
		visited[name] = true
		stack[name] = true
		if m, ok := r.components[name]; ok {
			for _, dep := range m.deps {
				if detect(dep) {
					return true
				}
			}
		}
		delete(stack, name)
		return false
	}

	for name := range r.components {
		if detect(name) {
			msg := fmt.Errorf("%w: involving %q", errors.ErrCycleDetected, name)
			return errors.WrapConflict(msg, "Registry", "recomputeOrder", "cycle detection")
		}
	}

	// Deterministic traversal: visit roots in sorted name order
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)

	order := make([]string, 0, len(r.components))
	seen := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if m, ok := r.components[name]; ok {
			for _, dep := range m.deps {
				visit(dep)
			}
			order = append(order, name)
		}
	}

	for _, name := range names {
		visit(name)
	}

	r.order = order
	return nil
}
