package kernel

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/SaxonRah/Linen/component"
	"github.com/SaxonRah/Linen/config"
	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/event"
	"github.com/SaxonRah/Linen/metric"
	"github.com/SaxonRah/Linen/persist"
)

// Kernel wires the event bus, component registry and persistence manager
// into one host-facing handle and drives the fixed-step update loop. All
// component instances are owned by the kernel's registry; there are no
// package-level singletons.
type Kernel struct {
	cfg        *config.SafeConfig
	bus        *event.Bus
	registry   *component.Registry
	manager    *persist.Manager
	logger     *slog.Logger
	metricsReg *metric.MetricsRegistry
}

// New builds a kernel from a validated configuration. A nil config uses
// the defaults; logger and metrics may be nil. The persistence manager is
// registered and loaded before New returns.
func New(cfg *config.Config, logger *slog.Logger, metricsReg *metric.MetricsRegistry) (*Kernel, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var metrics *metric.Metrics
	if metricsReg != nil {
		metrics = metricsReg.CoreMetrics()
	}

	bus := event.NewBus(logger, metrics)
	registry := component.NewRegistry(bus, logger, metricsReg)
	manager := persist.NewManager()

	k := &Kernel{
		cfg:        config.NewSafeConfig(cfg),
		bus:        bus,
		registry:   registry,
		manager:    manager,
		logger:     logger.With("component", "Kernel"),
		metricsReg: metricsReg,
	}

	if err := registry.Register(manager); err != nil {
		return nil, errors.Wrap(err, "Kernel", "New", "persistence manager registration")
	}
	if err := registry.Load(persist.ManagerName); err != nil {
		return nil, errors.Wrap(err, "Kernel", "New", "persistence manager load")
	}
	return k, nil
}

// Registry returns the component registry
func (k *Kernel) Registry() *component.Registry {
	return k.registry
}

// Bus returns the shared event bus
func (k *Kernel) Bus() *event.Bus {
	return k.bus
}

// Persistence returns the persistence manager
func (k *Kernel) Persistence() *persist.Manager {
	return k.manager
}

// Config returns a copy of the current configuration
func (k *Kernel) Config() *config.Config {
	return k.cfg.Get()
}

// Register registers a component with the kernel's registry
func (k *Kernel) Register(c component.Component) error {
	return k.registry.Register(c)
}

// Load activates the named component and its dependencies
func (k *Kernel) Load(name string) error {
	return k.registry.Load(name)
}

// Run drives the fixed-step update loop until ctx is cancelled: every tick
// updates all active components in dependency order, then drains the bus
// once. On cancellation the registry tears down in reverse initialization
// order before Run returns.
func (k *Kernel) Run(ctx context.Context) error {
	interval := k.cfg.Get().Tick.Interval
	k.logger.Info("run loop starting", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			k.logger.Info("run loop stopping", "reason", ctx.Err())
			k.registry.Teardown()
			return nil
		case now := <-ticker.C:
			k.registry.UpdateAll(now.Sub(last))
			last = now
		}
	}
}

// SaveGame snapshots all persisted components into the configured save
// directory under the given base name, in the configured format.
func (k *Kernel) SaveGame(name string) error {
	cfg := k.cfg.Get()
	if err := os.MkdirAll(cfg.Persistence.Directory, 0o755); err != nil {
		return errors.WrapInternal(err, "Kernel", "SaveGame", "save directory creation")
	}
	return k.manager.Save(filepath.Join(cfg.Persistence.Directory, name), cfg.Format())
}

// LoadGame restores persisted components from the configured save
// directory under the given base name.
func (k *Kernel) LoadGame(name string) error {
	cfg := k.cfg.Get()
	return k.manager.Load(filepath.Join(cfg.Persistence.Directory, name), cfg.Format())
}
