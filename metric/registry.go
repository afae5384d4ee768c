package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/SaxonRah/Linen/errors"
)

// Registrar defines the interface for registering consumer-specific metrics
type Registrar interface {
	RegisterCounter(subsystem, metricName string, counter prometheus.Counter) error
	RegisterGauge(subsystem, metricName string, gauge prometheus.Gauge) error
	RegisterHistogram(subsystem, metricName string, histogram prometheus.Histogram) error
	Unregister(subsystem, metricName string) bool
}

// MetricsRegistry manages the registration and lifecycle of metrics
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewMetricsRegistry creates a new metrics registry with core kernel metrics
func NewMetricsRegistry() *MetricsRegistry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &MetricsRegistry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	// Initialize and register core metrics
	registry.Metrics = NewMetrics()
	registry.registerMetrics()

	// Add Go runtime metrics
	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core kernel metrics
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

// RegisterCounter registers a counter metric for a subsystem
func (r *MetricsRegistry) RegisterCounter(subsystem, metricName string, counter prometheus.Counter) error {
	return r.register(subsystem, metricName, counter, "RegisterCounter")
}

// RegisterGauge registers a gauge metric for a subsystem
func (r *MetricsRegistry) RegisterGauge(subsystem, metricName string, gauge prometheus.Gauge) error {
	return r.register(subsystem, metricName, gauge, "RegisterGauge")
}

// RegisterHistogram registers a histogram metric for a subsystem
func (r *MetricsRegistry) RegisterHistogram(subsystem, metricName string, histogram prometheus.Histogram) error {
	return r.register(subsystem, metricName, histogram, "RegisterHistogram")
}

// register adds a collector to both the bookkeeping map and the Prometheus registry
func (r *MetricsRegistry) register(subsystem, metricName string, collector prometheus.Collector, op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", subsystem, metricName)

	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapConflict(
			fmt.Errorf("metric %s already registered for subsystem %s", metricName, subsystem),
			"MetricsRegistry", op, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapConflict(err, "MetricsRegistry", op,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapInternal(err, "MetricsRegistry", op,
			"failed to register collector with prometheus")
	}

	r.registeredMetrics[key] = collector
	return nil
}

// Unregister removes a metric from the registry
func (r *MetricsRegistry) Unregister(subsystem, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", subsystem, metricName)

	collector, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	success := r.prometheusRegistry.Unregister(collector)
	if success {
		delete(r.registeredMetrics, key)
	}

	return success
}

// registerMetrics registers all core kernel metrics
func (r *MetricsRegistry) registerMetrics() {
	r.prometheusRegistry.MustRegister(
		r.Metrics.ComponentsRegistered,
		r.Metrics.ComponentsActive,
		r.Metrics.LifecycleErrors,
		r.Metrics.TickDuration,
		r.Metrics.UpdatePanics,
		r.Metrics.EventsPublished,
		r.Metrics.EventsDelivered,
		r.Metrics.EventQueueDepth,
		r.Metrics.DrainDuration,
		r.Metrics.HandlerPanics,
		r.Metrics.SaveDuration,
		r.Metrics.LoadDuration,
		r.Metrics.RecordsSkipped,
	)
}
