package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all kernel-level metrics (not consumer-specific)
type Metrics struct {
	// Registry metrics
	ComponentsRegistered prometheus.Gauge
	ComponentsActive     prometheus.Gauge
	LifecycleErrors      *prometheus.CounterVec
	TickDuration         prometheus.Histogram
	UpdatePanics         *prometheus.CounterVec

	// Event bus metrics
	EventsPublished *prometheus.CounterVec
	EventsDelivered *prometheus.CounterVec
	EventQueueDepth prometheus.Gauge
	DrainDuration   prometheus.Histogram
	HandlerPanics   *prometheus.CounterVec

	// Persistence metrics
	SaveDuration   *prometheus.HistogramVec
	LoadDuration   *prometheus.HistogramVec
	RecordsSkipped prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all kernel metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ComponentsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "linen",
				Subsystem: "registry",
				Name:      "components_registered",
				Help:      "Number of components currently registered",
			},
		),
		ComponentsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "linen",
				Subsystem: "registry",
				Name:      "components_active",
				Help:      "Number of components currently active",
			},
		),
		LifecycleErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linen",
				Subsystem: "registry",
				Name:      "lifecycle_errors_total",
				Help:      "Lifecycle operation failures by operation",
			},
			[]string{"operation"},
		),
		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "linen",
				Subsystem: "registry",
				Name:      "tick_duration_seconds",
				Help:      "Duration of a full UpdateAll pass including the drain",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
		),
		UpdatePanics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linen",
				Subsystem: "registry",
				Name:      "update_panics_total",
				Help:      "Recovered panics during component Update by component",
			},
			[]string{"component"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linen",
				Subsystem: "bus",
				Name:      "events_published_total",
				Help:      "Events enqueued or delivered immediately, by priority",
			},
			[]string{"priority"},
		),
		EventsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linen",
				Subsystem: "bus",
				Name:      "events_delivered_total",
				Help:      "Events delivered by drain or immediate publish, by priority",
			},
			[]string{"priority"},
		),
		EventQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "linen",
				Subsystem: "bus",
				Name:      "event_queue_depth",
				Help:      "Pending events awaiting the next drain",
			},
		),
		DrainDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "linen",
				Subsystem: "bus",
				Name:      "drain_duration_seconds",
				Help:      "Duration of a single drain pass",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 14),
			},
		),
		HandlerPanics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linen",
				Subsystem: "bus",
				Name:      "handler_panics_total",
				Help:      "Recovered panics during event handler delivery by event type",
			},
			[]string{"type"},
		),
		SaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "linen",
				Subsystem: "persist",
				Name:      "save_duration_seconds",
				Help:      "Duration of a save pass by format",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "linen",
				Subsystem: "persist",
				Name:      "load_duration_seconds",
				Help:      "Duration of a load pass by format",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		RecordsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "linen",
				Subsystem: "persist",
				Name:      "records_skipped_total",
				Help:      "Save records skipped because the named component was not registered",
			},
		),
	}
}
