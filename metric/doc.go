// Package metric provides Prometheus-based observability for the Linen
// kernel.
//
// The MetricsRegistry owns a private Prometheus registry pre-populated with
// core kernel metrics (registry lifecycle, event bus throughput, persistence
// timings) plus the standard Go runtime collectors. Consumer components may
// register their own collectors through the Registrar interface; names are
// namespaced by subsystem to keep registrations conflict-free.
//
// The Server type exposes the registry over HTTP for scraping:
//
//	registry := metric.NewMetricsRegistry()
//	srv := metric.NewServer(":9090", "/metrics", registry)
//	go srv.Start()
//	defer srv.Stop()
package metric
