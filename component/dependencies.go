package component

import (
	"log/slog"

	"github.com/SaxonRah/Linen/event"
	"github.com/SaxonRah/Linen/metric"
)

// Dependencies provides all external collaborators a component needs.
// The registry passes this structure to Initialize so components receive
// properly structured dependencies rather than hidden globals.
type Dependencies struct {
	Registry *Registry               // Owning registry for component lookup (never nil during Initialize)
	Bus      *event.Bus              // Event bus for publish/subscribe (never nil during Initialize)
	Metrics  *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	Logger   *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
