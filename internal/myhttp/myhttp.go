// Package myhttp wraps net/http's ServeMux with the instrumentation the diff
// server shares across handlers: otel spans, request duration metrics and
// trace-scoped logging.
package myhttp

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/metric"
)

// NewServerMux creates a mux whose WithMiddleware registrations record request
// durations into the given histogram and attach trace ids to log lines.
func NewServerMux(logger *slog.Logger, httpRequestsDurationMicroSeconds metric.Int64Histogram) *myRouter {
	return &myRouter{
		ServeMux:                         http.NewServeMux(),
		logger:                           logger,
		httpRequestsDurationMicroSeconds: httpRequestsDurationMicroSeconds,
	}
}
