package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetricsHandler serves the Prometheus exposition of registry. A nil
// registry falls back to the default gatherer.
func NewMetricsHandler(registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if registry != nil {
		gatherer = registry
	}

	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(logger.With(slog.String("handler", "metrics")).Handler(), slog.LevelError),
		ErrorHandling: promhttp.ContinueOnError,
	})
}
