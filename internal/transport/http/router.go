// Package httptransport is the thin HTTP layer. It delegates to the contacts
// service without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contacts/internal/platform/health"
	"contacts/internal/platform/metrics"
	"contacts/internal/platform/middleware"
)

// NewRouter wires all public endpoints with middleware: the contact
// endpoints, health probes, and the Prometheus scrape endpoint.
func NewRouter(h *ContactsHandler, healthHandler *health.Handler, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	h.Register(r)
	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
