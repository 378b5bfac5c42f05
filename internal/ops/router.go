// Package ops exposes the worker's operational HTTP surface: liveness,
// Prometheus scrape, and a JSON status snapshot.
package ops

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/ops/handler"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/poller"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	p *poller.Poller,
	ledgerSize func() int,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(accessLog(logger))

	hh := handler.NewHealthHandler()
	sh := handler.NewStatusHandler(p, ledgerSize)

	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", sh.Status)
	})

	return r
}
