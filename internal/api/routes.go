package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		RequestID(),
		Logging(h.logger),
	)

	// Jobs
	mux.Handle("POST /api/v1/jobs", chain(http.HandlerFunc(h.RunJob)))
	mux.Handle("POST /api/v1/jobs/enqueue", chain(http.HandlerFunc(h.EnqueueJob)))
	mux.Handle("GET /api/v1/jobs", chain(http.HandlerFunc(h.ListJobs)))
	mux.Handle("GET /api/v1/jobs/{id}", chain(http.HandlerFunc(h.GetJob)))

	// Artifacts
	mux.Handle("GET /api/v1/artifacts/exports", chain(http.HandlerFunc(h.DownloadExports)))

	// Keywords
	mux.Handle("GET /api/v1/keywords", chain(http.HandlerFunc(h.GetKeywords)))
	mux.Handle("PUT /api/v1/keywords", chain(http.HandlerFunc(h.UpdateKeywords)))
	mux.Handle("POST /api/v1/keywords/match", chain(http.HandlerFunc(h.MatchKeywords)))

	// Service
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
}
