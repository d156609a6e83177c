package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psi-dia/integration-manager/internal/middleware"
)

// chiMiddleware adapts the project's func(http.HandlerFunc) http.HandlerFunc
// middleware convention to chi's func(http.Handler) http.Handler for r.Use.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// NewRouter builds the integration manager's REST surface, every endpoint
// routed through chi.
func NewRouter(h *Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

	r.Get("/status", h.Status)
	r.Get("/status_details", h.StatusDetails)
	r.Get("/statistics", h.Statistics)

	r.Get("/config", h.GetConfig)
	r.Post("/config", h.SetConfig)
	r.Put("/config", h.UpdateConfig)

	r.Post("/start", h.Start)
	r.Post("/stop", h.Stop)
	r.Post("/reset", h.Reset)
	r.Post("/kill", h.Kill)

	r.Get("/clients_enabled", h.GetClientsEnabled)
	r.Post("/clients_enabled", h.SetClientsEnabled)

	r.Get("/server_info", h.ServerInfo)

	r.Get("/backend/status", h.BackendStatus)
	r.Get("/backend/config", h.BackendGetConfig)
	r.Post("/backend/config", h.BackendSetConfig)
	r.Post("/backend/action/{name}", h.BackendAction)

	r.Get("/detector/value/{name}", h.DetectorGetValue)
	r.Post("/detector/value/{name}", h.DetectorSetValue)

	r.Handle("/metrics", metricsHandler)

	return r
}
