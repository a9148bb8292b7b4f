/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. Metrics:    Request counts and latency per route pattern

ROUTE GROUPS:
  /api/employees/{id}/months/*    Month view, autofill, reset, lock
  /api/employees/{id}/days/*      Staged edits
  /api/employees/{id}/pending     Edit buffer
  /api/employees/{id}/save        Persist the buffer
  /api/employees/{id}/schedule    Weekly schedule
  /metrics                        Prometheus scrape endpoint
  /healthz                        Liveness

SECURITY NOTE:
  No authentication middleware currently. The employee id in the path is
  trusted as-is.

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/timesheet-engine/metrics"
)

// NewRouter creates a new router with all routes configured. rec may be nil,
// in which case no metrics are collected or served.
func NewRouter(h *Handler, rec *metrics.Recorder, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if rec != nil {
		r.Use(rec.Middleware)
		r.Method(http.MethodGet, "/metrics", rec.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/employees/{id}", func(r chi.Router) {
		r.Route("/months/{month}", func(r chi.Router) {
			r.Get("/", h.GetMonth)
			r.Post("/autofill", h.AutoFill)
			r.Post("/reset", h.ResetMonth)
			r.Get("/status", h.GetStatus)
			r.Post("/finalize", h.Finalize)
			r.Post("/reopen", h.Reopen)
		})

		r.Put("/days/{date}", h.StageUpdate)
		r.Delete("/days/{date}", h.DiscardDay)

		r.Get("/pending", h.ListPending)
		r.Delete("/pending", h.DiscardAll)
		r.Post("/save", h.Save)

		r.Get("/schedule", h.GetSchedule)
		r.Put("/schedule", h.PutSchedule)
	})

	return r
}
