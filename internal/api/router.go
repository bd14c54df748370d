package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/{id}", s.handleGetDevice)
		})
	})

	return r
}

// handleHealth returns the bridge health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":       "ok",
		"version":      s.version,
		"device_count": s.registry.Count(),
	}

	if s.push != nil {
		body["push_connected"] = s.push.IsConnected()
	}

	if s.sync != nil {
		last, err := s.sync.LastSweep()
		if !last.IsZero() {
			body["last_sweep"] = last.UTC().Format(time.RFC3339)
		}
		if err != nil {
			body["status"] = "degraded"
			body["last_sweep_error"] = err.Error()
		}
	}

	writeJSON(w, http.StatusOK, body)
}
