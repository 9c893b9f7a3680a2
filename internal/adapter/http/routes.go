package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Sessions
		r.Post("/sessions", h.createSession)
		r.Get("/sessions", h.listSessions)
		r.Get("/sessions/{sessionID}", h.getSession)

		// Event ingest
		r.Post("/sessions/{sessionID}/events", h.appendEvent)
		r.Post("/sessions/{sessionID}/progress", h.appendLifecycle)

		// Derived views
		r.Get("/sessions/{sessionID}/timeline", h.getTimeline)
		r.Get("/sessions/{sessionID}/progress", h.getProgress)
	})
}
