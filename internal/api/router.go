package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hashnotes/internal/noteservice"
	"github.com/starford/hashnotes/internal/sse"
	"github.com/starford/hashnotes/internal/view"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, receives mutation events and is mounted at GET /events
// inside the auth group. Handler failures are logged to logger.
func NewRouter(svc *noteservice.Service, tracker *view.Tracker, broker *sse.Broker, logger *slog.Logger, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc, tracker, broker, logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Tag universe.
	r.Get("/tags", h.ListTags)

	// Sequenced view state.
	r.Get("/view", h.GetView)
	r.Post("/view/query", h.QueryView)

	// SSE endpoint (protected by same auth middleware).
	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}

// HealthRoutes mounts the unauthenticated liveness and readiness endpoints.
// ready is consulted by /health/ready; a nil ready always reports ok.
func HealthRoutes(r chi.Router, ready func(*http.Request) error) {
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if ready != nil {
			if err := ready(req); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// LinkEvents forwards every applied view snapshot to broker as view.updated
// and tags.updated events.
func LinkEvents(tracker *view.Tracker, broker *sse.Broker) {
	tracker.OnChange(func(s view.Snapshot) {
		broker.PublishView(s.Seq, string(s.Status))
		if s.Status == view.StatusSucceeded {
			broker.PublishTags(s.Tags)
		}
	})
}
