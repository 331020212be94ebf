package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/berkana/internal/widget"
)

// NewRouter creates a chi router with all widget routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(ctrl *widget.Controller, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(ctrl)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Note content.
	r.Get("/note", h.GetNote)
	r.Put("/note", h.UpdateNote)
	r.Post("/note/flush", h.FlushNote)

	// Widget state and controls.
	r.Get("/state", h.GetState)
	r.Post("/pin", h.TogglePin)
	r.Put("/transparency", h.SetTransparency)
	r.Post("/theme/cycle", h.CycleTheme)
	r.Post("/close", h.Close)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
