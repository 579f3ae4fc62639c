package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter wires the HTTP surface. All routes live under /api; the
// recommendation endpoint accepts anonymous callers, account and history
// routes require a bearer token.
func NewRouter(h *APIHandler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/search-titles", h.SearchTitles)
		r.Post("/translate", h.Translate)
		r.Post("/transcribe", h.Transcribe)

		r.Group(func(r chi.Router) {
			r.Use(h.OptionalAuth)
			r.Post("/recommend", h.Recommend)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Put("/users/me", h.UpdateMe)
			r.Delete("/users/me", h.DeleteMe)
			r.Post("/users/me/read-books", h.AddReadBook)
			r.Get("/users/me/read-books", h.ReadBooks)
		})
	})

	return r
}
