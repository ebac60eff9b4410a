package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/projectboard/internal/api/middleware"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP(s.proxies))
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(s.ipLimiter))
				r.Post("/token", s.issueToken)
				r.Post("/refresh", s.refreshToken)
			})
			r.Post("/logout", s.revokeToken)
		})

		r.With(middleware.RateLimitByIP(s.ipLimiter)).Post("/users", s.signUp)

		// Bearer token required
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(s.jwt))
			r.Use(s.loadPrincipal)

			r.Get("/me", s.currentUser)
			r.Get("/notes", s.searchNotes)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", s.listProjects)
				r.Post("/", s.createProject)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.showProject)
					r.Patch("/", s.updateProject)
					r.Put("/", s.updateProject)
					r.Delete("/", s.destroyProject)
					r.Patch("/complete", s.completeProject)

					r.Post("/tasks", s.createTask)
					r.Patch("/tasks/{taskID}/toggle", s.toggleTask)
					r.Delete("/tasks/{taskID}", s.deleteTask)

					r.Get("/notes", s.searchNotes)
					r.Post("/notes", s.createNote)
					r.Delete("/notes/{noteID}", s.deleteNote)
				})
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			JSONError(w, NewNotFound("Route not found"))
		})
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.health.Health)
	r.Get("/health/live", s.health.Live)
	r.Get("/health/ready", s.health.Ready)

	if s.webUI != nil {
		r.Mount("/", s.webUI)
	}

	return r
}
