package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/good-yellow-bee/projectboard/internal/web/middleware"
)

// Routes returns the web UI router. It is meant to be mounted at "/".
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	// Runs before routing so overridden methods reach their routes.
	r.Use(middleware.MethodOverride)

	// Static files (no CSRF)
	r.Handle("/static/*", http.StripPrefix("/static/", s.StaticFS()))

	r.Group(func(r chi.Router) {
		r.Use(middleware.PlaintextCSRF)
		r.Use(csrf.Protect(
			s.csrfKey,
			csrf.Secure(s.useSecureCookies),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
		))
		r.Use(middleware.LoadPrincipal(s.sessions, s.users))

		h := s.handler
		r.Get("/", h.Home)

		r.Get("/users/sign_in", h.ShowSignIn)
		r.Post("/users/sign_in", h.SignIn)
		r.Get("/users/sign_up", h.ShowSignUp)
		r.Post("/users", h.SignUp)
		r.Delete("/users/sign_out", h.SignOut)
		r.Post("/users/sign_out", h.SignOut)

		r.Get("/notes", h.SearchNotes)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/new", h.NewProject)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.ShowProject)
				r.Patch("/", h.UpdateProject)
				r.Put("/", h.UpdateProject)
				r.Delete("/", h.DestroyProject)
				r.Get("/edit", h.EditProject)
				r.Patch("/complete", h.CompleteProject)

				r.Post("/tasks", h.CreateTask)
				r.Patch("/tasks/{taskID}/toggle", h.ToggleTask)
				r.Delete("/tasks/{taskID}", h.DeleteTask)

				r.Get("/notes", h.SearchNotes)
				r.Post("/notes", h.CreateNote)
				r.Delete("/notes/{noteID}", h.DeleteNote)
			})
		})
	})

	return r
}
