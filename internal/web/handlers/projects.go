package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/web/views"
)

// Home lists the principal's projects, or greets a guest.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	d := h.data(r)
	if principal := Principal(r); principal != nil {
		out, err := h.projects.Index(r.Context(), principal)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		d.Projects = out.Projects
		d.Now = out.Now
	}
	h.render(w, r, http.StatusOK, views.Home(d))
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.Index(r.Context(), Principal(r))
	h.respond(w, r, out, err)
}

func (h *Handler) NewProject(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.New(r.Context(), Principal(r))
	h.respond(w, r, out, err)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	out, err := h.projects.Create(r.Context(), Principal(r), projectParams(r))
	h.respond(w, r, out, err)
}

func (h *Handler) ShowProject(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.Show(r.Context(), Principal(r), chi.URLParam(r, "id"))
	h.respond(w, r, out, err)
}

func (h *Handler) EditProject(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.Edit(r.Context(), Principal(r), chi.URLParam(r, "id"))
	h.respond(w, r, out, err)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	out, err := h.projects.Update(r.Context(), Principal(r), chi.URLParam(r, "id"), projectParams(r))
	h.respond(w, r, out, err)
}

func (h *Handler) DestroyProject(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.Destroy(r.Context(), Principal(r), chi.URLParam(r, "id"))
	h.respond(w, r, out, err)
}

func (h *Handler) CompleteProject(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.Complete(r.Context(), Principal(r), chi.URLParam(r, "id"))
	h.respond(w, r, out, err)
}

// projectParams reads the submitted fields. Fields absent from the form stay nil.
func projectParams(r *http.Request) projects.Params {
	field := func(name string) *string {
		if _, ok := r.PostForm[name]; !ok {
			return nil
		}
		v := r.PostForm.Get(name)
		return &v
	}
	return projects.Params{
		Name:        field("name"),
		Description: field("description"),
		DueOn:       field("due_on"),
	}
}
