package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	out, err := h.projects.CreateTask(r.Context(), Principal(r), chi.URLParam(r, "id"), r.PostForm.Get("name"))
	h.respond(w, r, out, err)
}

func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.ToggleTask(r.Context(), Principal(r), chi.URLParam(r, "id"), chi.URLParam(r, "taskID"))
	h.respond(w, r, out, err)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.DeleteTask(r.Context(), Principal(r), chi.URLParam(r, "id"), chi.URLParam(r, "taskID"))
	h.respond(w, r, out, err)
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	out, err := h.projects.CreateNote(r.Context(), Principal(r), chi.URLParam(r, "id"), r.PostForm.Get("message"))
	h.respond(w, r, out, err)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.DeleteNote(r.Context(), Principal(r), chi.URLParam(r, "id"), chi.URLParam(r, "noteID"))
	h.respond(w, r, out, err)
}

// SearchNotes searches one project's notes when the route has an id, or all
// of the principal's notes otherwise.
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	out, err := h.projects.SearchNotes(r.Context(), Principal(r), chi.URLParam(r, "id"), r.URL.Query().Get("term"))
	h.respond(w, r, out, err)
}
