package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/projectboard/internal/api/middleware"
	"github.com/good-yellow-bee/projectboard/internal/metrics"
	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/projects"
)

type principalKey struct{}

// loadPrincipal resolves the token subject to a user. Tokens of deleted
// accounts are rejected.
func (s *Server) loadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.users.Get(r.Context(), middleware.GetUserID(r.Context()))
		if err != nil {
			log.Printf("load principal: %v", err)
			JSONError(w, ErrInternalServer)
			return
		}
		if user == nil {
			metrics.AccessDeniedTotal.WithLabelValues("unknown_user").Inc()
			JSONError(w, ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, user)))
	})
}

func principal(r *http.Request) *models.User {
	u, _ := r.Context().Value(principalKey{}).(*models.User)
	return u
}

// ProjectRequest is the body of create and update calls. Omitted fields are
// left untouched; an empty due_on clears the date.
type ProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	DueOn       *string `json:"due_on"`
}

// TaskRequest is the body of a task creation.
type TaskRequest struct {
	Name string `json:"name"`
}

// NoteRequest is the body of a note creation.
type NoteRequest struct {
	Message string `json:"message"`
}

// respond writes the error behind out, or calls success when there is none.
func (s *Server) respond(w http.ResponseWriter, out *projects.Outcome, err error, success func(out *projects.Outcome)) {
	if err != nil {
		log.Printf("api error: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}
	if apiErr := outcomeError(out); apiErr != nil {
		JSONError(w, apiErr)
		return
	}
	success(out)
}

// writeDetail answers with the current state of a project.
func (s *Server) writeDetail(w http.ResponseWriter, r *http.Request, id string, status int) {
	out, err := s.projects.Show(r.Context(), principal(r), id)
	s.respond(w, out, err, func(out *projects.Outcome) {
		JSON(w, status, &ProjectDetailResponse{
			ProjectResponse: toProjectResponse(out.Project, out.Now),
			Owner:           toUserResponse(out.Owner),
			Tasks:           nonNil(out.Tasks),
			Notes:           nonNil(out.Notes),
		})
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	OK(w, toUserResponse(principal(r)))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	out, err := s.projects.Index(r.Context(), principal(r))
	s.respond(w, out, err, func(out *projects.Outcome) {
		items := make([]ProjectResponse, 0, len(out.Projects))
		for _, p := range out.Projects {
			items = append(items, toProjectResponse(p, out.Now))
		}
		OK(w, items)
	})
}

func (s *Server) showProject(w http.ResponseWriter, r *http.Request) {
	s.writeDetail(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func decodeProject(r *http.Request) (projects.Params, error) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return projects.Params{}, err
	}
	return projects.Params{Name: req.Name, Description: req.Description, DueOn: req.DueOn}, nil
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	params, err := decodeProject(r)
	if err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	out, err := s.projects.Create(r.Context(), principal(r), params)
	s.respond(w, out, err, func(out *projects.Outcome) {
		Created(w, toProjectResponse(out.Project, time.Now()))
	})
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	params, err := decodeProject(r)
	if err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	out, err := s.projects.Update(r.Context(), principal(r), chi.URLParam(r, "id"), params)
	s.respond(w, out, err, func(out *projects.Outcome) {
		OK(w, toProjectResponse(out.Project, time.Now()))
	})
}

func (s *Server) destroyProject(w http.ResponseWriter, r *http.Request) {
	out, err := s.projects.Destroy(r.Context(), principal(r), chi.URLParam(r, "id"))
	s.respond(w, out, err, func(*projects.Outcome) {
		NoContent(w)
	})
}

func (s *Server) completeProject(w http.ResponseWriter, r *http.Request) {
	out, err := s.projects.Complete(r.Context(), principal(r), chi.URLParam(r, "id"))
	s.respond(w, out, err, func(out *projects.Outcome) {
		OK(w, toProjectResponse(out.Project, time.Now()))
	})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	id := chi.URLParam(r, "id")
	out, err := s.projects.CreateTask(r.Context(), principal(r), id, req.Name)
	s.respond(w, out, err, func(*projects.Outcome) {
		s.writeDetail(w, r, id, http.StatusCreated)
	})
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.projects.ToggleTask(r.Context(), principal(r), id, chi.URLParam(r, "taskID"))
	s.respond(w, out, err, func(*projects.Outcome) {
		s.writeDetail(w, r, id, http.StatusOK)
	})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	out, err := s.projects.DeleteTask(r.Context(), principal(r), chi.URLParam(r, "id"), chi.URLParam(r, "taskID"))
	s.respond(w, out, err, func(*projects.Outcome) {
		NoContent(w)
	})
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	id := chi.URLParam(r, "id")
	out, err := s.projects.CreateNote(r.Context(), principal(r), id, req.Message)
	s.respond(w, out, err, func(*projects.Outcome) {
		s.writeDetail(w, r, id, http.StatusCreated)
	})
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	out, err := s.projects.DeleteNote(r.Context(), principal(r), chi.URLParam(r, "id"), chi.URLParam(r, "noteID"))
	s.respond(w, out, err, func(*projects.Outcome) {
		NoContent(w)
	})
}

// searchNotes serves both the per-project and the account-wide note search.
func (s *Server) searchNotes(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	out, err := s.projects.SearchNotes(r.Context(), principal(r), chi.URLParam(r, "id"), term)
	s.respond(w, out, err, func(out *projects.Outcome) {
		OK(w, &NotesResponse{Term: out.Term, Count: len(out.Notes), Notes: nonNil(out.Notes)})
	})
}
