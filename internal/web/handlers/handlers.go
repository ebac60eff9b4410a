// Package handlers serves the HTML pages of the web UI.
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/csrf"

	apimw "github.com/good-yellow-bee/projectboard/internal/api/middleware"
	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/users"
	"github.com/good-yellow-bee/projectboard/internal/web/session"
	"github.com/good-yellow-bee/projectboard/internal/web/views"
)

type Handler struct {
	projects      *projects.Service
	users         *users.Service
	sessions      *session.Store
	secureCookies bool
}

func NewHandler(projectService *projects.Service, userService *users.Service, sessions *session.Store, secureCookies bool) *Handler {
	if sessions == nil {
		sessions = session.NewStore(24 * time.Hour)
	}
	return &Handler{
		projects:      projectService,
		users:         userService,
		sessions:      sessions,
		secureCookies: secureCookies,
	}
}

type contextKey string

const (
	SessionContextKey   contextKey = "session"
	PrincipalContextKey contextKey = "principal"
)

// GetSession returns the request's session, or nil.
func GetSession(r *http.Request) *session.Session {
	if s, ok := r.Context().Value(SessionContextKey).(*session.Session); ok {
		return s
	}
	return nil
}

// Principal returns the signed-in user, or nil for guests.
func Principal(r *http.Request) *models.User {
	if u, ok := r.Context().Value(PrincipalContextKey).(*models.User); ok {
		return u
	}
	return nil
}

// WithPrincipal stores the session and its user in ctx.
func WithPrincipal(ctx context.Context, sess *session.Session, user *models.User) context.Context {
	if sess != nil {
		ctx = context.WithValue(ctx, SessionContextKey, sess)
	}
	if user != nil {
		ctx = context.WithValue(ctx, PrincipalContextKey, user)
	}
	return ctx
}

// data prepares the layout fields of a page and consumes the pending flash.
func (h *Handler) data(r *http.Request) views.Data {
	d := views.Data{
		User:      Principal(r),
		CSRFToken: csrf.Token(r),
		Now:       time.Now(),
	}
	if sess := GetSession(r); sess != nil {
		d.Flash = h.sessions.PopFlash(sess.ID)
	}
	return d
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		log.Printf("render %s error: %v", r.URL.Path, err)
	}
}

// redirect stores flash on the session, starting a guest session when there
// is none, and sends a 302.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, to string, flash *session.Flash) {
	if flash != nil {
		sess := GetSession(r)
		if sess == nil || !h.sessions.SetFlash(sess.ID, flash) {
			if guest, err := h.startSession(w, r, ""); err == nil {
				h.sessions.SetFlash(guest.ID, flash)
			}
		}
	}
	http.Redirect(w, r, to, http.StatusFound)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s error: %v", r.Method, r.URL.Path, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// startSession replaces the request's session with a new one for userID.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID string) (*session.Session, error) {
	if old := GetSession(r); old != nil {
		h.sessions.Delete(old.ID)
	}
	sess, err := h.sessions.Create(userID)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies || apimw.IsRequestSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// respond turns a service outcome into a redirect or a rendered page.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, out *projects.Outcome, err error) {
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if out.IsRedirect() {
		var flash *session.Flash
		if out.Flash != nil {
			flash = &session.Flash{Kind: string(out.Flash.Kind), Message: out.Flash.Message}
		}
		h.redirect(w, r, out.Redirect, flash)
		return
	}

	d := h.data(r)
	if out.Status == http.StatusNotFound {
		h.render(w, r, http.StatusNotFound, views.NotFound(d))
		return
	}

	if !out.Now.IsZero() {
		d.Now = out.Now
	}
	d.Project = out.Project
	d.Projects = out.Projects
	d.Owner = out.Owner
	d.Tasks = out.Tasks
	d.Notes = out.Notes
	d.Term = out.Term
	d.Late = out.Late
	if len(out.Errors) > 0 {
		d.Errors = out.Errors.FullMessages()
	}

	var c templ.Component
	switch out.View {
	case projects.ViewIndex:
		c = views.ProjectsIndex(d)
	case projects.ViewShow:
		c = views.ProjectShow(d)
	case projects.ViewNew, projects.ViewEdit:
		c = views.ProjectForm(d)
	case projects.ViewNotes:
		c = views.NotesIndex(d)
	default:
		c = views.NotFound(d)
	}
	h.render(w, r, out.Status, c)
}
