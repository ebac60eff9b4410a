package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/projectboard/internal/auth"
	apimw "github.com/good-yellow-bee/projectboard/internal/api/middleware"
	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/users"
	"github.com/good-yellow-bee/projectboard/internal/web/session"
	"github.com/good-yellow-bee/projectboard/internal/web/views"
)

// Flash messages of the account pages.
const (
	MsgSignedIn        = "Signed in successfully."
	MsgSignedUp        = "Welcome! You have signed up successfully."
	MsgSignedOut       = "Signed out successfully."
	MsgAlreadySignedIn = "You are already signed in."
	MsgInvalidLogin    = "Invalid email or password."
	MsgLocked          = "Your account is locked. Try again later."
)

func alertFlash(msg string) *session.Flash  { return &session.Flash{Kind: string(projects.FlashAlert), Message: msg} }
func noticeFlash(msg string) *session.Flash { return &session.Flash{Kind: string(projects.FlashNotice), Message: msg} }

func (h *Handler) ShowSignIn(w http.ResponseWriter, r *http.Request) {
	if Principal(r) != nil {
		h.redirect(w, r, projects.DashboardPath, alertFlash(MsgAlreadySignedIn))
		return
	}
	h.render(w, r, http.StatusOK, views.SignIn(h.data(r)))
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	user, err := h.users.Authenticate(r.Context(), email, password, apimw.ClientIP(r))
	if err != nil {
		d := h.data(r)
		d.Form = map[string]string{"email": email}
		switch {
		case errors.Is(err, users.ErrLocked):
			d.Flash = alertFlash(MsgLocked)
			h.render(w, r, http.StatusTooManyRequests, views.SignIn(d))
		case errors.Is(err, auth.ErrInvalidCredentials):
			d.Flash = alertFlash(MsgInvalidLogin)
			h.render(w, r, http.StatusUnauthorized, views.SignIn(d))
		default:
			h.serverError(w, r, err)
		}
		return
	}

	sess, err := h.startSession(w, r, user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	log.Printf("user signed in: %s", user.Email)
	h.sessions.SetFlash(sess.ID, noticeFlash(MsgSignedIn))
	http.Redirect(w, r, projects.DashboardPath, http.StatusFound)
}

func (h *Handler) ShowSignUp(w http.ResponseWriter, r *http.Request) {
	if Principal(r) != nil {
		h.redirect(w, r, projects.DashboardPath, alertFlash(MsgAlreadySignedIn))
		return
	}
	h.render(w, r, http.StatusOK, views.SignUp(h.data(r)))
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	params := users.SignUpParams{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
	}

	user, errs, err := h.users.SignUp(r.Context(), params, apimw.ClientIP(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if len(errs) > 0 {
		d := h.data(r)
		d.Errors = errs.FullMessages()
		d.Form = map[string]string{
			"first_name": params.FirstName,
			"last_name":  params.LastName,
			"email":      params.Email,
		}
		h.render(w, r, http.StatusUnprocessableEntity, views.SignUp(d))
		return
	}

	sess, err := h.startSession(w, r, user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.sessions.SetFlash(sess.ID, noticeFlash(MsgSignedUp))
	http.Redirect(w, r, projects.DashboardPath, http.StatusFound)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, err := h.startSession(w, r, "")
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.sessions.SetFlash(sess.ID, noticeFlash(MsgSignedOut))
	http.Redirect(w, r, projects.DashboardPath, http.StatusFound)
}
