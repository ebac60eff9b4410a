// Package middleware provides HTTP middleware for the web UI.
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	apimw "github.com/good-yellow-bee/projectboard/internal/api/middleware"
	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/web/handlers"
	"github.com/good-yellow-bee/projectboard/internal/web/session"
)

// UserFinder loads the user a session belongs to.
type UserFinder interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// LoadPrincipal attaches the session and its user, if any, to the request.
// Guests pass through; authorization happens in the handlers.
func LoadPrincipal(store *session.Store, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, ok := store.Get(cookie.Value)
			if !ok {
				http.SetCookie(w, &http.Cookie{
					Name:   session.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1,
				})
				next.ServeHTTP(w, r)
				return
			}

			var user *models.User
			if sess.UserID != "" {
				user, err = users.Get(r.Context(), sess.UserID)
				if err != nil {
					log.Printf("load session user %s error: %v", sess.UserID, err)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithPrincipal(r.Context(), sess, user)))
		})
	}
}

// MethodOverride lets HTML forms send PATCH, PUT and DELETE through a POST
// with a "_method" field.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch m := strings.ToUpper(r.PostFormValue("_method")); m {
			case http.MethodPatch, http.MethodPut, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

// PlaintextCSRF marks plain HTTP requests so the CSRF check does not demand an
// HTTPS Referer. It must run before csrf.Protect.
func PlaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !apimw.IsRequestSecure(r) {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}
