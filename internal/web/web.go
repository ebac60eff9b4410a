// Package web serves the HTML user interface.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/users"
	"github.com/good-yellow-bee/projectboard/internal/web/handlers"
	"github.com/good-yellow-bee/projectboard/internal/web/session"
)

//go:embed static
var staticFS embed.FS

type Server struct {
	handler          *handlers.Handler
	users            *users.Service
	sessions         *session.Store
	csrfKey          []byte
	useSecureCookies bool
}

// NewServer creates the web UI. csrfKey must be 32 bytes.
func NewServer(projectService *projects.Service, userService *users.Service, sessions *session.Store, csrfKey []byte, useSecureCookies bool) (*Server, error) {
	if len(csrfKey) != 32 {
		return nil, fmt.Errorf("CSRF key must be 32 bytes, got %d", len(csrfKey))
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	return &Server{
		handler:          handlers.NewHandler(projectService, userService, sessions, useSecureCookies),
		users:            userService,
		sessions:         sessions,
		csrfKey:          csrfKey,
		useSecureCookies: useSecureCookies,
	}, nil
}

func (s *Server) StaticFS() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Unrecoverable init error - server cannot function without static assets
		panic(fmt.Sprintf("failed to create static FS: %v", err))
	}
	return http.FileServer(http.FS(sub))
}

func (s *Server) Sessions() *session.Store {
	return s.sessions
}

func (s *Server) Handler() *handlers.Handler {
	return s.handler
}
