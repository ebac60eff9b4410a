// Package api provides the HTTP server: the JSON API under /api/v1, health
// probes and, when supplied, the HTML interface mounted at the root.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/projectboard/internal/api/health"
	"github.com/good-yellow-bee/projectboard/internal/api/middleware"
	"github.com/good-yellow-bee/projectboard/internal/auth"
	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/storage"
	"github.com/good-yellow-bee/projectboard/internal/users"
)

// Config contains HTTP server configuration.
type Config struct {
	Address         string
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RateLimitPerIP  int // token and refresh requests per minute
	TLSCertFile     string // HTTPS when both files are set
	TLSKeyFile      string
	TrustedProxies  []string // proxy IPs/CIDRs whose X-Forwarded-For is believed
	Verbose         bool
}

func (c *Config) tlsEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":3000"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 20
	}
}

// Server is the HTTP server.
type Server struct {
	config    *Config
	storage   storage.Storage
	users     *users.Service
	projects  *projects.Service
	jwt       *auth.JWTService
	tokens    *auth.TokenService
	ipLimiter *middleware.RateLimiter
	proxies   *middleware.TrustedProxies
	health    *health.Handler
	webUI     http.Handler
	server    *http.Server
}

// New creates a server. webUI may be nil, in which case only the JSON API
// and health endpoints are served.
func New(cfg *Config, store storage.Storage, userService *users.Service, projectService *projects.Service, webUI http.Handler) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if userService == nil || projectService == nil {
		return nil, fmt.Errorf("user and project services are required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT secret is required")
	}

	cfg.SetDefaults()

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		storage:   store,
		users:     userService,
		projects:  projectService,
		jwt:       auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL),
		tokens:    auth.NewTokenService(store, cfg.RefreshTokenTTL),
		ipLimiter: middleware.NewRateLimiter(cfg.RateLimitPerIP),
		proxies:   proxies,
		health:    health.NewHandler(),
		webUI:     webUI,
	}
	s.health.RegisterChecker(health.NewStorageChecker(store))

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if cfg.tlsEnabled() {
		s.server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS13}
	}

	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a readiness check.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	s.health.RegisterChecker(c)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It also sweeps idle rate limiter
// entries and drains in-flight requests on shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.ipLimiter.Run(gctx, 5*time.Minute)
	})
	g.Go(func() error {
		var err error
		if s.config.tlsEnabled() {
			log.Printf("HTTPS server listening on %s", ln.Addr())
			err = s.server.ServeTLS(ln, s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			log.Printf("HTTP server listening on %s", ln.Addr())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
