package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/projectboard/internal/api"
	"github.com/good-yellow-bee/projectboard/internal/auth"
	"github.com/good-yellow-bee/projectboard/internal/geo"
	"github.com/good-yellow-bee/projectboard/internal/jobs"
	"github.com/good-yellow-bee/projectboard/internal/metrics"
	"github.com/good-yellow-bee/projectboard/internal/notifier"
	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/users"
	"github.com/good-yellow-bee/projectboard/internal/web"
	"github.com/good-yellow-bee/projectboard/internal/web/session"
	"github.com/good-yellow-bee/projectboard/pkg/config"
)

var (
	httpAddr string
	envFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server and background workers",
	Long: `Run the HTML interface, the JSON API, the metrics listener and the
background job workers until interrupted.

Secrets are read from the environment, after loading --env-file if it exists:
  PROJECTBOARD_SESSION_KEY    64 hex characters (CSRF and session key)
  PROJECTBOARD_JWT_SECRET     at least 32 characters
  PROJECTBOARD_SMTP_PASSWORD  SMTP password when notify.email is set`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (overrides server.http_address)")
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file with secrets (ignored when missing)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	if err := cfg.LoadSecrets(os.Getenv); err != nil {
		return err
	}

	store, err := openStorage(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Printf("database initialized at %s", cfg.Database.Path)

	queue, err := newQueue(cfg.Jobs)
	if err != nil {
		return fmt.Errorf("create job queue: %w", err)
	}
	defer queue.Close()

	dispatcher, err := newDispatcher(cfg.Notify)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}
	defer dispatcher.Close()

	var resolver geo.Resolver
	if cfg.Geo.Enabled {
		resolver = geo.NewHTTPResolver(cfg.Geo.Config)
	}

	lockout := auth.NewLockoutTracker(cfg.Auth.LockoutThreshold, cfg.Auth.LockoutDuration)
	userService := users.NewService(store, queue, lockout)
	projectService := projects.NewService(store)

	sessions := session.NewStore(cfg.Server.SessionTTL)
	webUI, err := web.NewServer(projectService, userService, sessions, cfg.SessionKey, cfg.Server.SecureCookies)
	if err != nil {
		return fmt.Errorf("create web UI: %w", err)
	}

	srv, err := api.New(&api.Config{
		Address:         cfg.Server.HTTPAddress,
		JWTSecret:       cfg.JWTSecret,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		RateLimitPerIP:  cfg.Auth.RateLimitPerIP,
		TLSCertFile:     cfg.Server.TLS.CertFile,
		TLSKeyFile:      cfg.Server.TLS.KeyFile,
		TrustedProxies:  cfg.Server.TrustedProxies,
		Verbose:         cfg.Verbose,
	}, store, userService, projectService, webUI.Routes())
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return queue.Run(ctx, users.NewJobHandler(store, dispatcher, resolver)) })
	g.Go(func() error { return sessions.Run(ctx, time.Minute) })
	g.Go(func() error { return sweepTokens(ctx, auth.NewTokenService(store, cfg.Auth.RefreshTokenTTL), time.Hour) })
	if cfg.Server.MetricsAddress != "" {
		g.Go(func() error { return metrics.NewServer(cfg.Server.MetricsAddress).Run(ctx) })
	}

	log.Printf("starting projectboard %s", config.Version)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	log.Printf("server stopped")
	return nil
}

// loadEnvFile loads path into the environment when it exists. Variables
// already set take precedence.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func newQueue(cfg JobsConfig) (jobs.Queue, error) {
	switch cfg.Backend {
	case "kafka":
		log.Printf("job queue: kafka %v topic %s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
		q, err := jobs.NewKafkaQueue(jobs.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return jobs.NewMemoryQueue(cfg.QueueSize, cfg.Workers), nil
	}
}

// newDispatcher registers the configured channels, falling back to the log.
func newDispatcher(cfg NotifyConfig) (*notifier.Dispatcher, error) {
	d, err := notifier.NewDispatcher(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	if cfg.Email != nil {
		n, err := notifier.NewEmailNotifier(*cfg.Email)
		if err != nil {
			return nil, err
		}
		d.Register(n)
	}
	if cfg.Slack != nil {
		n, err := notifier.NewSlackNotifier(*cfg.Slack)
		if err != nil {
			return nil, err
		}
		d.Register(n)
	}
	if cfg.Email == nil && cfg.Slack == nil {
		d.Register(notifier.LogNotifier{})
	}
	return d, nil
}

type tokenSweeper interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// sweepTokens deletes expired refresh tokens every interval.
func sweepTokens(ctx context.Context, tokens tokenSweeper, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := tokens.CleanupExpiredTokens(ctx)
			if err != nil {
				metrics.StorageErrors.WithLabelValues("cleanup_tokens").Inc()
				log.Printf("cleanup expired tokens error: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("removed %d expired refresh tokens", n)
			}
		}
	}
}
