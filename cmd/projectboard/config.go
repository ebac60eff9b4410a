package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/projectboard/internal/api/middleware"
	"github.com/good-yellow-bee/projectboard/internal/geo"
	"github.com/good-yellow-bee/projectboard/internal/notifier"
)

// Environment variables holding secrets.
const (
	envSessionKey   = "PROJECTBOARD_SESSION_KEY"
	envJWTSecret    = "PROJECTBOARD_JWT_SECRET"
	envSMTPPassword = "PROJECTBOARD_SMTP_PASSWORD"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Notify   NotifyConfig   `yaml:"notify"`
	Geo      GeoConfig      `yaml:"geo"`

	// Loaded from the environment.
	SessionKey []byte `yaml:"-"`
	JWTSecret  []byte `yaml:"-"`

	Verbose bool `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	HTTPAddress    string        `yaml:"http_address"`    // default :3000
	MetricsAddress string        `yaml:"metrics_address"` // empty disables the metrics listener
	SecureCookies  bool          `yaml:"secure_cookies"`  // set behind HTTPS
	SessionTTL     time.Duration `yaml:"session_ttl"`
	TLS            TLSConfig     `yaml:"tls"`
	TrustedProxies []string      `yaml:"trusted_proxies"`
}

// TLSConfig enables HTTPS on the main listener.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains credential and token settings.
type AuthConfig struct {
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl"`
	LockoutThreshold int           `yaml:"lockout_threshold"`
	LockoutDuration  time.Duration `yaml:"lockout_duration"`
	RateLimitPerIP   int           `yaml:"rate_limit_per_ip"`
}

// JobsConfig selects the background job transport.
type JobsConfig struct {
	Backend   string      `yaml:"backend"` // memory or kafka
	Workers   int         `yaml:"workers"`
	QueueSize int         `yaml:"queue_size"`
	Kafka     KafkaConfig `yaml:"kafka"`
}

// KafkaConfig contains broker settings for the kafka backend.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// NotifyConfig configures welcome notifications. Without email or slack
// settings notifications are only logged.
type NotifyConfig struct {
	Email     *notifier.EmailConfig    `yaml:"email"`
	Slack     *notifier.SlackConfig    `yaml:"slack"`
	RateLimit notifier.RateLimitConfig `yaml:"rate_limit"`
}

// GeoConfig configures IP geolocation of sign-ins.
type GeoConfig struct {
	Enabled    bool `yaml:"enabled"`
	geo.Config `yaml:",inline"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{Notify: NotifyConfig{RateLimit: notifier.DefaultRateLimitConfig()}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{Notify: NotifyConfig{RateLimit: notifier.DefaultRateLimitConfig()}}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":3000"
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = 24 * time.Hour
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/projectboard.db"
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration == 0 {
		c.Auth.LockoutDuration = 15 * time.Minute
	}
	if c.Jobs.Backend == "" {
		c.Jobs.Backend = "memory"
	}
	if c.Jobs.Backend == "kafka" && c.Jobs.Kafka.Topic == "" {
		c.Jobs.Kafka.Topic = "projectboard-jobs"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if c.Server.SessionTTL < 0 {
		return fmt.Errorf("server.session_ttl must not be negative")
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.cert_file and server.tls.key_file must be set together")
	}
	if _, err := middleware.ParseTrustedProxies(c.Server.TrustedProxies); err != nil {
		return fmt.Errorf("server.trusted_proxies: %w", err)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Jobs.Backend {
	case "memory":
	case "kafka":
		if len(c.Jobs.Kafka.Brokers) == 0 {
			return fmt.Errorf("jobs.kafka.brokers is required for the kafka backend")
		}
	default:
		return fmt.Errorf("jobs.backend must be memory or kafka, got %q", c.Jobs.Backend)
	}
	if c.Notify.Email != nil {
		if err := c.Notify.Email.Validate(); err != nil {
			return fmt.Errorf("notify.email: %w", err)
		}
	}
	if c.Notify.Slack != nil {
		if err := c.Notify.Slack.Validate(); err != nil {
			return fmt.Errorf("notify.slack: %w", err)
		}
	}
	return nil
}

// LoadSecrets reads the secrets from the environment. The session key is
// 32 bytes, hex encoded.
func (c *Config) LoadSecrets(getenv func(string) string) error {
	raw := strings.TrimSpace(getenv(envSessionKey))
	if raw == "" {
		return fmt.Errorf("%s environment variable is required", envSessionKey)
	}
	key, err := hex.DecodeString(raw)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("%s must be 64 hex characters (32 bytes)", envSessionKey)
	}
	c.SessionKey = key

	secret := getenv(envJWTSecret)
	if len(secret) < 32 {
		return fmt.Errorf("%s must be at least 32 characters", envJWTSecret)
	}
	c.JWTSecret = []byte(secret)

	if c.Notify.Email != nil {
		c.Notify.Email.Password = getenv(envSMTPPassword)
	}
	return nil
}
