// Package notifier delivers account notifications such as the welcome mail.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/good-yellow-bee/projectboard/internal/metrics"
	"github.com/good-yellow-bee/projectboard/internal/models"
)

// Message is one notification. Email notifiers deliver the bodies to To;
// chat notifiers post Summary to their channel.
type Message struct {
	To      []string
	Subject string
	Plain   string
	HTML    string
	Summary string
}

// Notifier is the interface for all notification channels.
type Notifier interface {
	// Name returns the notifier name (e.g., "email", "slack").
	Name() string
	Send(ctx context.Context, msg *Message) error
	Close() error
}

// ErrRateLimited is returned when a notification is dropped due to rate limiting.
var ErrRateLimited = errors.New("notification rate limited")

// Dispatcher fans a message out to every registered notifier.
type Dispatcher struct {
	mu          sync.RWMutex
	notifiers   map[string]Notifier
	rateLimiter *RateLimiter
	templates   *Templates
}

// NewDispatcher creates a dispatcher with the given rate limit.
func NewDispatcher(config RateLimitConfig) (*Dispatcher, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &Dispatcher{
		notifiers:   make(map[string]Notifier),
		rateLimiter: NewRateLimiter(config),
		templates:   templates,
	}, nil
}

// Register adds a notifier, replacing one with the same name.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Get returns a notifier by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Dispatch sends msg through every notifier. The rate limit token is
// refunded when no notifier succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) error {
	if !d.rateLimiter.Allow() {
		metrics.NotificationsSentTotal.WithLabelValues("dispatcher", "rate_limited").Inc()
		return ErrRateLimited
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.notifiers) == 0 {
		d.rateLimiter.Release()
		return nil
	}

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			metrics.NotificationsSentTotal.WithLabelValues(name, "failure").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.NotificationsSentTotal.WithLabelValues(name, "success").Inc()
	}

	if len(errs) == len(d.notifiers) {
		d.rateLimiter.Release()
	}
	return errors.Join(errs...)
}

// SendWelcome renders and dispatches the welcome notification for user.
func (d *Dispatcher) SendWelcome(ctx context.Context, user *models.User) error {
	msg, err := d.templates.Welcome(user)
	if err != nil {
		return fmt.Errorf("render welcome: %w", err)
	}
	return d.Dispatch(ctx, msg)
}

// RateLimitStats returns the rate limiter statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	return d.rateLimiter.Stats()
}

// Close closes all registered notifiers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)
	return errors.Join(errs...)
}
