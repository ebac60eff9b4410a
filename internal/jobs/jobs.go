// Package jobs runs side effects outside the request that triggered them.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what a job does.
type Kind string

const (
	// KindWelcomeEmail sends the welcome notification to a new user.
	KindWelcomeEmail Kind = "welcome_email"
	// KindGeocodeUser resolves a user's sign-in IP to a location.
	KindGeocodeUser Kind = "geocode_user"
)

var (
	// ErrQueueFull is returned by Enqueue when the queue cannot take more work.
	ErrQueueFull = errors.New("job queue full")
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("job queue closed")
)

// Job is a unit of background work about a user.
type Job struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	UserID     string    `json:"user_id"`
	IP         string    `json:"ip,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// New creates a job with a fresh id.
func New(kind Kind, userID string) Job {
	return Job{
		ID:         uuid.New().String(),
		Kind:       kind,
		UserID:     userID,
		EnqueuedAt: time.Now(),
	}
}

// Handler processes jobs.
type Handler interface {
	HandleJob(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

// HandleJob calls f.
func (f HandlerFunc) HandleJob(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Queue accepts jobs from request handlers and delivers them to a Handler.
type Queue interface {
	// Enqueue hands off job without waiting for it to run.
	Enqueue(ctx context.Context, job Job) error
	// Run delivers jobs to h until ctx is cancelled or the queue is closed.
	Run(ctx context.Context, h Handler) error
	// Close stops accepting jobs.
	Close() error
}
