// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

// ErrConflict is returned when a write violates a unique index.
var ErrConflict = errors.New("unique constraint violation")

// ErrNotFound is returned when an update or delete matches no row.
var ErrNotFound = errors.New("record not found")

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Repository accessors
	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	Notes() NoteRepository
	Tokens() TokenRepository
}

// UserRepository defines operations for user accounts.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail matches email case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateSignIn(ctx context.Context, id, ip string, at time.Time) error
	UpdateLocation(ctx context.Context, id, location string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository defines operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetByOwnerAndName(ctx context.Context, ownerID, name string) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	// Delete removes the project; its tasks and notes cascade.
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// TaskRepository defines operations for project tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	ListByProject(ctx context.Context, projectID string) ([]*models.Task, error)
}

// NoteFilter scopes a note listing. Empty fields are not applied.
type NoteFilter struct {
	ProjectID string
	OwnerID   string // owner of the note's project
}

// NoteRepository defines operations for project notes.
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)
	Delete(ctx context.Context, id string) error
	// List returns notes in insertion order.
	List(ctx context.Context, filter NoteFilter) ([]*models.Note, error)
	Count(ctx context.Context) (int64, error)
}

// TokenRepository defines operations for API refresh tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
