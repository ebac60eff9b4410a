// Package users handles sign-up, sign-in and the background work that
// follows account changes.
package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/good-yellow-bee/projectboard/internal/auth"
	"github.com/good-yellow-bee/projectboard/internal/jobs"
	"github.com/good-yellow-bee/projectboard/internal/metrics"
	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/storage"
	"github.com/good-yellow-bee/projectboard/internal/validation"
)

// ErrLocked is returned by Authenticate while an account is locked out.
var ErrLocked = errors.New("account temporarily locked")

// SignUpParams carries the sign-up form.
type SignUpParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Service manages user accounts.
type Service struct {
	storage   storage.Storage
	validator *validation.Validator
	hasher    auth.Hasher
	lockout   *auth.LockoutTracker
	queue     jobs.Queue
	now       func() time.Time
}

// NewService creates a user service. queue receives the welcome and geocoding
// jobs; lockout may be nil to disable lockouts.
func NewService(store storage.Storage, queue jobs.Queue, lockout *auth.LockoutTracker) *Service {
	return &Service{
		storage:   store,
		validator: validation.NewValidator(nil, store.Users()),
		hasher:    auth.DefaultHasher,
		lockout:   lockout,
		queue:     queue,
		now:       time.Now,
	}
}

// SetHasher replaces the password hasher (tests use bcrypt.MinCost).
func (s *Service) SetHasher(h auth.Hasher) {
	s.hasher = h
}

// SignUp creates an account. A non-empty ip is recorded as the sign-in
// address. Invalid input is reported through the returned Errors with a nil
// user and nil error.
func (s *Service) SignUp(ctx context.Context, params SignUpParams, ip string) (*models.User, validation.Errors, error) {
	now := s.now()
	user := models.NewUser(params.FirstName, params.LastName, params.Email)
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastSignInIP = strings.TrimSpace(ip)

	errs, err := s.validator.User(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	if msg := auth.ValidatePassword(params.Password); msg != "" {
		errs.Add("password", msg)
	}
	if len(errs) > 0 {
		return nil, errs, nil
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = hash

	if err := s.storage.Users().Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, validation.Errors{"email": {validation.MsgTaken}}, nil
		}
		metrics.StorageErrors.WithLabelValues("create_user").Inc()
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("user created: %s (%s)", user.Email, user.ID)

	s.enqueue(ctx, jobs.New(jobs.KindWelcomeEmail, user.ID))
	if user.LastSignInIP != "" {
		s.enqueueGeocode(ctx, user)
	}
	return user, nil, nil
}

// Authenticate checks email and password and records the sign-in from ip.
// It returns auth.ErrInvalidCredentials or ErrLocked on failure.
func (s *Service) Authenticate(ctx context.Context, email, password, ip string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if s.lockout != nil && s.lockout.IsLocked(email) {
		metrics.AuthAttemptsTotal.WithLabelValues("locked").Inc()
		return nil, fmt.Errorf("%w: try again in %s", ErrLocked, s.lockout.RemainingLockoutTime(email).Round(time.Second))
	}

	user, err := s.storage.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if err := s.hasher.Compare(hash, password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, err
		}
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		if s.lockout != nil && s.lockout.RecordFailure(email) {
			log.Printf("account locked after repeated failures: %s", email)
		}
		return nil, auth.ErrInvalidCredentials
	}

	if s.lockout != nil {
		s.lockout.ClearFailures(email)
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	ip = strings.TrimSpace(ip)
	if ip != "" {
		changed := ip != user.LastSignInIP
		if err := s.storage.Users().UpdateSignIn(ctx, user.ID, ip, s.now()); err != nil {
			log.Printf("update sign-in error: %v", err)
		} else {
			user.LastSignInIP = ip
		}
		if changed {
			s.enqueueGeocode(ctx, user)
		}
	}
	return user, nil
}

// Get returns the user with id, or nil.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	return s.storage.Users().GetByID(ctx, id)
}

func (s *Service) enqueueGeocode(ctx context.Context, user *models.User) {
	job := jobs.New(jobs.KindGeocodeUser, user.ID)
	job.IP = user.LastSignInIP
	s.enqueue(ctx, job)
}

// enqueue never fails the caller; lost jobs are logged and counted by the queue.
func (s *Service) enqueue(ctx context.Context, job jobs.Job) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		log.Printf("enqueue %s job for user %s error: %v", job.Kind, job.UserID, err)
	}
}
