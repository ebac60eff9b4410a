package users

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/good-yellow-bee/projectboard/internal/geo"
	"github.com/good-yellow-bee/projectboard/internal/jobs"
	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/storage"
)

// Welcomer sends the welcome notification.
type Welcomer interface {
	SendWelcome(ctx context.Context, user *models.User) error
}

// JobHandler runs the user jobs enqueued by Service.
type JobHandler struct {
	storage  storage.Storage
	welcomer Welcomer
	resolver geo.Resolver
}

// NewJobHandler creates a handler. A nil welcomer or resolver skips that job kind.
func NewJobHandler(store storage.Storage, welcomer Welcomer, resolver geo.Resolver) *JobHandler {
	return &JobHandler{storage: store, welcomer: welcomer, resolver: resolver}
}

// HandleJob implements jobs.Handler.
func (h *JobHandler) HandleJob(ctx context.Context, job jobs.Job) error {
	user, err := h.storage.Users().GetByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		log.Printf("skip %s job: user %s no longer exists", job.Kind, job.UserID)
		return nil
	}

	switch job.Kind {
	case jobs.KindWelcomeEmail:
		return h.welcome(ctx, user)
	case jobs.KindGeocodeUser:
		return h.geocode(ctx, user, job.IP)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func (h *JobHandler) welcome(ctx context.Context, user *models.User) error {
	if h.welcomer == nil {
		return nil
	}
	if err := h.welcomer.SendWelcome(ctx, user); err != nil {
		return fmt.Errorf("send welcome to %s: %w", user.Email, err)
	}
	log.Printf("welcome sent: %s", user.Email)
	return nil
}

// geocode leaves the location unset when the address cannot be resolved.
func (h *JobHandler) geocode(ctx context.Context, user *models.User, ip string) error {
	if h.resolver == nil {
		return nil
	}
	if ip == "" {
		ip = user.LastSignInIP
	}
	if ip == "" {
		return nil
	}

	location, err := h.resolver.Locate(ctx, ip)
	if errors.Is(err, geo.ErrNotRoutable) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("locate %s: %w", ip, err)
	}
	if location == "" || location == user.Location {
		return nil
	}

	if err := h.storage.Users().UpdateLocation(ctx, user.ID, location); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	log.Printf("user %s located: %s", user.ID, location)
	return nil
}
