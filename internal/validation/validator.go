package validation

import (
	"context"
	"fmt"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

// ProjectLookup finds a project by its owner-scoped name.
type ProjectLookup interface {
	GetByOwnerAndName(ctx context.Context, ownerID, name string) (*models.Project, error)
}

// UserLookup finds a user by email, ignoring case.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Validator combines field rules with uniqueness checks against the store.
// The store's unique indexes remain the authority under concurrent writes.
type Validator struct {
	projects ProjectLookup
	users    UserLookup
}

// NewValidator creates a validator. Either lookup may be nil to skip its check.
func NewValidator(projects ProjectLookup, users UserLookup) *Validator {
	return &Validator{projects: projects, users: users}
}

// Project validates p, including name uniqueness within its owner.
func (v *Validator) Project(ctx context.Context, p *models.Project) (Errors, error) {
	errs := ValidateProject(p)
	if errs.Has("name") || errs.Has("owner") || v.projects == nil {
		return errs, nil
	}

	existing, err := v.projects.GetByOwnerAndName(ctx, p.OwnerID, p.Name)
	if err != nil {
		return nil, fmt.Errorf("check project name: %w", err)
	}
	if existing != nil && existing.ID != p.ID {
		errs.Add("name", MsgTaken)
	}
	return errs, nil
}

// User validates u, including case-insensitive email uniqueness.
func (v *Validator) User(ctx context.Context, u *models.User) (Errors, error) {
	errs := ValidateUser(u)
	if errs.Has("email") || v.users == nil {
		return errs, nil
	}

	existing, err := v.users.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, fmt.Errorf("check user email: %w", err)
	}
	if existing != nil && existing.ID != u.ID {
		errs.Add("email", MsgTaken)
	}
	return errs, nil
}
