// Package projects sequences authorization, validation and persistence for
// project operations and decides where each request ends up.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/good-yellow-bee/projectboard/internal/authz"
	"github.com/good-yellow-bee/projectboard/internal/metrics"
	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/storage"
	"github.com/good-yellow-bee/projectboard/internal/validation"
)

// Flash messages.
const (
	MsgCreated          = "Project was successfully created."
	MsgUpdated          = "Project was successfully updated."
	MsgDestroyed        = "Project was successfully destroyed."
	MsgCompleted        = "Congratulations, this project is complete!"
	MsgCompletionFailed = "Unable to complete project."
)

// Params carries submitted project fields. Nil fields are left untouched.
type Params struct {
	Name        *string
	Description *string
	DueOn       *string // YYYY-MM-DD, empty clears
}

// Service runs project operations for a principal.
type Service struct {
	storage   storage.Storage
	validator *validation.Validator
	now       func() time.Time
}

// NewService creates a project service backed by store.
func NewService(store storage.Storage) *Service {
	return &Service{
		storage:   store,
		validator: validation.NewValidator(store.Projects(), store.Users()),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for timestamps and lateness.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Index lists the principal's projects.
func (s *Service) Index(ctx context.Context, principal *models.User) (*Outcome, error) {
	if authz.Authenticated(principal) != authz.Allow {
		return s.deny(authz.RequireAuthentication), nil
	}

	projects, err := s.storage.Projects().ListByOwner(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := render(ViewIndex, http.StatusOK)
	out.Projects = projects
	out.Now = s.now()
	return out, nil
}

// Show loads a project page with its owner, tasks and notes.
func (s *Service) Show(ctx context.Context, principal *models.User, id string) (*Outcome, error) {
	project, denied, err := s.authorize(ctx, principal, id)
	if err != nil || denied != nil {
		return denied, err
	}

	owner, err := s.storage.Users().GetByID(ctx, project.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	tasks, err := s.storage.Tasks().ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	notes, err := s.storage.Notes().List(ctx, storage.NoteFilter{ProjectID: project.ID})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	now := s.now()
	out := render(ViewShow, http.StatusOK)
	out.Project = project
	out.Owner = owner
	out.Tasks = tasks
	out.Notes = notes
	out.Now = now
	out.Late = project.Late(now)
	return out, nil
}

// New returns an empty project form.
func (s *Service) New(ctx context.Context, principal *models.User) (*Outcome, error) {
	if authz.Authenticated(principal) != authz.Allow {
		return s.deny(authz.RequireAuthentication), nil
	}
	out := render(ViewNew, http.StatusOK)
	out.Project = &models.Project{OwnerID: principal.ID}
	return out, nil
}

// Edit returns the edit form of an owned project.
func (s *Service) Edit(ctx context.Context, principal *models.User, id string) (*Outcome, error) {
	project, denied, err := s.authorize(ctx, principal, id)
	if err != nil || denied != nil {
		return denied, err
	}
	out := render(ViewEdit, http.StatusOK)
	out.Project = project
	return out, nil
}

// Create persists a new project owned by the principal.
func (s *Service) Create(ctx context.Context, principal *models.User, params Params) (*Outcome, error) {
	if authz.Authenticated(principal) != authz.Allow {
		return s.deny(authz.RequireAuthentication), nil
	}

	now := s.now()
	project := models.NewProject(principal.ID, "", "")
	project.CreatedAt = now
	project.UpdatedAt = now

	errs, err := s.validate(ctx, project, params)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return invalid(ViewNew, project, errs), nil
	}

	if err := s.storage.Projects().Create(ctx, project); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return invalid(ViewNew, project, conflictErrors()), nil
		}
		metrics.StorageErrors.WithLabelValues("create_project").Inc()
		return nil, fmt.Errorf("create project: %w", err)
	}

	metrics.ProjectEventsTotal.WithLabelValues("created").Inc()
	log.Printf("project created: %s (%s) by %s", project.Name, project.ID, principal.ID)

	out := redirect(ProjectPath(project.ID), notice(MsgCreated), nil)
	out.Project = project
	return out, nil
}

// Update applies params to an owned project.
func (s *Service) Update(ctx context.Context, principal *models.User, id string, params Params) (*Outcome, error) {
	current, denied, err := s.authorize(ctx, principal, id)
	if err != nil || denied != nil {
		return denied, err
	}

	project := current.Clone()
	project.UpdatedAt = s.now()

	errs, err := s.validate(ctx, project, params)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return invalid(ViewEdit, project, errs), nil
	}

	if err := s.storage.Projects().Update(ctx, project); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return invalid(ViewEdit, project, conflictErrors()), nil
		}
		metrics.StorageErrors.WithLabelValues("update_project").Inc()
		return nil, fmt.Errorf("update project: %w", err)
	}

	metrics.ProjectEventsTotal.WithLabelValues("updated").Inc()
	log.Printf("project updated: %s (%s)", project.Name, project.ID)

	out := redirect(ProjectPath(project.ID), notice(MsgUpdated), nil)
	out.Project = project
	return out, nil
}

// Destroy deletes an owned project together with its tasks and notes.
func (s *Service) Destroy(ctx context.Context, principal *models.User, id string) (*Outcome, error) {
	project, denied, err := s.authorize(ctx, principal, id)
	if err != nil || denied != nil {
		return denied, err
	}

	if err := s.storage.Projects().Delete(ctx, project.ID); err != nil {
		metrics.StorageErrors.WithLabelValues("delete_project").Inc()
		return nil, fmt.Errorf("delete project: %w", err)
	}

	metrics.ProjectEventsTotal.WithLabelValues("destroyed").Inc()
	log.Printf("project deleted: %s (%s)", project.Name, project.ID)

	return redirect(ProjectsPath, notice(MsgDestroyed), nil), nil
}

// Complete marks an owned project completed. When validation or the store
// refuses the change the stored flag is left as it was.
func (s *Service) Complete(ctx context.Context, principal *models.User, id string) (*Outcome, error) {
	current, denied, err := s.authorize(ctx, principal, id)
	if err != nil || denied != nil {
		return denied, err
	}

	project := current.Clone()
	done := true
	project.Completed = &done
	project.UpdatedAt = s.now()

	if err := s.completeProject(ctx, project); err != nil {
		metrics.ProjectEventsTotal.WithLabelValues("complete_failed").Inc()
		log.Printf("complete project %s failed: %v", project.ID, err)
		out := redirect(ProjectPath(current.ID), alert(MsgCompletionFailed), ErrPersistenceRejected)
		out.Project = current
		return out, nil
	}

	metrics.ProjectEventsTotal.WithLabelValues("completed").Inc()
	log.Printf("project completed: %s (%s)", project.Name, project.ID)

	out := redirect(ProjectPath(project.ID), notice(MsgCompleted), nil)
	out.Project = project
	return out, nil
}

func (s *Service) completeProject(ctx context.Context, project *models.Project) error {
	errs, err := s.validator.Project(ctx, project)
	if err != nil {
		return err
	}
	if err := errs.Err(); err != nil {
		return err
	}
	return s.storage.Projects().Update(ctx, project)
}

// authorize loads project id and applies the ownership guard. Exactly one of
// project and denied is non-nil unless err is set.
func (s *Service) authorize(ctx context.Context, principal *models.User, id string) (*models.Project, *Outcome, error) {
	if d := authz.Authenticated(principal); d != authz.Allow {
		return nil, s.deny(d), nil
	}

	project, err := s.storage.Projects().GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, notFound(), nil
	}

	if d := authz.Owner(principal, project); d != authz.Allow {
		log.Printf("access denied: user %s on project %s", principal.ID, project.ID)
		return nil, s.deny(d), nil
	}
	return project, nil, nil
}

func (s *Service) deny(d authz.Decision) *Outcome {
	if d == authz.RequireAuthentication {
		metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
		return signInRedirect()
	}
	metrics.AccessDeniedTotal.WithLabelValues("not_owner").Inc()
	return dashboardRedirect()
}

// validate applies params to project and checks it.
func (s *Service) validate(ctx context.Context, project *models.Project, params Params) (validation.Errors, error) {
	parseErrs := apply(project, params)
	errs, err := s.validator.Project(ctx, project)
	if err != nil {
		return nil, err
	}
	errs.Merge(parseErrs)
	return errs, nil
}

func apply(project *models.Project, params Params) validation.Errors {
	errs := validation.Errors{}
	if params.Name != nil {
		project.Name = strings.TrimSpace(*params.Name)
	}
	if params.Description != nil {
		project.Description = strings.TrimSpace(*params.Description)
	}
	if params.DueOn != nil {
		raw := strings.TrimSpace(*params.DueOn)
		if raw == "" {
			project.DueOn = nil
		} else if due, err := models.ParseDate(raw); err != nil {
			errs.Add("due_on", validation.MsgBadDate)
		} else {
			project.DueOn = &due
		}
	}
	return errs
}

func invalid(view View, project *models.Project, errs validation.Errors) *Outcome {
	out := render(view, http.StatusUnprocessableEntity)
	out.Project = project
	out.Errors = errs
	out.Err = errs
	return out
}

func conflictErrors() validation.Errors {
	errs := validation.Errors{}
	errs.Add("name", validation.MsgTaken)
	return errs
}
