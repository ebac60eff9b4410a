package projects

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/projectboard/internal/authz"
	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/search"
	"github.com/good-yellow-bee/projectboard/internal/storage"
	"github.com/good-yellow-bee/projectboard/internal/validation"
)

// Task and note flash messages.
const (
	MsgTaskCreated   = "Task was successfully created."
	MsgTaskUpdated   = "Task was successfully updated."
	MsgTaskDestroyed = "Task was successfully destroyed."
	MsgNoteCreated   = "Note was successfully created."
	MsgNoteDestroyed = "Note was successfully destroyed."
)

// CreateTask adds a task to an owned project.
func (s *Service) CreateTask(ctx context.Context, principal *models.User, projectID, name string) (*Outcome, error) {
	project, denied, err := s.authorize(ctx, principal, projectID)
	if err != nil || denied != nil {
		return denied, err
	}

	task := models.NewTask(project.ID, strings.TrimSpace(name))
	task.CreatedAt = s.now()
	task.UpdatedAt = task.CreatedAt

	if errs := validation.ValidateTask(task); len(errs) > 0 {
		return childInvalid(project.ID, errs), nil
	}
	if err := s.storage.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	log.Printf("task created: %s on project %s", task.ID, project.ID)
	return redirect(ProjectPath(project.ID), notice(MsgTaskCreated), nil), nil
}

// ToggleTask flips the done flag of a task in an owned project.
func (s *Service) ToggleTask(ctx context.Context, principal *models.User, projectID, taskID string) (*Outcome, error) {
	project, denied, err := s.authorize(ctx, principal, projectID)
	if err != nil || denied != nil {
		return denied, err
	}

	task, err := s.storage.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil || task.ProjectID != project.ID {
		return notFound(), nil
	}

	task.Done = !task.Done
	task.UpdatedAt = s.now()
	if err := s.storage.Tasks().Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return redirect(ProjectPath(project.ID), notice(MsgTaskUpdated), nil), nil
}

// DeleteTask removes a task from an owned project.
func (s *Service) DeleteTask(ctx context.Context, principal *models.User, projectID, taskID string) (*Outcome, error) {
	project, denied, err := s.authorize(ctx, principal, projectID)
	if err != nil || denied != nil {
		return denied, err
	}

	task, err := s.storage.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil || task.ProjectID != project.ID {
		return notFound(), nil
	}

	if err := s.storage.Tasks().Delete(ctx, task.ID); err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return redirect(ProjectPath(project.ID), notice(MsgTaskDestroyed), nil), nil
}

// CreateNote attaches a note authored by the principal to an owned project.
func (s *Service) CreateNote(ctx context.Context, principal *models.User, projectID, message string) (*Outcome, error) {
	project, denied, err := s.authorize(ctx, principal, projectID)
	if err != nil || denied != nil {
		return denied, err
	}

	note := models.NewNote(project.ID, principal.ID, strings.TrimSpace(message))
	note.CreatedAt = s.now()

	if errs := validation.ValidateNote(note); len(errs) > 0 {
		return childInvalid(project.ID, errs), nil
	}
	if err := s.storage.Notes().Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	log.Printf("note created: %s on project %s", note.ID, project.ID)
	return redirect(ProjectPath(project.ID), notice(MsgNoteCreated), nil), nil
}

// DeleteNote removes a note from an owned project.
func (s *Service) DeleteNote(ctx context.Context, principal *models.User, projectID, noteID string) (*Outcome, error) {
	project, denied, err := s.authorize(ctx, principal, projectID)
	if err != nil || denied != nil {
		return denied, err
	}

	note, err := s.storage.Notes().GetByID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if note == nil || note.ProjectID != project.ID {
		return notFound(), nil
	}

	if err := s.storage.Notes().Delete(ctx, note.ID); err != nil {
		return nil, fmt.Errorf("delete note: %w", err)
	}
	return redirect(ProjectPath(project.ID), notice(MsgNoteDestroyed), nil), nil
}

// SearchNotes filters notes by term. With a projectID the search is limited
// to that owned project, otherwise it covers every project of the principal.
func (s *Service) SearchNotes(ctx context.Context, principal *models.User, projectID, term string) (*Outcome, error) {
	filter := storage.NoteFilter{}
	var project *models.Project

	if projectID != "" {
		p, denied, err := s.authorize(ctx, principal, projectID)
		if err != nil || denied != nil {
			return denied, err
		}
		project = p
		filter.ProjectID = p.ID
	} else {
		if authz.Authenticated(principal) != authz.Allow {
			return s.deny(authz.RequireAuthentication), nil
		}
		filter.OwnerID = principal.ID
	}

	notes, err := s.storage.Notes().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	out := render(ViewNotes, http.StatusOK)
	out.Project = project
	out.Term = term
	out.Notes = search.Notes(term, notes)
	return out, nil
}

func childInvalid(projectID string, errs validation.Errors) *Outcome {
	out := redirect(ProjectPath(projectID), alert(strings.Join(errs.FullMessages(), ", ")), errs)
	out.Errors = errs
	return out
}
