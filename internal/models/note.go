package models

import (
	"time"
)

// Note is a free-text message attached to a project by its author.
type Note struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id" validate:"exists"`
	UserID    string    `json:"user_id" validate:"exists"`
	Message   string    `json:"message" validate:"notblank,max=5000"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNote creates a new Note authored by userID.
func NewNote(projectID, userID, message string) *Note {
	return &Note{
		ProjectID: projectID,
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
