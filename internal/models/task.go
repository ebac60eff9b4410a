package models

import (
	"time"
)

// Task is a to-do item inside a project.
type Task struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id" validate:"exists"`
	Name      string    `json:"name" validate:"notblank,max=200"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a new Task with initialized timestamps.
func NewTask(projectID, name string) *Task {
	now := time.Now()
	return &Task{
		ProjectID: projectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
