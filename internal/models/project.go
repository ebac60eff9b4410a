package models

import (
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Project is a unit of work owned by exactly one user.
type Project struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id" validate:"exists"`
	Name        string     `json:"name" validate:"notblank,max=100"`
	Description string     `json:"description,omitempty" validate:"max=2000"`
	DueOn       *time.Time `json:"due_on,omitempty"`
	// Completed is nil until a completion has been recorded.
	Completed *bool     `json:"completed,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject creates a new Project with initialized timestamps.
func NewProject(ownerID, name, description string) *Project {
	now := time.Now()
	return &Project{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsCompleted reports whether the project has been marked complete.
func (p *Project) IsCompleted() bool {
	return p.Completed != nil && *p.Completed
}

// IsOwnedBy reports whether userID owns the project.
func (p *Project) IsOwnedBy(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// Late reports whether the due date lies strictly before the calendar day of now.
// Completed projects and projects without a due date are never late.
func (p *Project) Late(now time.Time) bool {
	if p.DueOn == nil || p.IsCompleted() {
		return false
	}
	due := time.Date(p.DueOn.Year(), p.DueOn.Month(), p.DueOn.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// Clone returns a copy that shares no pointers with p.
func (p *Project) Clone() *Project {
	c := *p
	if p.DueOn != nil {
		due := *p.DueOn
		c.DueOn = &due
	}
	if p.Completed != nil {
		done := *p.Completed
		c.Completed = &done
	}
	return &c
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
