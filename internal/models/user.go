package models

import (
	"strings"
	"time"
)

// User is an account that owns projects and authors notes.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name" validate:"notblank,max=100"`
	LastName     string    `json:"last_name" validate:"notblank,max=100"`
	Email        string    `json:"email" validate:"notblank,max=255,email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	LastSignInIP string    `json:"last_sign_in_ip,omitempty"`
	Location     string    `json:"location,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a new User with initialized timestamps.
func NewUser(firstName, lastName, email string) *User {
	now := time.Now()
	return &User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.TrimSpace(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Name returns the user's full name.
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
