package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

// Response is a standard API response wrapper.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// JSONError writes a JSON error response.
func JSONError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	if encErr := json.NewEncoder(w).Encode(Response{Error: err}); encErr != nil {
		log.Printf("json encode error: %v", encErr)
	}
}

// Created writes a 201 Created response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// OK writes a 200 OK response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// TokenResponse is returned when tokens are issued or rotated.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	TokenType    string `json:"token_type"`
}

// UserResponse is a user without sensitive fields.
type UserResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

// ProjectResponse is a project with its derived state.
type ProjectResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DueOn       string    `json:"due_on,omitempty"` // YYYY-MM-DD
	Completed   bool      `json:"completed"`
	Late        bool      `json:"late"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResponse(p *models.Project, now time.Time) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Completed:   p.IsCompleted(),
		Late:        p.Late(now),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.DueOn != nil {
		resp.DueOn = p.DueOn.Format(models.DateLayout)
	}
	return resp
}

// ProjectDetailResponse is a project together with its owner, tasks and notes.
type ProjectDetailResponse struct {
	ProjectResponse
	Owner *UserResponse   `json:"owner,omitempty"`
	Tasks []*models.Task `json:"tasks"`
	Notes []*models.Note `json:"notes"`
}

// NotesResponse is the result of a note search.
type NotesResponse struct {
	Term  string         `json:"term"`
	Count int            `json:"count"`
	Notes []*models.Note `json:"notes"`
}
