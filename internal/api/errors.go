package api

import (
	"errors"
	"net/http"

	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/validation"
)

// Error represents an API error response.
type Error struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
	Status  int                 `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeAccountLocked    = "ACCOUNT_LOCKED"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
)

// Standard errors
var (
	ErrUnauthorized = &Error{
		Code:    ErrCodeUnauthorized,
		Message: "Invalid email or password",
		Status:  http.StatusUnauthorized,
	}

	ErrInvalidToken = &Error{
		Code:    ErrCodeUnauthorized,
		Message: "Invalid or expired token",
		Status:  http.StatusUnauthorized,
	}

	ErrAuthenticationRequired = &Error{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
		Status:  http.StatusUnauthorized,
	}

	ErrForbidden = &Error{
		Code:    ErrCodeForbidden,
		Message: "Access denied",
		Status:  http.StatusForbidden,
	}

	ErrInternalServer = &Error{
		Code:    ErrCodeInternalError,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}

	ErrAccountLocked = &Error{
		Code:    ErrCodeAccountLocked,
		Message: "Account temporarily locked due to too many failed attempts",
		Status:  http.StatusTooManyRequests,
	}
)

// NewBadRequest creates a bad request error with custom message.
func NewBadRequest(message string) *Error {
	return &Error{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewValidationError reports field errors with 422.
func NewValidationError(errs validation.Errors) *Error {
	return &Error{
		Code:    ErrCodeValidationFailed,
		Message: errs.Error(),
		Fields:  errs,
		Status:  http.StatusUnprocessableEntity,
	}
}

// NewConflict creates a conflict error with custom message.
func NewConflict(message string) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// NewNotFound creates a not found error with custom message.
func NewNotFound(message string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// outcomeError maps the error behind a project outcome to an API error.
// It returns nil for successful outcomes.
func outcomeError(out *projects.Outcome) *Error {
	var fieldErrs validation.Errors
	switch {
	case out.Err == nil:
		return nil
	case errors.Is(out.Err, projects.ErrAuthenticationRequired):
		return ErrAuthenticationRequired
	case errors.Is(out.Err, projects.ErrAuthorizationDenied):
		return ErrForbidden
	case errors.Is(out.Err, projects.ErrNotFound):
		return NewNotFound("Resource not found")
	case errors.Is(out.Err, projects.ErrPersistenceRejected):
		msg := "Request rejected"
		if out.Flash != nil {
			msg = out.Flash.Message
		}
		return NewConflict(msg)
	case errors.As(out.Err, &fieldErrs):
		return NewValidationError(fieldErrs)
	default:
		return ErrInternalServer
	}
}
