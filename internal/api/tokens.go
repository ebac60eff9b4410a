package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/projectboard/internal/api/middleware"
	"github.com/good-yellow-bee/projectboard/internal/auth"
	"github.com/good-yellow-bee/projectboard/internal/metrics"
	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/users"
)

// TokenRequest is the request body for a token grant.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the request body for refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignUpRequest is the request body for account creation.
type SignUpRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		JSONError(w, NewBadRequest("email and password required"))
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Email, req.Password, middleware.ClientIP(r))
	switch {
	case errors.Is(err, users.ErrLocked):
		log.Printf("token grant blocked: %v", err)
		JSONError(w, ErrAccountLocked)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		JSONError(w, ErrUnauthorized)
		return
	case err != nil:
		log.Printf("token grant error: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}

	s.writeTokens(w, r, user, "")
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	if req.RefreshToken == "" {
		JSONError(w, NewBadRequest("refresh_token required"))
		return
	}

	user, err := s.tokens.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		log.Printf("refresh failed: %v", err)
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			JSONError(w, ErrInvalidToken)
		} else {
			JSONError(w, ErrInternalServer)
		}
		return
	}

	s.writeTokens(w, r, user, req.RefreshToken)
}

// writeTokens issues an access token and a refresh token for user. A
// non-empty previous refresh token is rotated out.
func (s *Server) writeTokens(w http.ResponseWriter, r *http.Request, user *models.User, previous string) {
	accessToken, err := s.jwt.GenerateToken(user)
	if err != nil {
		log.Printf("generate access token: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}

	var refreshToken string
	if previous != "" {
		refreshToken, err = s.tokens.RotateRefreshToken(r.Context(), previous, user.ID)
	} else {
		refreshToken, err = s.tokens.CreateRefreshToken(r.Context(), user.ID)
	}
	if err != nil {
		log.Printf("issue refresh token: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}

	metrics.AuthTokensIssued.WithLabelValues("access").Inc()
	metrics.AuthTokensIssued.WithLabelValues("refresh").Inc()

	OK(w, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.TTLSeconds(),
		TokenType:    "Bearer",
	})
}

func (s *Server) revokeToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}
	if req.RefreshToken == "" {
		JSONError(w, NewBadRequest("refresh_token required"))
		return
	}

	// Unknown or already revoked tokens are not an error.
	if err := s.tokens.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		log.Printf("logout: revoke token: %v", err)
	}
	NoContent(w)
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, NewBadRequest("invalid request body"))
		return
	}

	user, errs, err := s.users.SignUp(r.Context(), users.SignUpParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}, middleware.ClientIP(r))
	if err != nil {
		log.Printf("sign up error: %v", err)
		JSONError(w, ErrInternalServer)
		return
	}
	if len(errs) > 0 {
		JSONError(w, NewValidationError(errs))
		return
	}
	Created(w, toUserResponse(user))
}
