package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/storage"
)

// ErrInvalidRefreshToken covers unknown, expired and revoked refresh tokens.
var ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired")

// TokenService handles refresh token operations.
type TokenService struct {
	storage storage.Storage
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(store storage.Storage, ttl time.Duration) *TokenService {
	return &TokenService{
		storage: store,
		ttl:     ttl,
		now:     time.Now,
	}
}

// CreateRefreshToken stores a new refresh token for userID and returns the
// plaintext to hand to the client.
func (s *TokenService) CreateRefreshToken(ctx context.Context, userID string) (string, error) {
	token, plain, err := models.NewRefreshToken(userID, s.ttl, s.now())
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.storage.Tokens().Create(ctx, token); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return plain, nil
}

// ValidateRefreshToken returns the user a usable refresh token belongs to.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, plain string) (*models.User, error) {
	if plain == "" {
		return nil, ErrInvalidRefreshToken
	}

	token, err := s.storage.Tokens().GetByTokenHash(ctx, models.HashToken(plain))
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if token == nil || !token.Usable(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.storage.Users().GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}
	return user, nil
}

// RevokeRefreshToken revokes a refresh token.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, plain string) error {
	return s.storage.Tokens().RevokeByTokenHash(ctx, models.HashToken(plain), s.now())
}

// RevokeAllUserTokens revokes every refresh token of userID.
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return s.storage.Tokens().RevokeAllForUser(ctx, userID, s.now())
}

// RotateRefreshToken revokes the old token and issues a new one.
func (s *TokenService) RotateRefreshToken(ctx context.Context, oldPlain, userID string) (string, error) {
	if err := s.RevokeRefreshToken(ctx, oldPlain); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("revoke refresh token error: %v", err)
	}
	return s.CreateRefreshToken(ctx, userID)
}

// CleanupExpiredTokens removes expired tokens from storage.
func (s *TokenService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.storage.Tokens().DeleteExpired(ctx, s.now())
}

// TTL returns the refresh token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
