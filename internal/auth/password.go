package auth

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Password length limits. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// ErrInvalidCredentials is returned when an email/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidatePassword returns a field message when password violates the policy,
// or "" when it is acceptable.
func ValidatePassword(password string) string {
	switch {
	case password == "":
		return "can't be blank"
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return fmt.Sprintf("is too short (minimum is %d characters)", MinPasswordLength)
	case len(password) > MaxPasswordLength:
		return fmt.Sprintf("is too long (maximum is %d bytes)", MaxPasswordLength)
	}
	return ""
}

// Hasher hashes and checks passwords with bcrypt.
type Hasher struct {
	Cost int
}

// DefaultHasher uses bcrypt.DefaultCost.
var DefaultHasher = Hasher{Cost: bcrypt.DefaultCost}

func (h Hasher) cost() int {
	if h.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

// Hash returns the bcrypt hash of password.
func (h Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// dummyHashes holds one throwaway hash per bcrypt cost.
var dummyHashes sync.Map

func (h Hasher) dummyHash() ([]byte, error) {
	cost := h.cost()
	if v, ok := dummyHashes.Load(cost); ok {
		return v.([]byte), nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("projectboard-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	v, _ := dummyHashes.LoadOrStore(cost, hash)
	return v.([]byte), nil
}

// Compare returns ErrInvalidCredentials when password does not match hash.
// An empty hash (unknown account) still costs one bcrypt comparison so the
// response time does not reveal whether the account exists.
func (h Hasher) Compare(hash, password string) error {
	if hash == "" {
		dummy, err := h.dummyHash()
		if err != nil {
			return err
		}
		_ = bcrypt.CompareHashAndPassword(dummy, []byte(password))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}
