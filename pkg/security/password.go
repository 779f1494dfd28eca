package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vardaanagro/agrofarm-backend/pkg/config"
)

const (
	minCost = bcrypt.MinCost
	maxCost = 14
)

// HashPassword derives a bcrypt hash using the configured cost.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), clampCost(cfg.BcryptCost))
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password to a stored bcrypt hash. A
// mismatch is reported as (false, nil); malformed hashes return an error.
func VerifyPassword(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}

func clampCost(cost int) int {
	if cost < minCost {
		return bcrypt.DefaultCost
	}
	if cost > maxCost {
		return maxCost
	}
	return cost
}
