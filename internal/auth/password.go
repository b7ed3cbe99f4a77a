// Package auth holds credential storage and session token handling. The ledger itself
// only ever sees the resolved UserAccount.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tinoosan/microfin/internal/errs"
)

// MaxPasswordLen is the longest password bcrypt accepts, in bytes.
const MaxPasswordLen = 72

// HashPassword returns the bcrypt hash of password. Empty and overlong passwords are
// errs.ErrInvalid.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password required: %w", errs.ErrInvalid)
	}
	if len(password) > MaxPasswordLen {
		return "", fmt.Errorf("password longer than %d bytes: %w", MaxPasswordLen, errs.ErrInvalid)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword compares password with a stored hash. A mismatch is reported as
// errs.ErrUnauthenticated.
func VerifyPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return errs.ErrUnauthenticated
	}
	return fmt.Errorf("verify password: %w", err)
}
