// Package storage persists local accounts and the signed-in session in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRow   = errors.New("invalid record")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateAccount(a *Account) error {
	if a == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if a.ID == "" {
		return fmt.Errorf("%w: account missing ID", ErrInvalidRow)
	}
	if strings.TrimSpace(a.Email) == "" {
		return fmt.Errorf("%w: account missing email", ErrInvalidRow)
	}
	if a.PasswordHash == "" {
		return fmt.Errorf("%w: account missing password hash", ErrInvalidRow)
	}
	return nil
}

func validateSessionRecord(r *SessionRecord) error {
	if r == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	if r.Provider == "" || r.UserID == "" || r.Token == "" {
		return fmt.Errorf("%w: session requires provider, user and token", ErrInvalidRow)
	}
	if r.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: session missing expiry", ErrInvalidRow)
	}
	return nil
}
