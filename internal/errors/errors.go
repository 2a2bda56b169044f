package errors

import (
	"errors"
	"fmt"
)

// Common error types for the partner dashboard
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("access denied")

	// Token errors
	ErrNoRefreshToken   = errors.New("no refresh token")
	ErrRefreshRejected  = errors.New("refresh rejected")
	ErrMissingAccessKey = errors.New("refresh response missing access token")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInvalid  = errors.New("session invalid")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
