package errors

import (
	"errors"
	"fmt"
)

// Common error types for the auth client
var (
	// Validation errors, raised before any network call
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingFields      = errors.New("all fields are required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrMissingToken       = errors.New("provider token is required")

	// Session errors
	ErrNotReady          = errors.New("session restore has not completed")
	ErrNoRefreshToken    = errors.New("no refresh token available")
	ErrIncompleteSession = errors.New("session is missing required fields")
	ErrLoginThrottled    = errors.New("too many login attempts")

	// Store errors
	ErrNotFound    = errors.New("not found")
	ErrCorrupt     = errors.New("token file is corrupt")
	ErrInvalidPass = errors.New("token file passphrase is invalid")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error with the supplied message
func New(text string) error {
	return errors.New(text)
}
