// Package common defines shared constants and sentinel errors used across
// the client and server layers of Daybook. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal        = errors.New("internal error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("server unavailable")

	// Identity lifecycle errors.
	ErrNoIdentity    = errors.New("no usable identity")
	ErrUsernameTaken = errors.New("username already taken")
	ErrNotAnonymous  = errors.New("identity is not anonymous")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Validation errors.
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD form")
	ErrInvalidMood = errors.New("mood must be between 1 and 5")
)
