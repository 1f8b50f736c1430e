// Package common defines shared constants and sentinel errors used across
// the TaskKeeper server and client. Callers should use errors.Is to match
// these values; concrete errors wrap them with context via fmt.Errorf("%w").
package common

import "errors"

var (
	// Lookup errors.
	ErrorNotFound = errors.New("not found")

	// Input errors detected before storage is touched.
	ErrorInvalidInput  = errors.New("invalid input")
	ErrorAlreadyExists = errors.New("already exists")

	// Authentication errors.
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorUnauthenticated    = errors.New("unauthenticated")

	// Token errors. An expired token matches both ErrInvalidToken and
	// ErrTokenExpired.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrMissingClaim = errors.New("missing claim")

	// Storage errors.
	ErrorBackendUnavailable = errors.New("storage backend unavailable")
	ErrorStorage            = errors.New("storage error")

	ErrorInternal = errors.New("internal error")
)
