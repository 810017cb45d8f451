// Package common defines shared constants and sentinel errors used across
// the server packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Client input errors (400-class).
	ErrMissingCredentials = errors.New("missing credentials")
	ErrValidation         = errors.New("validation error")

	// Authentication errors (401-class). Always surfaced as ErrorUnauthorized.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrMissingClaim   = errors.New("missing required claim")

	// Configuration faults (500-class), never retried.
	ErrConfiguration         = errors.New("configuration error")
	ErrSigningKeyUnavailable = errors.New("signing key unavailable")
	ErrSecretExists          = errors.New("signing key already exists")

	// Persistence and everything else the caller must not see details of.
	ErrorInternal = errors.New("internal error")
)
