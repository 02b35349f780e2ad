// Package common defines shared constants, sentinel errors and random
// helpers used across the server layers. Callers should use errors.Is to
// match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal          = errors.New("internal error")
	ErrorUnauthorized      = errors.New("unauthorized")
	ErrorAlreadyRegistered = errors.New("already registered")
	ErrorValidation        = errors.New("validation failed")

	// Auth errors (consumed, mismatched, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
