// Package common defines shared constants and sentinel errors used across
// the gophauth server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Request-level errors.
	ErrorValidation = errors.New("validation error")

	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Account lifecycle errors.
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Token errors.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("malformed token")
)
