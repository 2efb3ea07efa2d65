// Package common defines shared constants and sentinel errors used across
// client and server layers of vaultshare. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Cryptographic errors. ErrAuthenticationFailed is terminal and must never
	// be retried.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidKey           = errors.New("invalid key")
	ErrNoActiveKey          = errors.New("no active key")

	// Access-control errors, in evaluation order.
	ErrNotFound          = ErrorNotFound
	ErrExpired           = errors.New("expired")
	ErrForbidden         = errors.New("forbidden")
	ErrPasswordRequired  = errors.New("password required")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Pipeline outcomes.
	ErrAccessDenied    = errors.New("access denied")
	ErrCorruptedData   = errors.New("corrupted data")
	ErrUpstreamStorage = errors.New("upstream storage error")

	// Step-up verification. Denials wrap ErrStepUpDenied together with a reason.
	ErrStepUpDenied      = errors.New("step-up verification denied")
	ErrStepUpNotEnrolled = errors.New("step-up not enrolled")
	ErrStepUpInvalidCode = errors.New("invalid one-time code")
	ErrStepUpReplayed    = errors.New("one-time code already used")
)
