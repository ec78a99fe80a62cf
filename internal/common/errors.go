// Package common defines shared constants and sentinel errors used across
// client and server layers of Guardget. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Device-specific errors.
	ErrorDeviceLimitReached = errors.New("device limit reached")
	ErrorTransferPending    = errors.New("transfer already pending")
	ErrorTransferExpired    = errors.New("transfer expired")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token/OTP lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrOTPInvalid          = errors.New("invalid or expired code")
)
