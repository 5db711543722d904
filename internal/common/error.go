// Package common defines shared constants and sentinel errors used across
// client and server layers of TaskVault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrorUnauthenticated means no signed-in identity is active for an
	// operation that requires an owner.
	ErrorUnauthenticated = errors.New("unauthenticated")

	// ErrorTransport marks network/backend failures talking to an external
	// collaborator (Postgres, S3, Redis, or the HTTP API from the client
	// side). Wrap the cause with %w so both match.
	ErrorTransport = errors.New("transport error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
