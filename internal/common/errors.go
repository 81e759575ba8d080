// Package common defines shared constants and sentinel errors used across
// the server, the sweeper and the client. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository and storage errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Trash errors. Both "missing" errors wrap ErrorNotFound so callers that
	// only care about absence can keep matching on it.
	ErrRecordMissing       = fmt.Errorf("trash record missing: %w", ErrorNotFound)
	ErrObjectMissing       = fmt.Errorf("trashed object missing: %w", ErrorNotFound)
	ErrOrphanInconsistency = errors.New("trash table and storage diverged")
)
