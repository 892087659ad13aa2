// Package common defines shared constants and sentinel errors used across
// Provenia components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate catalog entry")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors. ErrBatchTooLarge guards the batch endpoint,
	// the rest are per-file rejection reasons.
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedType  = errors.New("unsupported content type")
	ErrUnverifiableType = errors.New("content type could not be determined")
	ErrBatchTooLarge    = errors.New("too many files in batch")
	ErrEmptyFile        = errors.New("empty file")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
