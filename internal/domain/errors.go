package domain

import "errors"

// Sentinel errors shared across repositories and services. Services wrap
// lower-level errors with fmt.Errorf("...: %w", err); controllers match these
// with errors.Is to choose an HTTP status.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
