package app

import "errors"

var (
	// ErrCancelled is returned when the caller's context ends before a
	// ranking is complete. It wraps the context error.
	ErrCancelled = errors.New("recommendation cancelled")
	// ErrInvalidInput is returned for a missing collaborator or malformed argument.
	ErrInvalidInput = errors.New("invalid input")
)
