package services

import "errors"

var (
	// ErrNotAuthorized means the caller lacks standing for the target
	// conversation or notification.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input was malformed.
	ErrValidation = errors.New("validation failed")

	// ErrStorage wraps persistence-layer failures. Retryable; the
	// operation that hit it wrote nothing.
	ErrStorage = errors.New("storage failure")
)
