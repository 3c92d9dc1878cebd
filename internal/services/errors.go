package services

import "errors"

// Error kinds surfaced to the HTTP layer. Services wrap these with %w so
// handlers can match with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)
