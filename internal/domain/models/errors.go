package models

import "errors"

var (
	// ErrNotFound marks a missing rule, position or notification.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a malformed alert rule rejected before persisting.
	ErrValidation = errors.New("validation failed")
)
