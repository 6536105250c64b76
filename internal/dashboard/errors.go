package dashboard

import "errors"

var (
	// ErrForbidden is returned when the user lacks the privileges for an operation
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the addressed task, list or request is missing
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for malformed input
	ErrInvalid = errors.New("invalid input")
)
