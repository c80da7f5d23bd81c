package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced portfolio or property does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFilter is returned for syntactically invalid query filters.
	ErrInvalidFilter = errors.New("invalid filter")
)
