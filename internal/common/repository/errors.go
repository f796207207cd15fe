package repository

import "errors"

// Shared repository errors. Domain packages wrap or alias these so the
// instrumentation layer can classify failures without knowing the domain.
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey indicates a unique constraint violation
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidState indicates a conditional state transition did not match
	// the stored state (for example completing a record that is no longer pending)
	ErrInvalidState = errors.New("invalid state transition")
)
