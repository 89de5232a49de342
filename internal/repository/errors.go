package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a unique constraint rejects an insert.
	ErrConflict = errors.New("entity already exists")

	// ErrStaleState is returned when a conditional update matched no row
	// because the entity is no longer in the expected state.
	ErrStaleState = errors.New("entity state changed")
)
