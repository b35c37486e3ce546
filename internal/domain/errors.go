package domain

import "errors"

var (
	// ErrNotFound is returned when the referenced catalog entry or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a name collides within its scope.
	ErrAlreadyExists = errors.New("already exists")
	// ErrHasChildren is returned when removing a catalog entry that still owns
	// terms, courses or files. Deletion never cascades.
	ErrHasChildren = errors.New("entry still has children")
	// ErrInvalidName is returned for empty or oversized display names.
	ErrInvalidName = errors.New("invalid name")
)
