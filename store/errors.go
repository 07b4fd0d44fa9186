package store

import "errors"

// NotFound is the sentinel index returned by lookups that miss.
const NotFound = -1

var (
	// ErrInvalidID is returned when a record has no usable id.
	ErrInvalidID = errors.New("invalid id")

	// ErrDuplicateID is returned when an id is already present.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNotFound is returned by Update and Delete for an unknown id.
	ErrNotFound = errors.New("not found")
)
