package record

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRecord is returned when a record does not conform to its schema.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrMissingID is returned when a record has no usable id value.
	ErrMissingID = errors.New("missing id")

	// ErrInvalidSchema is returned by NewSchema for malformed descriptors.
	ErrInvalidSchema = errors.New("invalid schema")
)

// FieldError describes a schema violation on a single field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidRecord.
func (e *FieldError) Unwrap() error { return ErrInvalidRecord }
