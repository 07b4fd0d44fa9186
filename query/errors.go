package query

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a filter or sort names a field the
	// schema does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidPattern is returned for a regex condition that does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidOperator is returned for an operator outside the supported set.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrSyntax is returned by ParseFilter and ParseSort.
	ErrSyntax = errors.New("syntax error")
)

// FieldError reports a problem with a named field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
