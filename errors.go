package x4grid

import (
	"errors"
	"fmt"

	"github.com/rlibre/x4grid/query"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/store"
)

var (
	// ErrInvalidID is returned when a record has no usable id.
	ErrInvalidID = store.ErrInvalidID
	// ErrDuplicateID is returned when an id is already present.
	ErrDuplicateID = store.ErrDuplicateID
	// ErrNotFound is returned for an unknown id.
	ErrNotFound = store.ErrNotFound
	// ErrInvalidRecord is returned when a record does not fit the schema.
	ErrInvalidRecord = record.ErrInvalidRecord
	// ErrInvalidQuery is returned for a filter or sort that cannot be applied.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrClosed is returned by operations on a closed Grid.
	ErrClosed = errors.New("grid closed")
)

// ErrField describes a record or query problem tied to one field.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrField struct {
	Field  string
	Reason string
	cause  error
}

func (e *ErrField) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func (e *ErrField) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var rf *record.FieldError
	if errors.As(err, &rf) {
		return &ErrField{Field: rf.Field, Reason: rf.Reason, cause: err}
	}
	if errors.Is(err, record.ErrMissingID) {
		return fmt.Errorf("%w: %w", ErrInvalidID, err)
	}

	var qf *query.FieldError
	if errors.As(err, &qf) {
		return &ErrField{Field: qf.Field, Reason: qf.Err.Error(), cause: fmt.Errorf("%w: %w", ErrInvalidQuery, err)}
	}
	for _, qe := range []error{query.ErrSyntax, query.ErrInvalidOperator, query.ErrInvalidPattern, query.ErrUnknownField} {
		if errors.Is(err, qe) {
			return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
	}

	return err
}
