package query

import (
	"strings"

	"github.com/rlibre/x4grid/record"
)

// SortKey orders by one field.
type SortKey struct {
	Field     string
	Ascending bool
}

// Sort is an ordered list of keys, highest priority first. An empty Sort
// orders by id ascending.
type Sort []SortKey

// Asc returns an ascending key.
func Asc(field string) SortKey { return SortKey{Field: field, Ascending: true} }

// Desc returns a descending key.
func Desc(field string) SortKey { return SortKey{Field: field} }

func (s Sort) String() string {
	if len(s) == 0 {
		return "<id>"
	}
	parts := make([]string, len(s))
	for i, k := range s {
		if k.Ascending {
			parts[i] = k.Field
		} else {
			parts[i] = "-" + k.Field
		}
	}
	return strings.Join(parts, ",")
}

// Comparator orders two records.
type Comparator func(a, b record.Record) int

// CompileSort resolves s against schema.
//
// Ties left after every key are broken by id, in the direction of the last
// key, so reversing a single-key sort reverses the whole sequence.
func CompileSort(s Sort, schema *record.Schema) (Comparator, error) {
	for _, k := range s {
		if !schema.Has(k.Field) {
			return nil, &FieldError{Field: k.Field, Err: ErrUnknownField}
		}
	}

	idField := schema.IDField()
	byID := func(a, b record.Record) int {
		return record.Compare(a.Get(idField), b.Get(idField))
	}

	switch len(s) {
	case 0:
		return byID, nil
	case 1:
		key := s[0]
		if key.Field == idField {
			if key.Ascending {
				return byID, nil
			}
			return func(a, b record.Record) int { return -byID(a, b) }, nil
		}
		field := key.Field
		if key.Ascending {
			return func(a, b record.Record) int {
				if c := record.Compare(schema.Get(a, field), schema.Get(b, field)); c != 0 {
					return c
				}
				return byID(a, b)
			}, nil
		}
		return func(a, b record.Record) int {
			if c := record.Compare(schema.Get(b, field), schema.Get(a, field)); c != 0 {
				return c
			}
			return byID(b, a)
		}, nil
	}

	keys := append(Sort(nil), s...)
	last := keys[len(keys)-1].Ascending
	return func(a, b record.Record) int {
		for _, k := range keys {
			c := record.Compare(schema.Get(a, k.Field), schema.Get(b, k.Field))
			if c != 0 {
				if !k.Ascending {
					c = -c
				}
				return c
			}
		}
		if last {
			return byID(a, b)
		}
		return byID(b, a)
	}, nil
}
