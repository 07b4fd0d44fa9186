package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rlibre/x4grid/record"
)

// Matcher reports whether a record satisfies a compiled filter.
type Matcher func(record.Record) bool

// MatchAll matches every record.
func MatchAll(record.Record) bool { return true }

// MatchNone matches no record.
func MatchNone(record.Record) bool { return false }

type row struct {
	schema *record.Schema
	rec    record.Record
}

func (r row) Get(field string) record.Value { return r.schema.Get(r.rec, field) }
func (r row) Record() record.Record        { return r.rec }

// NewGetter returns a Getter over rec.
func NewGetter(schema *record.Schema, rec record.Record) Getter {
	return row{schema: schema, rec: rec}
}

// Compile resolves f against schema. A nil filter compiles to MatchAll.
func Compile(f Filter, schema *record.Schema) (Matcher, error) {
	switch x := f.(type) {
	case nil:
		return MatchAll, nil
	case EmptyResult:
		return MatchNone, nil
	case Condition:
		return compileCondition(x, schema)
	case Predicate:
		if x.Fn == nil {
			return MatchAll, nil
		}
		fn := x.Fn
		return func(r record.Record) bool { return fn(row{schema: schema, rec: r}) }, nil
	case And:
		ms, err := compileAll(x, schema)
		if err != nil {
			return nil, err
		}
		if len(ms) == 1 {
			return ms[0], nil
		}
		return func(r record.Record) bool {
			for _, m := range ms {
				if !m(r) {
					return false
				}
			}
			return true
		}, nil
	case Or:
		ms, err := compileAll(x, schema)
		if err != nil {
			return nil, err
		}
		return func(r record.Record) bool {
			for _, m := range ms {
				if m(r) {
					return true
				}
			}
			return false
		}, nil
	case Not:
		m, err := Compile(x.Filter, schema)
		if err != nil {
			return nil, err
		}
		return func(r record.Record) bool { return !m(r) }, nil
	default:
		return nil, fmt.Errorf("query: unsupported filter %T", f)
	}
}

func compileAll(fs []Filter, schema *record.Schema) ([]Matcher, error) {
	ms := make([]Matcher, len(fs))
	for i, f := range fs {
		m, err := Compile(f, schema)
		if err != nil {
			return nil, err
		}
		ms[i] = m
	}
	return ms, nil
}

func compileCondition(c Condition, schema *record.Schema) (Matcher, error) {
	if !schema.Has(c.Field) {
		return nil, &FieldError{Field: c.Field, Err: ErrUnknownField}
	}
	if !c.Op.Valid() {
		return nil, &FieldError{Field: c.Field, Err: fmt.Errorf("%w: %q", ErrInvalidOperator, c.Op)}
	}

	field := c.Field
	get := func(r record.Record) record.Value { return schema.Get(r, field) }
	cmp := record.CompareFold
	if c.CaseSensitive {
		cmp = record.Compare
	}
	want := c.Value

	switch c.Op {
	case OpEqual:
		return func(r record.Record) bool { return cmp(get(r), want) == 0 }, nil
	case OpNotEqual:
		return func(r record.Record) bool { return cmp(get(r), want) != 0 }, nil
	case OpLess:
		return func(r record.Record) bool { return cmp(get(r), want) < 0 }, nil
	case OpLessEqual:
		return func(r record.Record) bool { return cmp(get(r), want) <= 0 }, nil
	case OpGreater:
		return func(r record.Record) bool { return cmp(get(r), want) > 0 }, nil
	case OpGreaterEqual:
		return func(r record.Record) bool { return cmp(get(r), want) >= 0 }, nil
	case OpMatch:
		pattern := want.String()
		if !c.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &FieldError{Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidPattern, err)}
		}
		return func(r record.Record) bool { return re.MatchString(get(r).String()) }, nil
	case OpIn:
		items := want.A
		if want.Kind != record.KindArray {
			items = []record.Value{want}
		}
		return func(r record.Record) bool {
			v := get(r)
			for _, it := range items {
				if cmp(v, it) == 0 {
					return true
				}
			}
			return false
		}, nil
	case OpContains:
		needle := want.String()
		if !c.CaseSensitive {
			needle = record.Fold(needle)
		}
		return func(r record.Record) bool {
			v := get(r)
			if arr, ok := v.AsArray(); ok {
				for _, it := range arr {
					if cmp(it, want) == 0 {
						return true
					}
				}
				return false
			}
			s, ok := v.AsString()
			if !ok {
				return false
			}
			if !c.CaseSensitive {
				s = record.Fold(s)
			}
			return strings.Contains(s, needle)
		}, nil
	}
	return nil, &FieldError{Field: field, Err: ErrInvalidOperator}
}
