package query

import (
	"fmt"
	"strings"

	"github.com/rlibre/x4grid/record"
)

// Op is a condition operator.
type Op string

const (
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpEqual        Op = "="
	OpGreaterEqual Op = ">="
	OpGreater      Op = ">"
	OpNotEqual     Op = "<>"
	// OpMatch matches the field's display string against a regular expression.
	OpMatch Op = "~"
	// OpIn matches when the field equals any element of an array value.
	OpIn Op = "in"
	// OpContains matches a substring of a string field, or an element of an
	// array field.
	OpContains Op = "contains"
)

// Valid reports whether op is a supported operator.
func (op Op) Valid() bool {
	switch op {
	case OpLess, OpLessEqual, OpEqual, OpGreaterEqual, OpGreater, OpNotEqual, OpMatch, OpIn, OpContains:
		return true
	}
	return false
}

// Filter is a filter specification. The set of implementations is closed.
type Filter interface {
	isFilter()
	String() string
}

// Condition compares one field against a value.
//
// String comparisons fold case unless CaseSensitive is set.
type Condition struct {
	Field         string
	Op            Op
	Value         record.Value
	CaseSensitive bool
}

// Getter gives predicates schema-aware field access, including calculated
// fields.
type Getter interface {
	Get(field string) record.Value
	Record() record.Record
}

// Predicate is an arbitrary filter function.
type Predicate struct {
	Fn func(Getter) bool
	// Label is used by String.
	Label string
}

// EmptyResult selects nothing. Stores answer it without scanning.
type EmptyResult struct{}

// And matches when every child matches. An empty And matches everything.
type And []Filter

// Or matches when any child matches. An empty Or matches nothing.
type Or []Filter

// Not inverts its child.
type Not struct {
	Filter Filter
}

func (Condition) isFilter()   {}
func (Predicate) isFilter()   {}
func (EmptyResult) isFilter() {}
func (And) isFilter()         {}
func (Or) isFilter()          {}
func (Not) isFilter()         {}

// Func wraps fn as a Predicate.
func Func(fn func(Getter) bool) Predicate {
	return Predicate{Fn: fn}
}

// Where wraps a predicate over raw stored fields.
func Where(fn func(record.Record) bool) Predicate {
	return Predicate{Fn: func(g Getter) bool { return fn(g.Record()) }}
}

// Eq is shorthand for an equality condition.
func Eq(field string, v record.Value) Condition {
	return Condition{Field: field, Op: OpEqual, Value: v}
}

func (c Condition) String() string {
	s := fmt.Sprintf("%s %s %s", c.Field, c.Op, formatValue(c.Value))
	if c.CaseSensitive {
		s += " (case)"
	}
	return s
}

func (p Predicate) String() string {
	if p.Label != "" {
		return p.Label
	}
	return "<predicate>"
}

func (EmptyResult) String() string { return "<empty>" }

func (a And) String() string { return joinFilters(a, " and ") }

func (o Or) String() string { return "(" + joinFilters(o, " or ") + ")" }

func (n Not) String() string {
	if n.Filter == nil {
		return "not <all>"
	}
	return "not " + n.Filter.String()
}

// IsEmptyResult reports whether f can never match, without evaluating it.
func IsEmptyResult(f Filter) bool {
	switch x := f.(type) {
	case EmptyResult:
		return true
	case And:
		for _, c := range x {
			if IsEmptyResult(c) {
				return true
			}
		}
	case Or:
		if len(x) == 0 {
			return true
		}
		for _, c := range x {
			if !IsEmptyResult(c) {
				return false
			}
		}
		return true
	}
	return false
}

// Fields returns the field names referenced by conditions in f.
func Fields(f Filter) []string {
	var out []string
	var walk func(Filter)
	walk = func(f Filter) {
		switch x := f.(type) {
		case Condition:
			out = append(out, x.Field)
		case And:
			for _, c := range x {
				walk(c)
			}
		case Or:
			for _, c := range x {
				walk(c)
			}
		case Not:
			walk(x.Filter)
		}
	}
	walk(f)
	return out
}

func joinFilters(fs []Filter, sep string) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		if f == nil {
			parts[i] = "<all>"
			continue
		}
		parts[i] = f.String()
	}
	return strings.Join(parts, sep)
}

func formatValue(v record.Value) string {
	switch v.Kind {
	case record.KindString:
		return fmt.Sprintf("%q", v.StringValue())
	case record.KindNull, record.KindInvalid:
		return "null"
	}
	return v.String()
}
