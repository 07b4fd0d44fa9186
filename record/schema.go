package record

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"
)

// FieldType defines the declared data type of a field.
type FieldType uint8

const (
	FieldTypeAny FieldType = iota
	FieldTypeInt
	FieldTypeFloat
	FieldTypeString
	FieldTypeBool
	FieldTypeDate
	FieldTypeArray
	FieldTypeCalculated
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	switch t {
	case FieldTypeAny:
		return "Any"
	case FieldTypeInt:
		return "Int"
	case FieldTypeFloat:
		return "Float"
	case FieldTypeString:
		return "String"
	case FieldTypeBool:
		return "Bool"
	case FieldTypeDate:
		return "Date"
	case FieldTypeArray:
		return "Array"
	case FieldTypeCalculated:
		return "Calculated"
	default:
		return "Unknown"
	}
}

// ParseFieldType parses the names used in grid definition files.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return FieldTypeAny, nil
	case "int", "integer":
		return FieldTypeInt, nil
	case "float", "number":
		return FieldTypeFloat, nil
	case "string":
		return FieldTypeString, nil
	case "bool", "boolean":
		return FieldTypeBool, nil
	case "date":
		return FieldTypeDate, nil
	case "array":
		return FieldTypeArray, nil
	case "calculated":
		return FieldTypeCalculated, nil
	}
	return FieldTypeAny, fmt.Errorf("%w: unknown field type %q", ErrInvalidSchema, s)
}

// Calculator derives a calculated field from the stored fields of a record.
type Calculator func(Record) Value

// FieldDescriptor declares one field of a schema.
type FieldDescriptor struct {
	Name     string
	Type     FieldType
	Required bool
	// Indexed fields get an inverted equality index in the store.
	Indexed bool
	// Calc is required for FieldTypeCalculated and ignored otherwise.
	Calc Calculator
}

// Schema is the explicit field table for one store.
type Schema struct {
	idField string
	fields  []FieldDescriptor
	byName  map[string]int
}

// NewSchema builds a schema. Fields keep their declared order.
func NewSchema(idField string, fields ...FieldDescriptor) (*Schema, error) {
	if idField == "" {
		return nil, fmt.Errorf("%w: empty id field", ErrInvalidSchema)
	}

	s := &Schema{
		idField: idField,
		fields:  make([]FieldDescriptor, 0, len(fields)),
		byName:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		if f.Type == FieldTypeCalculated {
			if f.Calc == nil {
				return nil, fmt.Errorf("%w: calculated field %q has no calculator", ErrInvalidSchema, f.Name)
			}
			if f.Name == idField {
				return nil, fmt.Errorf("%w: id field %q cannot be calculated", ErrInvalidSchema, f.Name)
			}
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(idField string, fields ...FieldDescriptor) *Schema {
	s, err := NewSchema(idField, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// IDField returns the name of the identity field.
func (s *Schema) IDField() string { return s.idField }

// Fields iterates the declared fields in order.
func (s *Schema) Fields() iter.Seq[FieldDescriptor] {
	return func(yield func(FieldDescriptor) bool) {
		for _, f := range s.fields {
			if !yield(f) {
				return
			}
		}
	}
}

// Names returns the declared field names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Field returns the descriptor for name.
func (s *Schema) Field(name string) (FieldDescriptor, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return s.fields[i], true
}

// Has reports whether name is the id field or a declared field.
func (s *Schema) Has(name string) bool {
	if name == s.idField {
		return true
	}
	_, ok := s.byName[name]
	return ok
}

// ID returns the identity value of rec. It reports false when the id is
// missing, null, or an array.
func (s *Schema) ID(rec Record) (Value, bool) {
	v, ok := rec[s.idField]
	if !ok || v.IsNull() || v.Kind == KindArray {
		return Value{}, false
	}
	return v, true
}

// Get returns the value of field name on rec, deriving calculated fields.
func (s *Schema) Get(rec Record, name string) Value {
	if i, ok := s.byName[name]; ok && s.fields[i].Type == FieldTypeCalculated {
		return s.fields[i].Calc(rec)
	}
	return rec.Get(name)
}

// Compare orders a and b on field name.
func (s *Schema) Compare(a, b Record, name string) int {
	return Compare(s.Get(a, name), s.Get(b, name))
}

// Validate checks that rec has an id and conforms to the declared fields.
func (s *Schema) Validate(rec Record) error {
	if _, ok := s.ID(rec); !ok {
		return fmt.Errorf("%w: field %q", ErrMissingID, s.idField)
	}
	for _, f := range s.fields {
		v, present := rec[f.Name]
		if f.Type == FieldTypeCalculated {
			if present {
				return &FieldError{Field: f.Name, Reason: "calculated field cannot be stored"}
			}
			continue
		}
		if !present || v.IsNull() {
			if f.Required {
				return &FieldError{Field: f.Name, Reason: "required"}
			}
			continue
		}
		if !checkKind(v.Kind, f.Type) {
			return &FieldError{Field: f.Name, Reason: fmt.Sprintf("invalid type %s, expected %s", v.Kind, f.Type)}
		}
	}
	return nil
}

// Normalize returns a copy of rec with values coerced to the declared types
// where a lossless conversion exists. Calculated fields are dropped.
func (s *Schema) Normalize(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		i, ok := s.byName[k]
		if !ok {
			out[k] = v
			continue
		}
		f := s.fields[i]
		if f.Type == FieldTypeCalculated {
			continue
		}
		out[k] = coerce(v, f.Type)
	}
	return out
}

func checkKind(k Kind, expected FieldType) bool {
	if k == KindNull {
		return true
	}
	switch expected {
	case FieldTypeAny:
		return true
	case FieldTypeInt:
		return k == KindInt
	case FieldTypeFloat:
		return k == KindFloat || k == KindInt
	case FieldTypeString:
		return k == KindString
	case FieldTypeBool:
		return k == KindBool
	case FieldTypeDate:
		return k == KindDate
	case FieldTypeArray:
		return k == KindArray
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
}

func coerce(v Value, t FieldType) Value {
	switch t {
	case FieldTypeInt:
		if v.Kind == KindFloat && v.F64 == math.Trunc(v.F64) && v.F64 >= -(1<<63) && v.F64 < 1<<63 {
			return Int(int64(v.F64))
		}
		if v.Kind == KindString {
			if i, err := strconv.ParseInt(v.s.Value(), 10, 64); err == nil {
				return Int(i)
			}
		}
	case FieldTypeFloat:
		if v.Kind == KindInt {
			return Float(float64(v.I64))
		}
		if v.Kind == KindString {
			if f, err := strconv.ParseFloat(v.s.Value(), 64); err == nil {
				return Float(f)
			}
		}
	case FieldTypeString:
		switch v.Kind {
		case KindInt, KindFloat, KindBool:
			return String(v.String())
		}
	case FieldTypeBool:
		if v.Kind == KindString {
			if b, err := strconv.ParseBool(v.s.Value()); err == nil {
				return Bool(b)
			}
		}
	case FieldTypeDate:
		switch v.Kind {
		case KindString:
			str := v.s.Value()
			for _, layout := range dateLayouts {
				if ts, err := time.Parse(layout, str); err == nil {
					return Date(ts)
				}
			}
		case KindInt:
			return Value{Kind: KindDate, I64: v.I64}
		case KindFloat:
			return Value{Kind: KindDate, I64: int64(v.F64)}
		}
	}
	return v
}
