package record

import (
	"bytes"
	"maps"

	gojson "github.com/goccy/go-json"
)

// Record is an unordered bag of stored field values.
//
// Field order and declared types come from the Schema that owns the record.
type Record map[string]Value

// Get returns the stored value for key, or Null when absent.
// Calculated fields are resolved through Schema.Get, not here.
func (r Record) Get(key string) Value {
	if v, ok := r[key]; ok {
		return v
	}
	return Null()
}

// Clone creates a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}

	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v.clone()
	}
	return out
}

// With returns a copy of the record with key set to v.
func (r Record) With(key string, v Value) Record {
	out := maps.Clone(r)
	if out == nil {
		out = make(Record, 1)
	}
	out[key] = v
	return out
}

// ToMap converts the record into plain Go values.
func (r Record) ToMap() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}

// MarshalJSON encodes the record as a plain JSON object.
//
// The tagged Value form is only used when a Value is marshaled on its own.
func (r Record) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(r.ToMap())
}

// UnmarshalJSON decodes a plain JSON object. Numbers without a fractional
// part become Int values.
func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]any
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}
	rec, err := FromMap(m)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
