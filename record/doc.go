// Package record provides the typed record model used by the store.
//
// A Record is a bag of named, typed values. Field order, field types and the
// identity field are declared once in a Schema that the owning store receives
// at construction. No reflection is involved and there is no process-wide
// registry of record types.
//
// # Values
//
// Values are small tagged unions:
//
//   - String: record.String("tech")
//   - Int: record.Int(2024)
//   - Float: record.Float(3.14)
//   - Bool: record.Bool(true)
//   - Date: record.Date(time.Now())
//   - Array: record.Array([]record.Value{...})
//
// Example:
//
//	rec := record.Record{
//	    "id":     record.Int(1),
//	    "name":   record.String("alpha"),
//	    "active": record.Bool(true),
//	}
//
// # Schema
//
// A Schema lists field descriptors in display order:
//
//	schema, err := record.NewSchema("id",
//	    record.FieldDescriptor{Name: "id", Type: record.FieldTypeInt, Required: true},
//	    record.FieldDescriptor{Name: "name", Type: record.FieldTypeString},
//	    record.FieldDescriptor{Name: "label", Type: record.FieldTypeCalculated,
//	        Calc: func(r record.Record) record.Value { return r["name"] }},
//	)
//
// Calculated fields are derived at read time through Schema.Get and can never
// be stored on a record.
//
// # Ordering
//
// Compare defines a total order over Values. Null never raises: it coerces to
// the zero value of the other operand's kind, so nulls sort first.
package record
