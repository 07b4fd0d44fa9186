// Package codec centralizes payload encoding for record sources.
//
// A payload is a record array in some serialization, optionally compressed.
// Codecs are selected by stable name so a grid definition can name one.
package codec

// Codec serializes record payloads. Implementations must be safe for
// concurrent use: one codec value is shared by every source of a load.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when a source names none.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name. An empty name selects
// Default.
func ByName(name string) (Codec, bool) {
	switch name {
	case "":
		return Default, true
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
