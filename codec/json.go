package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// GoJSON decodes payloads with github.com/goccy/go-json. It is selected by
// "go-json" or by leaving the grid definition's codec empty.
type GoJSON struct{}

func (GoJSON) Name() string                       { return "go-json" }
func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.Marshal(v) }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Append writes v after dst without HTML escaping; EncodeNDJSON uses it to
// build a whole export in one buffer.
func (GoJSON) Append(dst []byte, v any) ([]byte, error) {
	b, err := gojson.MarshalNoEscape(v)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}

// JSON is the encoding/json fallback, selected by "json". Both codecs go
// through record.Record's UnmarshalJSON, so they decode to identical
// values.
type JSON struct{}

func (JSON) Name() string                       { return "json" }
func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
