package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rlibre/x4grid/record"
)

// ErrPayload is returned when a payload is not a record array.
var ErrPayload = errors.New("codec: malformed record payload")

type envelope struct {
	Records []record.Record `json:"records"`
}

// DecodeRecords decodes a record payload. Accepted shapes are a JSON array
// of objects, an object with a "records" array, and newline-delimited
// objects. Compressed payloads are decompressed first.
func DecodeRecords(c Codec, data []byte) ([]record.Record, error) {
	if c == nil {
		c = Default
	}
	data, err := Decompress(data)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var recs []record.Record
		if err := c.Unmarshal(trimmed, &recs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayload, err)
		}
		return recs, nil
	case '{':
		if recs, ok := decodeEnvelope(c, trimmed); ok {
			return recs, nil
		}
		return decodeLines(c, trimmed)
	default:
		return nil, fmt.Errorf("%w: unexpected leading %q", ErrPayload, trimmed[0])
	}
}

func decodeEnvelope(c Codec, data []byte) ([]record.Record, bool) {
	var env envelope
	if err := c.Unmarshal(data, &env); err != nil || env.Records == nil {
		return nil, false
	}
	return env.Records, true
}

func decodeLines(c Codec, data []byte) ([]record.Record, error) {
	var out []record.Record
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec record.Record
		if err := c.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrPayload, i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// EncodeRecords encodes recs as a JSON array.
func EncodeRecords(c Codec, recs []record.Record) ([]byte, error) {
	if c == nil {
		c = Default
	}
	if recs == nil {
		recs = []record.Record{}
	}
	return c.Marshal(recs)
}

// Appender is implemented by codecs that can encode into a caller buffer.
type Appender interface {
	Append(dst []byte, v any) ([]byte, error)
}

// EncodeNDJSON encodes recs one per line. Codecs implementing Appender
// write into a single buffer.
func EncodeNDJSON(c Codec, recs []record.Record) ([]byte, error) {
	if c == nil {
		c = Default
	}
	app, ok := c.(Appender)

	var out []byte
	for _, rec := range recs {
		if ok {
			var err error
			if out, err = app.Append(out, rec); err != nil {
				return nil, err
			}
		} else {
			b, err := c.Marshal(rec)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		out = append(out, '\n')
	}
	return out, nil
}
