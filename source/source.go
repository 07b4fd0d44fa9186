package source

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/rlibre/x4grid/codec"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/resource"
)

// ErrUnsupportedURL is returned by Open for an unknown location scheme.
var ErrUnsupportedURL = errors.New("source: unsupported location")

// Source delivers a record array.
type Source interface {
	// Fetch returns the current records. Implementations must be safe to
	// call from any goroutine.
	Fetch(ctx context.Context) ([]record.Record, error)
	// Name identifies the source in logs and metrics.
	Name() string
}

// Static is a Source over a fixed record array.
type Static struct {
	name    string
	records []record.Record
}

// NewStatic returns a Source that always yields a copy of recs.
func NewStatic(name string, recs []record.Record) *Static {
	return &Static{name: name, records: recs}
}

// Fetch returns clones of the records.
func (s *Static) Fetch(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]record.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Name returns the static source's name.
func (s *Static) Name() string { return s.name }

type options struct {
	codec      codec.Codec
	controller *resource.Controller
	logger     *slog.Logger
}

// Option configures a Source or Loader.
type Option func(*options)

// WithCodec sets the payload codec. Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithController bounds fetches with rc.
func WithController(rc *resource.Controller) Option {
	return func(o *options) { o.controller = rc }
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(opts []Option) options {
	o := options{
		codec:  codec.Default,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.codec == nil {
		o.codec = codec.Default
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
