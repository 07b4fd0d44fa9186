package source

import (
	"context"
	"fmt"
	"io"

	"github.com/rlibre/x4grid/blobstore"
	"github.com/rlibre/x4grid/codec"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/resource"
)

// BlobSource decodes one payload blob.
type BlobSource struct {
	store blobstore.BlobStore
	blob  string
	opts  options
}

// NewBlobSource returns a Source for the named blob in store.
func NewBlobSource(store blobstore.BlobStore, name string, opts ...Option) *BlobSource {
	return &BlobSource{store: store, blob: name, opts: applyOptions(opts)}
}

// Name returns the blob name.
func (s *BlobSource) Name() string { return s.blob }

// Fetch reads and decodes the blob. The payload's bytes are reserved
// against the controller's memory limit while it is decoded.
func (s *BlobSource) Fetch(ctx context.Context) ([]record.Record, error) {
	rc := s.opts.controller
	if err := rc.AcquireFetch(ctx); err != nil {
		return nil, err
	}
	defer rc.ReleaseFetch()

	b, err := s.store.Open(ctx, s.blob)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.blob, err)
	}
	defer func() { _ = b.Close() }()

	size := b.Size()
	if err := rc.AcquireMemory(ctx, size); err != nil {
		return nil, fmt.Errorf("source %s: %w", s.blob, err)
	}
	defer rc.ReleaseMemory(size)

	if err := rc.AcquireIO(ctx, int(size)); err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.blob, err)
	}

	recs, err := codec.DecodeRecords(s.opts.codec, data)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.blob, err)
	}
	s.opts.logger.Debug("source: blob decoded",
		"blob", s.blob,
		"bytes", size,
		"records", len(recs),
		"reserved", rc.MemoryUsage(),
	)
	return recs, nil
}

// BlobSources lists prefix in store and returns one BlobSource per blob.
func BlobSources(ctx context.Context, store blobstore.BlobStore, prefix string, opts ...Option) ([]Source, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]Source, len(names))
	for i, name := range names {
		out[i] = NewBlobSource(store, name, opts...)
	}
	return out, nil
}

// ReaderSource decodes a payload read from r. The reader is consumed by the
// first Fetch; later calls return the cached records.
type ReaderSource struct {
	name string
	r    io.Reader
	opts options

	read    bool
	records []record.Record
}

// NewReaderSource returns a Source over r (for example os.Stdin).
func NewReaderSource(name string, r io.Reader, opts ...Option) *ReaderSource {
	return &ReaderSource{name: name, r: r, opts: applyOptions(opts)}
}

// Name returns the reader's name.
func (s *ReaderSource) Name() string { return s.name }

// Fetch reads r through the controller's IO limit and decodes it.
// ReaderSource is not safe for concurrent Fetch calls.
func (s *ReaderSource) Fetch(ctx context.Context) ([]record.Record, error) {
	if s.read {
		return cloneAll(s.records), nil
	}

	rc := s.opts.controller
	if err := rc.AcquireFetch(ctx); err != nil {
		return nil, err
	}
	defer rc.ReleaseFetch()

	data, err := io.ReadAll(resource.NewRateLimitedReader(ctx, s.r, rc))
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.name, err)
	}
	recs, err := codec.DecodeRecords(s.opts.codec, data)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.name, err)
	}
	s.read = true
	s.records = recs
	return cloneAll(recs), nil
}

func cloneAll(recs []record.Record) []record.Record {
	out := make([]record.Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}
