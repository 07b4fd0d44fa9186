package source

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rlibre/x4grid/record"
)

// Observer receives one call per fetched source.
type Observer interface {
	OnLoad(source string, records int, d time.Duration, err error)
}

// NoopObserver ignores loads.
type NoopObserver struct{}

// OnLoad implements Observer.
func (NoopObserver) OnLoad(string, int, time.Duration, error) {}

// Loader fetches several sources concurrently.
type Loader struct {
	sources  []Source
	opts     options
	observer Observer
	schema   *record.Schema
	dedupe   string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithObserver reports each fetch to obs.
func WithObserver(obs Observer) LoaderOption {
	return func(l *Loader) { l.observer = obs }
}

// WithDedupe keeps only the last record for each value of idField, in
// source order. Records without the field are kept.
func WithDedupe(idField string) LoaderOption {
	return func(l *Loader) { l.dedupe = idField }
}

// WithSchema coerces every fetched record to schema's declared types before
// deduplication, so "1" and 1 name the same int id.
func WithSchema(schema *record.Schema) LoaderOption {
	return func(l *Loader) { l.schema = schema }
}

// WithLoaderOptions applies the shared source options. The controller
// bounds how many fetches run at once.
func WithLoaderOptions(opts ...Option) LoaderOption {
	return func(l *Loader) { l.opts = applyOptions(opts) }
}

// NewLoader returns a Loader over sources.
func NewLoader(sources []Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		sources:  sources,
		opts:     applyOptions(nil),
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Sources returns the loader's sources.
func (l *Loader) Sources() []Source { return l.sources }

// Load fetches every source and concatenates the records in source order.
// The first failure cancels the remaining fetches.
func (l *Loader) Load(ctx context.Context) ([]record.Record, error) {
	results := make([][]record.Record, len(l.sources))

	g, gctx := errgroup.WithContext(ctx)
	if rc := l.opts.controller; rc != nil {
		g.SetLimit(int(rc.Config().MaxConcurrentFetches))
	}

	for i, src := range l.sources {
		g.Go(func() error {
			start := time.Now()
			recs, err := src.Fetch(gctx)
			l.observer.OnLoad(src.Name(), len(recs), time.Since(start), err)
			if err != nil {
				l.opts.logger.Error("source: fetch failed", "source", src.Name(), "error", err)
				return fmt.Errorf("load %s: %w", src.Name(), err)
			}
			l.opts.logger.Debug("source: fetched", "source", src.Name(), "records", len(recs), "elapsed", time.Since(start))
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]record.Record, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	if l.schema != nil {
		for i, rec := range out {
			out[i] = l.schema.Normalize(rec)
		}
	}
	if l.dedupe != "" {
		out = Dedupe(out, l.dedupe)
	}
	l.opts.logger.Info("source: load complete", "sources", len(l.sources), "records", len(out))
	return out, nil
}

// Dedupe keeps the last record for each value of field, in place. Records
// without the field are kept.
func Dedupe(recs []record.Record, field string) []record.Record {
	last := make(map[string]int, len(recs))
	for i, r := range recs {
		if v, ok := r[field]; ok && !v.IsNull() {
			last[v.Key()] = i
		}
	}
	out := recs[:0]
	for i, r := range recs {
		if v, ok := r[field]; ok && !v.IsNull() && last[v.Key()] != i {
			continue
		}
		out = append(out, r)
	}
	return out
}
