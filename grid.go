package x4grid

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rlibre/x4grid/query"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/source"
	"github.com/rlibre/x4grid/store"
	"github.com/rlibre/x4grid/view"
	"github.com/rlibre/x4grid/window"
)

// Grid owns an indexed store, one filtered and sorted view over it, and
// the renderers attached to that view.
type Grid struct {
	schema    *record.Schema
	store     *store.Store
	view      *view.View
	renderers []*window.Renderer

	opts    options
	logger  *Logger
	metrics MetricsCollector
	closed  bool
}

// New creates an empty grid for schema.
func New(schema *record.Schema, optFns ...Option) *Grid {
	o := applyOptions(optFns)
	obs := metricsObserver{mc: o.metricsCollector}

	st := store.New(schema,
		store.WithLogger(o.logger.Logger),
		store.WithObserver(obs),
	)

	viewOpts := []view.Option{
		view.WithFilter(o.filter),
		view.WithSort(o.sort),
		view.WithLogger(o.logger.Logger),
		view.WithObserver(obs),
	}
	if o.shortcut {
		viewOpts = append(viewOpts, view.WithValueChangeShortcut())
	}

	return &Grid{
		schema:  schema,
		store:   st,
		view:    view.New(st, viewOpts...),
		opts:    o,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}
}

// Schema returns the grid's schema.
func (g *Grid) Schema() *record.Schema { return g.schema }

// Store returns the underlying store.
func (g *Grid) Store() *store.Store { return g.store }

// View returns the grid's view.
func (g *Grid) View() *view.View { return g.view }

// Append adds rec to the store.
func (g *Grid) Append(ctx context.Context, rec record.Record) error {
	id, _ := g.schema.ID(rec)
	err := g.mutate(ctx, "append", func() error { return g.store.Append(rec) })
	g.logger.LogAppend(ctx, id, err)
	return err
}

// Update replaces the record carrying rec's id.
func (g *Grid) Update(ctx context.Context, rec record.Record) error {
	id, _ := g.schema.ID(rec)
	err := g.mutate(ctx, "update", func() error { return g.store.Update(rec) })
	g.logger.LogUpdate(ctx, id, err)
	return err
}

// Delete removes the record with id.
func (g *Grid) Delete(ctx context.Context, id record.Value) error {
	err := g.mutate(ctx, "delete", func() error { return g.store.Delete(id) })
	g.logger.LogDelete(ctx, id, err)
	return err
}

// SetAll replaces every record. On error the grid is unchanged.
func (g *Grid) SetAll(ctx context.Context, recs []record.Record) error {
	err := g.mutate(ctx, "reset", func() error { return g.store.SetAll(recs) })
	g.logger.LogReset(ctx, len(recs), err)
	return err
}

// Compact drops deletion gaps in the store.
func (g *Grid) Compact() {
	if g.closed {
		return
	}
	gaps := g.store.Len() - g.store.Count()
	g.store.Compact()
	g.logger.Debug("grid: compacted", "gaps", gaps, "records", g.store.Count())
}

func (g *Grid) mutate(ctx context.Context, op string, fn func() error) error {
	if g.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := translateError(fn()); err != nil {
		g.metrics.RecordError(op, err)
		return err
	}
	return nil
}

// Load fetches every source concurrently and replaces the record set with
// their concatenation, in source order. Values are coerced to the declared
// field types where the conversion is lossless.
func (g *Grid) Load(ctx context.Context, sources ...source.Source) error {
	if g.closed {
		return ErrClosed
	}

	start := time.Now()
	loaderOpts := []source.LoaderOption{
		source.WithObserver(metricsObserver{mc: g.metrics}),
		source.WithLoaderOptions(g.opts.sourceOptions...),
		source.WithSchema(g.schema),
	}
	if g.opts.dedupe {
		loaderOpts = append(loaderOpts, source.WithDedupe(g.schema.IDField()))
	}

	recs, err := source.NewLoader(sources, loaderOpts...).Load(ctx)
	if err != nil {
		g.metrics.RecordError("load", err)
		g.logger.LogLoad(ctx, sourceNames(sources), 0, time.Since(start), err)
		return err
	}

	if err := g.SetAll(ctx, recs); err != nil {
		return err
	}
	g.logger.LogLoad(ctx, sourceNames(sources), len(recs), time.Since(start), nil)
	return nil
}

func sourceNames(sources []source.Source) string {
	switch len(sources) {
	case 0:
		return ""
	case 1:
		return sources[0].Name()
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return "[" + strings.Join(names, ",") + "]"
}

// Filter replaces the view's filter. A filter the schema rejects returns
// an error wrapping ErrInvalidQuery and leaves the view unchanged.
func (g *Grid) Filter(f query.Filter) error {
	if g.closed {
		return ErrClosed
	}
	if f != nil {
		if _, err := query.Compile(f, g.schema); err != nil {
			if unknown := g.undeclared(query.Fields(f)); len(unknown) > 0 {
				g.logger.Warn("grid: filter references undeclared fields", "fields", unknown)
			}
			return g.rejectQuery("filter", f.String(), err)
		}
	}
	g.view.Filter(f)
	g.logger.LogQuery(context.Background(), "filter", filterString(f), g.view.Count(), nil)
	return nil
}

// FilterText parses s and applies it as the filter. An empty string
// clears the filter.
func (g *Grid) FilterText(s string) error {
	f, err := query.ParseFilter(s)
	if err != nil {
		return g.rejectQuery("filter", s, err)
	}
	return g.Filter(f)
}

// Sort replaces the view's sort. An empty sort orders by id.
func (g *Grid) Sort(s query.Sort) error {
	if g.closed {
		return ErrClosed
	}
	if _, err := query.CompileSort(s, g.schema); err != nil {
		return g.rejectQuery("sort", s.String(), err)
	}
	g.view.Sort(s)
	g.logger.LogQuery(context.Background(), "sort", s.String(), g.view.Count(), nil)
	return nil
}

// SortText parses s and applies it as the sort.
func (g *Grid) SortText(s string) error {
	srt, err := query.ParseSort(s)
	if err != nil {
		return g.rejectQuery("sort", s, err)
	}
	return g.Sort(srt)
}

func (g *Grid) undeclared(fields []string) []string {
	var out []string
	for _, f := range fields {
		if !g.schema.Has(f) && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func (g *Grid) rejectQuery(kind, spec string, err error) error {
	err = translateError(err)
	g.metrics.RecordError(kind, err)
	g.logger.LogQuery(context.Background(), kind, spec, 0, err)
	return err
}

func filterString(f query.Filter) string {
	if f == nil {
		return ""
	}
	return f.String()
}

// Count returns the number of records in the view.
func (g *Grid) Count() int { return g.view.Count() }

// GetByIndex returns the record at view index i.
func (g *Grid) GetByIndex(i int) (record.Record, bool) { return g.view.GetByIndex(i) }

// IndexOfID returns the view index of id, or store.NotFound.
func (g *Grid) IndexOfID(id record.Value) int { return g.view.IndexOfID(id) }

// Get returns the record with id, whether or not the view includes it.
func (g *Grid) Get(id record.Value) (record.Record, bool) { return g.store.Get(id) }

// Rows returns the view's records in view order. The records are owned by
// the store and must not be modified.
func (g *Grid) Rows() []record.Record {
	rows := make([]record.Record, 0, g.view.Count())
	for i := range g.view.Count() {
		rec, _ := g.view.GetByIndex(i)
		rows = append(rows, rec)
	}
	return rows
}

// Attach creates a renderer over the view and subscribes it to view
// changes. Close destroys it along with the grid.
func (g *Grid) Attach(factory window.Factory, opts ...window.Option) *window.Renderer {
	all := []window.Option{
		window.WithLogger(g.logger.Logger),
		window.WithObserver(metricsObserver{mc: g.metrics}),
	}
	all = append(all, g.opts.rendererOptions...)
	all = append(all, opts...)

	r := window.New(g.view, factory, all...)
	r.Follow(g.view)
	g.renderers = append(g.renderers, r)
	return r
}

// Detach closes r and forgets it.
func (g *Grid) Detach(r *window.Renderer) {
	i := slices.Index(g.renderers, r)
	if i < 0 {
		return
	}
	g.renderers = slices.Delete(g.renderers, i, i+1)
	r.Close()
}

// Close destroys every attached renderer and detaches the view. The grid
// rejects further mutations.
func (g *Grid) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	for _, r := range g.renderers {
		r.Close()
	}
	g.renderers = nil
	g.view.Close()
	return nil
}
