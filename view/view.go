// Package view implements derived views: filtered and sorted projections
// over a shared store.
//
// A View subscribes to its store at construction and recomputes on every
// store notification. Structural changes re-run filter and sort. Value-only
// updates also re-filter by default, so membership never goes stale; the
// WithValueChangeShortcut option restores the cheaper re-sort-only path for
// callers that never mutate fields an active filter reads.
//
// Many views may share one store. Close detaches a view without affecting
// the store or its other views.
package view

import (
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/rlibre/x4grid/notify"
	"github.com/rlibre/x4grid/query"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/store"
)

// Observer receives view instrumentation callbacks.
type Observer interface {
	OnRecompute(reason store.EventKind, count int, d time.Duration)
}

type noopObserver struct{}

func (noopObserver) OnRecompute(store.EventKind, int, time.Duration) {}

type options struct {
	filter   query.Filter
	sort     query.Sort
	shortcut bool
	logger   *slog.Logger
	observer Observer
}

// Option configures a View.
type Option func(*options)

// WithFilter sets the initial filter.
func WithFilter(f query.Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithSort sets the initial sort.
func WithSort(s query.Sort) Option {
	return func(o *options) { o.sort = s }
}

// WithValueChangeShortcut makes value-only updates re-sort without
// re-filtering. Membership can then go stale if an updated field feeds the
// active filter.
func WithValueChangeShortcut() Option {
	return func(o *options) { o.shortcut = true }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver sets the instrumentation observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// View is a filtered, sorted projection of a store.
type View struct {
	store *store.Store

	filter query.Filter
	sort   query.Sort

	// index holds store slot positions after filter then sort.
	index   []int
	members *roaring.Bitmap
	// rank maps a slot position to its view index; built on demand.
	rank      map[int]int
	rankValid bool

	shortcut bool
	sub      *notify.Subscription
	hub      notify.Hub[store.Event]
	logger   *slog.Logger
	observer Observer
	closed   bool
}

// New creates a view over st and computes its initial index.
func New(st *store.Store, opts ...Option) *View {
	o := options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	v := &View{
		store:    st,
		filter:   o.filter,
		members:  roaring.New(),
		shortcut: o.shortcut,
		logger:   o.logger,
		observer: o.observer,
	}
	if v.acceptSort(o.sort) {
		v.sort = slices.Clone(o.sort)
	}
	v.recompute(store.EventReset)
	v.sub = st.Subscribe(v.onStoreEvent)
	return v
}

// Subscribe registers fn for view change notifications. Positions in the
// events are view indexes.
func (v *View) Subscribe(fn func(store.Event)) *notify.Subscription {
	return v.hub.Subscribe(fn)
}

// Close detaches the view from its store and drops its subscribers.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.sub.Unsubscribe()
	v.hub.Clear()
}

// Store returns the underlying store.
func (v *View) Store() *store.Store { return v.store }

// FilterSpec returns the current filter.
func (v *View) FilterSpec() query.Filter { return v.filter }

// SortSpec returns a copy of the current sort.
func (v *View) SortSpec() query.Sort { return slices.Clone(v.sort) }

// Filter replaces the filter, recomputes from the store's current canonical
// index, re-applies the current sort and emits EventFilter.
func (v *View) Filter(f query.Filter) {
	v.filter = f
	v.recompute(store.EventFilter)
	v.hub.Publish(store.Event{Kind: store.EventFilter, ID: record.Null(), Position: store.NotFound})
}

// Sort replaces the sort, re-sorts the current index in place and emits
// EventSort. A sort the schema rejects is logged and the previous sort stays
// in effect.
func (v *View) Sort(s query.Sort) {
	if !v.acceptSort(s) {
		return
	}
	start := time.Now()
	v.sort = slices.Clone(s)
	v.store.SortIndex(v.index, v.sort)
	v.rankValid = false
	v.observer.OnRecompute(store.EventSort, len(v.index), time.Since(start))
	v.hub.Publish(store.Event{Kind: store.EventSort, ID: record.Null(), Position: store.NotFound})
}

func (v *View) acceptSort(s query.Sort) bool {
	if _, err := query.CompileSort(s, v.store.Schema()); err != nil {
		v.logger.Error("view: sort rejected", "sort", s.String(), "error", err)
		return false
	}
	return true
}

// Count returns the number of records in the view.
func (v *View) Count() int { return len(v.index) }

// GetByIndex returns the record at view index i.
func (v *View) GetByIndex(i int) (record.Record, bool) {
	if i < 0 || i >= len(v.index) {
		return nil, false
	}
	return v.store.At(v.index[i])
}

// IDAt returns the id at view index i.
func (v *View) IDAt(i int) (record.Value, bool) {
	rec, ok := v.GetByIndex(i)
	if !ok {
		return record.Value{}, false
	}
	return rec[v.store.Schema().IDField()], true
}

// IndexOfID returns the view index of id, or store.NotFound when id is not
// in the store or not part of the current filtered set.
func (v *View) IndexOfID(id record.Value) int {
	pos := v.store.PositionOf(id)
	if pos == store.NotFound || !v.members.Contains(uint32(pos)) {
		return store.NotFound
	}
	if !v.rankValid {
		v.rank = make(map[int]int, len(v.index))
		for i, p := range v.index {
			v.rank[p] = i
		}
		v.rankValid = true
	}
	if i, ok := v.rank[pos]; ok {
		return i
	}
	return store.NotFound
}

func (v *View) recompute(reason store.EventKind) {
	start := time.Now()

	idx := v.store.CreateFilteredIndex(v.filter)
	if len(v.sort) > 0 {
		v.store.SortIndex(idx, v.sort)
	}
	v.index = idx

	v.members.Clear()
	for _, pos := range idx {
		v.members.Add(uint32(pos))
	}
	v.rankValid = false

	v.observer.OnRecompute(reason, len(idx), time.Since(start))
	v.logger.Debug("view recomputed", "reason", reason.String(), "count", len(idx))
}

func (v *View) onStoreEvent(e store.Event) {
	if v.closed {
		return
	}

	out := store.Event{Kind: e.Kind, ID: e.ID, Position: store.NotFound}

	switch {
	case e.Kind == store.EventDelete:
		out.Position = v.stalePosition()
		v.recompute(e.Kind)
	case e.Kind.Structural():
		v.recompute(e.Kind)
		if e.Kind != store.EventReset {
			out.Position = v.IndexOfID(e.ID)
		}
	case e.Kind == store.EventUpdate && v.shortcut:
		start := time.Now()
		if len(v.sort) > 0 {
			v.store.SortIndex(v.index, v.sort)
			v.rankValid = false
		}
		v.observer.OnRecompute(e.Kind, len(v.index), time.Since(start))
		out.Position = v.IndexOfID(e.ID)
	case e.Kind == store.EventUpdate:
		v.recompute(e.Kind)
		out.Position = v.IndexOfID(e.ID)
	default:
		return
	}

	v.hub.Publish(out)
}

// stalePosition returns the view index of the slot the store just cleared,
// before the view recomputes.
func (v *View) stalePosition() int {
	for i, pos := range v.index {
		if _, ok := v.store.At(pos); !ok {
			return i
		}
	}
	return store.NotFound
}
