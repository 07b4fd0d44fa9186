package store

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/rlibre/x4grid/notify"
	"github.com/rlibre/x4grid/query"
	"github.com/rlibre/x4grid/record"
)

// Store is the indexed record store.
type Store struct {
	schema *record.Schema

	// records holds one slot per position; deleted slots are nil.
	records []record.Record
	live    *bitset.BitSet

	// canonical lists live positions sorted ascending by id.
	canonical []int

	inverted *invertedIndex

	hub      notify.Hub[Event]
	logger   *slog.Logger
	observer Observer
}

// New creates an empty store for schema.
func New(schema *record.Schema, opts ...Option) *Store {
	o := applyOptions(opts)
	return &Store{
		schema:   schema,
		live:     bitset.New(0),
		inverted: newInvertedIndex(schema),
		logger:   o.logger,
		observer: o.observer,
	}
}

// Schema returns the schema the store was created with.
func (s *Store) Schema() *record.Schema { return s.schema }

// Subscribe registers fn for change notifications.
func (s *Store) Subscribe(fn func(Event)) *notify.Subscription {
	return s.hub.Subscribe(fn)
}

// Append adds rec. The store keeps its own copy.
func (s *Store) Append(rec record.Record) error {
	start := time.Now()

	id, ok := s.schema.ID(rec)
	if !ok {
		return fmt.Errorf("%w: field %q", ErrInvalidID, s.schema.IDField())
	}
	if s.IndexOfID(id) != NotFound {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	if err := s.schema.Validate(rec); err != nil {
		return err
	}

	pos := len(s.records)
	s.records = append(s.records, rec.Clone())
	s.live.Set(uint(pos))
	s.inverted.add(pos, s.records[pos])
	s.rebuild()

	s.observer.OnMutation(EventCreate, time.Since(start))
	s.hub.Publish(Event{Kind: EventCreate, ID: id, Position: s.IndexOfID(id)})
	return nil
}

// Update replaces the record carrying rec's id. The position is unchanged.
func (s *Store) Update(rec record.Record) error {
	start := time.Now()

	id, ok := s.schema.ID(rec)
	if !ok {
		return fmt.Errorf("%w: field %q", ErrInvalidID, s.schema.IDField())
	}
	ci := s.IndexOfID(id)
	if ci == NotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.schema.Validate(rec); err != nil {
		return err
	}

	pos := s.canonical[ci]
	s.inverted.remove(pos, s.records[pos])
	s.records[pos] = rec.Clone()
	s.inverted.add(pos, s.records[pos])

	s.observer.OnMutation(EventUpdate, time.Since(start))
	s.hub.Publish(Event{Kind: EventUpdate, ID: id, Position: ci})
	return nil
}

// Delete removes the record with id.
func (s *Store) Delete(id record.Value) error {
	start := time.Now()

	ci := s.IndexOfID(id)
	if ci == NotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	pos := s.canonical[ci]
	s.inverted.remove(pos, s.records[pos])
	s.records[pos] = nil
	s.live.Clear(uint(pos))
	s.rebuild()

	s.observer.OnMutation(EventDelete, time.Since(start))
	s.hub.Publish(Event{Kind: EventDelete, ID: id, Position: ci})
	return nil
}

// SetAll replaces the whole record set. Every record is validated before
// anything is applied; on error the store is unchanged.
func (s *Store) SetAll(recs []record.Record) error {
	start := time.Now()

	seen := make(map[string]struct{}, len(recs))
	for i, rec := range recs {
		id, ok := s.schema.ID(rec)
		if !ok {
			return fmt.Errorf("record %d: %w: field %q", i, ErrInvalidID, s.schema.IDField())
		}
		key := valueKey(id)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("record %d: %w: %s", i, ErrDuplicateID, id)
		}
		seen[key] = struct{}{}
		if err := s.schema.Validate(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	s.records = make([]record.Record, len(recs))
	s.live = bitset.New(uint(len(recs)))
	s.inverted.reset()
	for i, rec := range recs {
		s.records[i] = rec.Clone()
		s.live.Set(uint(i))
		s.inverted.add(i, s.records[i])
	}
	s.rebuild()

	s.observer.OnMutation(EventReset, time.Since(start))
	s.logger.Debug("store reset", "records", len(recs))
	s.hub.Publish(Event{Kind: EventReset, ID: record.Null(), Position: NotFound})
	return nil
}

// Compact drops deletion gaps and renumbers positions in id order. It
// emits EventReset because every position may change.
func (s *Store) Compact() {
	if len(s.canonical) == len(s.records) {
		return
	}

	packed := make([]record.Record, 0, len(s.canonical))
	for rec := range s.All() {
		packed = append(packed, rec)
	}

	s.records = packed
	s.live = bitset.New(uint(len(packed)))
	s.inverted.reset()
	for i, rec := range packed {
		s.live.Set(uint(i))
		s.inverted.add(i, rec)
	}
	s.rebuild()

	s.logger.Debug("store compacted", "records", len(packed))
	s.hub.Publish(Event{Kind: EventReset, ID: record.Null(), Position: NotFound})
}

// rebuild recomputes the canonical index from the live set.
func (s *Store) rebuild() {
	start := time.Now()

	canonical := make([]int, 0, s.live.Count())
	for pos, ok := s.live.NextSet(0); ok; pos, ok = s.live.NextSet(pos + 1) {
		canonical = append(canonical, int(pos))
	}
	idField := s.schema.IDField()
	slices.SortFunc(canonical, func(a, b int) int {
		return record.Compare(s.records[a][idField], s.records[b][idField])
	})
	s.canonical = canonical

	s.observer.OnIndexRebuild(len(canonical), time.Since(start))
}

// IndexOfID returns the canonical index of id, or NotFound.
func (s *Store) IndexOfID(id record.Value) int {
	if id.IsNull() {
		return NotFound
	}
	idField := s.schema.IDField()
	i, found := slices.BinarySearchFunc(s.canonical, id, func(pos int, target record.Value) int {
		return record.Compare(s.records[pos][idField], target)
	})
	if !found {
		return NotFound
	}
	return i
}

// PositionOf returns the slot position of id, or NotFound.
func (s *Store) PositionOf(id record.Value) int {
	ci := s.IndexOfID(id)
	if ci == NotFound {
		return NotFound
	}
	return s.canonical[ci]
}

// Count returns the number of live records.
func (s *Store) Count() int { return len(s.canonical) }

// Len returns the number of allocated slots, including deletion gaps.
func (s *Store) Len() int { return len(s.records) }

// GetByIndex returns the record at canonical index i.
//
// The returned record is owned by the store and must not be modified.
func (s *Store) GetByIndex(i int) (record.Record, bool) {
	if i < 0 || i >= len(s.canonical) {
		return nil, false
	}
	return s.records[s.canonical[i]], true
}

// IDAt returns the id at canonical index i.
func (s *Store) IDAt(i int) (record.Value, bool) {
	rec, ok := s.GetByIndex(i)
	if !ok {
		return record.Value{}, false
	}
	return rec[s.schema.IDField()], true
}

// Get returns the record with id.
func (s *Store) Get(id record.Value) (record.Record, bool) {
	return s.GetByIndex(s.IndexOfID(id))
}

// At returns the record in slot pos. Deleted slots report false.
func (s *Store) At(pos int) (record.Record, bool) {
	if pos < 0 || pos >= len(s.records) || !s.live.Test(uint(pos)) {
		return nil, false
	}
	return s.records[pos], true
}

// Canonical returns a copy of the canonical index.
func (s *Store) Canonical() []int {
	return slices.Clone(s.canonical)
}

// All iterates live records in id order.
func (s *Store) All() iter.Seq[record.Record] {
	return func(yield func(record.Record) bool) {
		for _, pos := range s.canonical {
			if !yield(s.records[pos]) {
				return
			}
		}
	}
}

// Value returns field of rec, deriving calculated fields.
func (s *Store) Value(rec record.Record, field string) record.Value {
	return s.schema.Get(rec, field)
}

// CreateFilteredIndex returns the slot positions of live records matching
// f, in canonical order.
//
// A nil filter selects every live record. EmptyResult returns without
// scanning. A filter the schema rejects is logged and yields an empty result.
func (s *Store) CreateFilteredIndex(f query.Filter) []int {
	if f == nil {
		return slices.Clone(s.canonical)
	}
	if query.IsEmptyResult(f) {
		return []int{}
	}

	match, err := query.Compile(f, s.schema)
	if err != nil {
		s.logger.Error("store: filter rejected", "filter", f.String(), "error", err)
		return []int{}
	}

	candidates, narrowed := s.inverted.candidates(f)

	out := make([]int, 0, len(s.canonical))
	for _, pos := range s.canonical {
		if narrowed && !candidates.Contains(uint32(pos)) {
			continue
		}
		if match(s.records[pos]) {
			out = append(out, pos)
		}
	}
	return out
}

// SortIndex sorts idx, a slice of slot positions, in place. An empty sort
// orders by id. A sort the schema rejects is logged and leaves idx as is.
func (s *Store) SortIndex(idx []int, srt query.Sort) {
	cmp, err := query.CompileSort(srt, s.schema)
	if err != nil {
		s.logger.Error("store: sort rejected", "sort", srt.String(), "error", err)
		return
	}
	slices.SortFunc(idx, func(a, b int) int {
		return cmp(s.records[a], s.records[b])
	})
}
