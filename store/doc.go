// Package store implements the indexed record store.
//
// A Store owns the full set of live records and a canonical index: the live
// record positions sorted ascending by id. Identity lookups binary search the
// canonical index. The index is rebuilt, not patched, on every structural
// mutation (append, delete, reset), so it always reflects exactly the live
// records.
//
// Positions are stable slots. Deleting a record leaves a gap, tracked by a
// live-position bitset, until Compact renumbers the slots.
//
// Fields declared Indexed in the schema additionally get an inverted
// equality index built on Roaring bitmaps, which CreateFilteredIndex uses to
// narrow equality and membership conditions before evaluating the filter.
//
// A Store is owned by one goroutine. It carries no locks.
package store
