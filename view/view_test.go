package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlibre/x4grid/query"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/store"
)

func newStore(t *testing.T, recs ...record.Record) *store.Store {
	t.Helper()
	schema := record.MustSchema("id",
		record.FieldDescriptor{Name: "id", Type: record.FieldTypeInt},
		record.FieldDescriptor{Name: "name", Type: record.FieldTypeString},
		record.FieldDescriptor{Name: "active", Type: record.FieldTypeBool},
	)
	st := store.New(schema)
	require.NoError(t, st.SetAll(recs))
	return st
}

func r(id int64, name string, active bool) record.Record {
	return record.Record{"id": record.Int(id), "name": record.String(name), "active": record.Bool(active)}
}

func viewIDs(v *View) []int64 {
	out := make([]int64, v.Count())
	for i := range out {
		id, _ := v.IDAt(i)
		out[i] = id.I64
	}
	return out
}

func TestActiveFilterScenario(t *testing.T) {
	st := newStore(t, r(1, "x", true), r(2, "y", false), r(3, "z", true))
	v := New(st)
	defer v.Close()

	v.Filter(query.Condition{Field: "active", Op: query.OpEqual, Value: record.Bool(true)})

	require.Equal(t, 2, v.Count())
	first, ok := v.GetByIndex(0)
	require.True(t, ok)
	assert.Equal(t, int64(1), first["id"].I64)
	second, ok := v.GetByIndex(1)
	require.True(t, ok)
	assert.Equal(t, int64(3), second["id"].I64)

	_, ok = v.GetByIndex(2)
	assert.False(t, ok)
	_, ok = v.GetByIndex(-1)
	assert.False(t, ok)
}

func TestNameSortScenario(t *testing.T) {
	st := newStore(t, r(1, "b", true), r(2, "a", true), r(3, "c", true))
	v := New(st)
	defer v.Close()

	names := func() []string {
		out := make([]string, v.Count())
		for i := range out {
			rec, _ := v.GetByIndex(i)
			out[i] = rec["name"].StringValue()
		}
		return out
	}

	v.Sort(query.Sort{query.Asc("name")})
	assert.Equal(t, []string{"a", "b", "c"}, names())

	v.Sort(query.Sort{query.Desc("name")})
	assert.Equal(t, []string{"c", "b", "a"}, names())

	v.Sort(nil)
	assert.Equal(t, []int64{1, 2, 3}, viewIDs(v))
}

func TestSortTwiceIsIdempotent(t *testing.T) {
	st := newStore(t, r(1, "b", true), r(2, "a", false), r(3, "b", true), r(4, "a", true))
	v := New(st, WithSort(query.Sort{query.Asc("name"), query.Desc("active")}))
	defer v.Close()

	once := viewIDs(v)
	v.Sort(query.Sort{query.Asc("name"), query.Desc("active")})
	assert.Equal(t, once, viewIDs(v))
	assert.Equal(t, []int64{4, 2, 3, 1}, once)
}

func TestIndexOfID(t *testing.T) {
	st := newStore(t, r(1, "b", true), r(2, "a", false), r(3, "c", true))
	v := New(st,
		WithFilter(query.Eq("active", record.Bool(true))),
		WithSort(query.Sort{query.Desc("name")}),
	)
	defer v.Close()

	assert.Equal(t, 0, v.IndexOfID(record.Int(3)))
	assert.Equal(t, 1, v.IndexOfID(record.Int(1)))
	assert.Equal(t, store.NotFound, v.IndexOfID(record.Int(2)), "filtered out")
	assert.Equal(t, store.NotFound, v.IndexOfID(record.Int(9)), "not in store")
}

func TestStoreMutationsRecompute(t *testing.T) {
	st := newStore(t, r(1, "a", true), r(2, "b", false))
	v := New(st, WithFilter(query.Eq("active", record.Bool(true))), WithSort(query.Sort{query.Asc("name")}))
	defer v.Close()

	var events []store.Event
	v.Subscribe(func(e store.Event) { events = append(events, e) })

	require.NoError(t, st.Append(r(3, "0", true)))
	assert.Equal(t, []int64{3, 1}, viewIDs(v))

	require.NoError(t, st.Delete(record.Int(1)))
	assert.Equal(t, []int64{3}, viewIDs(v))

	require.NoError(t, st.SetAll([]record.Record{r(5, "e", true), r(6, "d", true)}))
	assert.Equal(t, []int64{6, 5}, viewIDs(v))

	require.Len(t, events, 3)
	assert.Equal(t, store.EventCreate, events[0].Kind)
	assert.Equal(t, 0, events[0].Position)
	assert.Equal(t, store.EventDelete, events[1].Kind)
	assert.Equal(t, 1, events[1].Position)
	assert.Equal(t, store.EventReset, events[2].Kind)
	assert.Equal(t, store.NotFound, events[2].Position)
}

func TestValueChangeRefiltersByDefault(t *testing.T) {
	st := newStore(t, r(1, "a", true), r(2, "b", true))
	v := New(st, WithFilter(query.Eq("active", record.Bool(true))))
	defer v.Close()

	require.NoError(t, st.Update(r(1, "a", false)))
	assert.Equal(t, []int64{2}, viewIDs(v))
}

func TestValueChangeShortcutOnlyResorts(t *testing.T) {
	st := newStore(t, r(1, "a", true), r(2, "b", true))
	v := New(st,
		WithFilter(query.Eq("active", record.Bool(true))),
		WithSort(query.Sort{query.Asc("name")}),
		WithValueChangeShortcut(),
	)
	defer v.Close()

	require.NoError(t, st.Update(r(1, "z", false)))
	assert.Equal(t, []int64{2, 1}, viewIDs(v), "re-sorted, membership kept")

	v.Filter(v.FilterSpec())
	assert.Equal(t, []int64{2}, viewIDs(v))
}

func TestFilterCountMatchesStore(t *testing.T) {
	var recs []record.Record
	for i := range 50 {
		recs = append(recs, r(int64(i), string(rune('a'+i%26)), i%3 == 0))
	}
	st := newStore(t, recs...)
	v := New(st)
	defer v.Close()

	filters := []query.Filter{
		nil,
		query.EmptyResult{},
		query.Eq("active", record.Bool(true)),
		query.Condition{Field: "name", Op: query.OpLess, Value: record.String("m")},
		query.Where(func(rec record.Record) bool { return rec["id"].I64%5 == 0 }),
	}
	for _, f := range filters {
		v.Filter(f)
		match, err := query.Compile(f, st.Schema())
		require.NoError(t, err)
		want := 0
		for _, rec := range recs {
			if match(rec) {
				want++
			}
		}
		assert.Equal(t, want, v.Count())
	}
}

func TestUnknownFilterFieldIsEmpty(t *testing.T) {
	st := newStore(t, r(1, "a", true))
	v := New(st)
	defer v.Close()

	v.Filter(query.Eq("nope", record.Int(1)))
	assert.Zero(t, v.Count())
}

func TestCloseDetaches(t *testing.T) {
	st := newStore(t, r(1, "a", true))
	v1 := New(st)
	v2 := New(st)

	calls := 0
	v1.Subscribe(func(store.Event) { calls++ })
	v1.Close()
	v1.Close()

	require.NoError(t, st.Append(r(2, "b", true)))
	assert.Equal(t, 1, v1.Count(), "closed view no longer recomputes")
	assert.Equal(t, 2, v2.Count())
	assert.Zero(t, calls)
	v2.Close()
}

func TestFilterAndSortEvents(t *testing.T) {
	st := newStore(t, r(1, "a", true))
	v := New(st)
	defer v.Close()

	var kinds []store.EventKind
	v.Subscribe(func(e store.Event) { kinds = append(kinds, e.Kind) })

	v.Filter(nil)
	v.Sort(query.Sort{query.Asc("name")})
	assert.Equal(t, []store.EventKind{store.EventFilter, store.EventSort}, kinds)
	assert.Nil(t, v.FilterSpec())
	assert.Equal(t, query.Sort{query.Asc("name")}, v.SortSpec())
}

func TestRejectedSortKeepsPrevious(t *testing.T) {
	st := newStore(t, r(1, "a", true), r(2, "c", true), r(3, "b", true))
	v := New(st)
	defer v.Close()

	v.Sort(query.Sort{query.Desc("name")})
	require.Equal(t, []int64{2, 3, 1}, viewIDs(v))

	events := 0
	v.Subscribe(func(e store.Event) {
		if e.Kind == store.EventSort {
			events++
		}
	})
	v.Sort(query.Sort{query.Asc("nope")})
	assert.Equal(t, []int64{2, 3, 1}, viewIDs(v))
	assert.Equal(t, query.Sort{query.Desc("name")}, v.SortSpec())
	assert.Zero(t, events)

	require.NoError(t, st.Update(r(1, "a", false)))
	assert.Equal(t, []int64{2, 3, 1}, viewIDs(v), "later recomputes keep the accepted sort")

	v2 := New(st, WithSort(query.Sort{query.Asc("nope")}))
	defer v2.Close()
	assert.Empty(t, v2.SortSpec())
	assert.Equal(t, []int64{1, 2, 3}, viewIDs(v2))
}
