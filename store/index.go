package store

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/rlibre/x4grid/query"
	"github.com/rlibre/x4grid/record"
)

// invertedIndex maps field -> value key -> bitmap of slot positions for
// fields declared Indexed.
type invertedIndex struct {
	fields   map[string]struct{}
	postings map[string]map[string]*roaring.Bitmap
}

func newInvertedIndex(schema *record.Schema) *invertedIndex {
	ix := &invertedIndex{
		fields:   make(map[string]struct{}),
		postings: make(map[string]map[string]*roaring.Bitmap),
	}
	for f := range schema.Fields() {
		if f.Indexed && f.Type != record.FieldTypeCalculated {
			ix.fields[f.Name] = struct{}{}
		}
	}
	return ix
}

func (ix *invertedIndex) reset() {
	ix.postings = make(map[string]map[string]*roaring.Bitmap, len(ix.fields))
}

func (ix *invertedIndex) add(pos int, rec record.Record) {
	for field := range ix.fields {
		v, ok := rec[field]
		if !ok || v.IsNull() {
			continue
		}
		values, ok := ix.postings[field]
		if !ok {
			values = make(map[string]*roaring.Bitmap)
			ix.postings[field] = values
		}
		key := valueKey(v)
		bm, ok := values[key]
		if !ok {
			bm = roaring.New()
			values[key] = bm
		}
		bm.Add(uint32(pos))
	}
}

func (ix *invertedIndex) remove(pos int, rec record.Record) {
	for field := range ix.fields {
		v, ok := rec[field]
		if !ok || v.IsNull() {
			continue
		}
		values, ok := ix.postings[field]
		if !ok {
			continue
		}
		key := valueKey(v)
		if bm, ok := values[key]; ok {
			bm.Remove(uint32(pos))
			if bm.IsEmpty() {
				delete(values, key)
			}
		}
	}
}

// candidates returns a superset of the positions matching f when the
// inverted index can narrow it. The caller still evaluates f on each
// candidate.
func (ix *invertedIndex) candidates(f query.Filter) (*roaring.Bitmap, bool) {
	switch x := f.(type) {
	case query.Condition:
		return ix.condition(x)
	case query.And:
		var acc *roaring.Bitmap
		for _, child := range x {
			bm, ok := ix.candidates(child)
			if !ok {
				continue
			}
			if acc == nil {
				acc = bm.Clone()
			} else {
				acc.And(bm)
			}
		}
		return acc, acc != nil
	case query.Or:
		if len(x) == 0 {
			return nil, false
		}
		acc := roaring.New()
		for _, child := range x {
			bm, ok := ix.candidates(child)
			if !ok {
				return nil, false
			}
			acc.Or(bm)
		}
		return acc, true
	}
	return nil, false
}

func (ix *invertedIndex) condition(c query.Condition) (*roaring.Bitmap, bool) {
	if _, ok := ix.fields[c.Field]; !ok {
		return nil, false
	}

	var wants []record.Value
	switch c.Op {
	case query.OpEqual:
		wants = []record.Value{c.Value}
	case query.OpIn:
		if c.Value.Kind != record.KindArray {
			wants = []record.Value{c.Value}
		} else {
			wants = c.Value.A
		}
	default:
		return nil, false
	}

	out := roaring.New()
	values := ix.postings[c.Field]
	for _, w := range wants {
		if !indexable(w, c.CaseSensitive) {
			return nil, false
		}
		if bm, ok := values[valueKey(w)]; ok {
			out.Or(bm)
		}
	}
	return out, true
}

// indexable reports whether equality on v is exact key equality. Values
// that compare equal to null, and strings under case folding, are not.
func indexable(v record.Value, caseSensitive bool) bool {
	if v.IsNull() || v.Kind == record.KindArray {
		return false
	}
	if record.Compare(record.Null(), v) == 0 {
		return false
	}
	if v.Kind == record.KindString && !caseSensitive {
		return false
	}
	return true
}

// valueKey folds integral floats onto the int key so numeric equality
// across kinds shares a posting list.
func valueKey(v record.Value) string {
	if f, ok := v.AsFloat64(); ok && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return record.Int(int64(f)).Key()
	}
	return v.Key()
}
