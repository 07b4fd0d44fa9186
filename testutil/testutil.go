package testutil

import (
	"math/rand"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rlibre/x4grid/record"
)

// RNG wraps a seeded generator. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates an RNG with the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset rewinds the RNG to its seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a number in [0,1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Perm returns a permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Shuffle reorders recs in place.
func (r *RNG) Shuffle(recs []record.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
}

var (
	firstNames = []string{"alice", "Bob", "carol", "Dave", "erin", "Frank", "grace", "Heidi", "ivan", "Judy"}
	cities     = []string{"Paris", "Lyon", "Nantes", "Lille", "Nice"}
	tags       = []string{"admin", "ops", "dev", "sales"}
	epoch      = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
)

// PeopleSchema describes the records produced by People.
func PeopleSchema() *record.Schema {
	return record.MustSchema("id",
		record.FieldDescriptor{Name: "id", Type: record.FieldTypeInt, Required: true},
		record.FieldDescriptor{Name: "name", Type: record.FieldTypeString, Required: true},
		record.FieldDescriptor{Name: "age", Type: record.FieldTypeInt},
		record.FieldDescriptor{Name: "score", Type: record.FieldTypeFloat},
		record.FieldDescriptor{Name: "city", Type: record.FieldTypeString, Indexed: true},
		record.FieldDescriptor{Name: "active", Type: record.FieldTypeBool, Indexed: true},
		record.FieldDescriptor{Name: "joined", Type: record.FieldTypeDate},
		record.FieldDescriptor{Name: "tags", Type: record.FieldTypeArray},
	)
}

// People returns n records with ids 1..n. Names repeat with mixed case,
// ages and cities repeat so sorts produce ties, and roughly one record in
// ten has a null score.
func (r *RNG) People(n int) []record.Record {
	out := make([]record.Record, n)
	for i := range n {
		id := i + 1
		rec := record.Record{
			"id":     record.Int(int64(id)),
			"name":   record.String(firstNames[r.Intn(len(firstNames))] + " " + strconv.Itoa(r.Intn(100))),
			"age":    record.Int(int64(18 + r.Intn(50))),
			"city":   record.String(cities[r.Intn(len(cities))]),
			"active": record.Bool(r.Intn(2) == 0),
			"joined": record.Date(epoch.Add(time.Duration(r.Intn(1500)) * 24 * time.Hour)),
			"tags":   record.Array([]record.Value{record.String(tags[r.Intn(len(tags))])}),
		}
		if r.Intn(10) == 0 {
			rec["score"] = record.Null()
		} else {
			rec["score"] = record.Float(float64(r.Intn(10000)) / 100)
		}
		out[i] = rec
	}
	return out
}

// Oracle filters and sorts recs by brute force. A nil match keeps every
// record; a nil cmp keeps input order. The result holds the ids.
func Oracle(recs []record.Record, schema *record.Schema, match func(record.Record) bool, cmp func(a, b record.Record) int) []record.Value {
	kept := make([]record.Record, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if match == nil || match(rec) {
			kept = append(kept, rec)
		}
	}
	if cmp != nil {
		slices.SortStableFunc(kept, cmp)
	}
	out := make([]record.Value, len(kept))
	for i, rec := range kept {
		out[i], _ = schema.ID(rec)
	}
	return out
}
