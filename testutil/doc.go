// Package testutil provides deterministic record sets and brute-force
// oracles for tests and benchmarks.
//
// # Record Generation
//
//	rng := testutil.NewRNG(seed)
//	recs := rng.People(1000)          // ids 1..1000, shuffled field values
//	schema := testutil.PeopleSchema() // matching descriptors
//
// # Ground Truth
//
//	want := testutil.Oracle(recs, schema, matcher, comparator)
//
// Oracle evaluates a filter and sort by scanning every record, which is
// what the indexed store and derived views must agree with.
package testutil
