// Package query defines filter and sort specifications over records and
// compiles them into matchers and comparators.
//
// Filters are a sealed set of variants:
//
//	query.Condition{Field: "active", Op: query.OpEqual, Value: record.Bool(true)}
//	query.Func(func(g query.Getter) bool { return g.Get("age").I64 > 18 })
//	query.EmptyResult{}
//	query.And{f1, f2}
//
// A nil Filter selects every record. Sorts are ordered field lists:
//
//	query.Sort{{Field: "name", Ascending: true}, {Field: "age"}}
//
// Compile and CompileSort resolve field names against a schema once, so a
// bad field or pattern is reported before any record is scanned.
package query
