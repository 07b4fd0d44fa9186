package x4grid_test

import (
	"context"
	"fmt"
	"log"

	"github.com/rlibre/x4grid"
	"github.com/rlibre/x4grid/query"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/source"
)

func exampleSchema() *record.Schema {
	return record.MustSchema("id",
		record.FieldDescriptor{Name: "id", Type: record.FieldTypeInt},
		record.FieldDescriptor{Name: "name", Type: record.FieldTypeString},
		record.FieldDescriptor{Name: "city", Type: record.FieldTypeString, Indexed: true},
	)
}

func exampleRecords() []record.Record {
	recs, err := record.FromMaps([]map[string]any{
		{"id": 1, "name": "alice", "city": "Paris"},
		{"id": 2, "name": "Bob", "city": "Lyon"},
		{"id": 3, "name": "carol", "city": "Paris"},
	})
	if err != nil {
		log.Fatal(err)
	}
	return recs
}

// Example_filterAndSort builds a grid, filters it and sorts it.
func Example_filterAndSort() {
	ctx := context.Background()
	g := x4grid.New(exampleSchema())
	defer g.Close()

	if err := g.SetAll(ctx, exampleRecords()); err != nil {
		log.Fatal(err)
	}
	_ = g.FilterText("city = paris")
	_ = g.Sort(query.Sort{query.Desc("name")})

	for _, rec := range g.Rows() {
		fmt.Println(rec["name"].StringValue())
	}
	// Output:
	// carol
	// alice
}

// Example_load fills a grid from a source.
func Example_load() {
	ctx := context.Background()
	g := x4grid.New(exampleSchema(), x4grid.WithSort(query.Sort{query.Asc("name")}))
	defer g.Close()

	if err := g.Load(ctx, source.NewStatic("people", exampleRecords())); err != nil {
		log.Fatal(err)
	}
	fmt.Println(g.Count(), g.Rows()[0]["name"].StringValue())
	// Output: 3 alice
}

// Example_metrics collects basic metrics.
func Example_metrics() {
	ctx := context.Background()
	metrics := &x4grid.BasicMetricsCollector{}
	g := x4grid.New(exampleSchema(), x4grid.WithMetricsCollector(metrics))
	defer g.Close()

	for _, rec := range exampleRecords() {
		_ = g.Append(ctx, rec)
	}
	_ = g.Delete(ctx, record.Int(42))

	stats := metrics.GetStats()
	fmt.Println(stats.MutationCount, stats.ErrorCount)
	// Output: 3 1
}
