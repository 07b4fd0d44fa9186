// Package x4grid is an indexed, filterable, sortable record grid with a
// virtualized, recycling window renderer.
//
// A Grid ties together the pieces in the subpackages:
//
//   - record: values, records, schemas and the total order
//   - query: filter and sort specifications
//   - store: the indexed store (canonical id order, inverted index)
//   - view: a filtered and sorted projection over a store
//   - window: the renderer that binds a few recycled items to the visible rows
//   - source: the data proxy that fetches record arrays
//
// # Quick Start
//
//	schema := record.MustSchema("id",
//	    record.FieldDescriptor{Name: "id", Type: record.FieldTypeInt},
//	    record.FieldDescriptor{Name: "name", Type: record.FieldTypeString},
//	)
//	g := x4grid.New(schema, x4grid.WithSort(query.Sort{query.Asc("name")}))
//	defer g.Close()
//
//	_ = g.Load(ctx, source.NewBlobSource(blobstore.NewLocalStore("."), "people.json"))
//	_ = g.FilterText("name ~ ^a")
//
//	r := g.Attach(factory)
//	r.SetViewport(height)
//	// each host frame:
//	r.Tick()
//
// # Threading
//
// A Grid, its store, view and renderer belong to one goroutine. Only
// source fetches run concurrently; Load returns before touching the store
// from the calling goroutine.
package x4grid
