// Package source is the data proxy that feeds a grid.
//
// A Source fetches a plain record array from somewhere (a blob in a
// BlobStore, a reader, a DynamoDB table). A Loader fetches several sources
// concurrently under a resource.Controller and concatenates the results
// in source order; the caller hands them to store.Store.SetAll on its own
// goroutine. A Watcher reports when a local payload file changes so the
// caller can load again.
package source
