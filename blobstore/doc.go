// Package blobstore reads record payloads from blob storage.
//
// A BlobStore names immutable payload blobs (a JSON array, NDJSON, or a
// compressed variant of either) that the source package decodes into
// records. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, used by tests and examples
//   - LocalStore: local directory, blobs are memory-mapped
//   - s3.Store: Amazon S3 with range reads and managed uploads
//   - minio.Store: MinIO and other S3-compatible servers
package blobstore
