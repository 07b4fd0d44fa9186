// Package mmap maps local payload files read-only into memory.
//
// blobstore.LocalStore opens each payload with a ReadHint and serves the
// mapped bytes to sources without a read loop. Unix maps with mmap(2) and
// honours the hint; Windows maps a file view and drops it.
//
// Bytes must not be used after Close returns.
package mmap
