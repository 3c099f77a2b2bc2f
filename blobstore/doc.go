// Package blobstore abstracts the places an index, a metadata document or
// an export can live: local files, object stores, or memory in tests.
//
// A Store reads whole blobs and writes new ones:
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)           // Open for reading
//	    Stat(ctx, name) (int64, error)          // Existence and size
//	    Create(ctx, name) (WritableBlob, error) // Create or replace
//	}
//
// Writes are all-or-nothing: the previous content stays visible until
// WritableBlob.Close succeeds, and Abort discards everything written.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap-backed reads
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// A Resolver maps location strings such as "data/out.json" or
// "s3://bucket/exports/out.json" to a Store and a name within it.
package blobstore
