// Package blobstore provides the object storage used for arena snapshots.
//
// BlobStore is the interface for reading and writing named blobs (snapshot
// data, manifests and the CURRENT pointer). Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests and ephemeral hosts
//   - LocalStore: local filesystem; reads are mmap-backed, writes are atomic renames
//   - s3.Store / s3.DDBCommitStore: Amazon S3, optionally with a DynamoDB commit log
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Streamed write, visible on Close
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Missing blobs are reported with an error matching ErrNotFound.
package blobstore
