// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("slots/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	snap := snapshot.New(store, "arena-a")
//
// # Atomic Commits
//
// S3 has no compare-and-swap, so two hosts saving snapshots of the same
// namespace can overwrite each other's CURRENT pointer. DDBCommitStore keeps
// the pointer in a DynamoDB table with conditional writes instead and
// reports lost races as ErrConcurrentModification.
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large snapshots (feature/s3/manager)
//   - CRC32-C checksums on small puts
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
