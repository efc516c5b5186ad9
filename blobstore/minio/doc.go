// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package works with
// MinIO and other S3-compatible systems like Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	store, err := minioblob.New("localhost:9000", "snapshots",
//	    minioblob.WithCredentials("minioadmin", "minioadmin"),
//	    minioblob.WithPrefix("slots/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	snap := snapshot.New(store, "arena-a")
//
// An existing *minio.Client can be wrapped with NewStore.
//
// # Features
//
//   - Streaming uploads for large snapshots
//   - Works with any S3-compatible storage
//   - Air-gap friendly (no AWS dependencies required)
package minio
