// Package snapshot saves arenas to a blobstore and restores them.
//
// A snapshot is a chunked, optionally compressed copy of the whole arena plus
// a manifest listing its regions and their allocated sets. Chunks carry
// CRC32-C checksums; Restore also checks every region against the manifest
// before touching the arena.
//
// # Usage
//
//	store := blobstore.NewLocalStore("/var/lib/slots")
//	snap := snapshot.New(store, "arena-a", snapshot.WithCompression(snapshot.CompressionLZ4))
//
//	m, err := snap.Save(ctx, a)
//	...
//	m, err = snap.Restore(ctx, a)
//
// Any blobstore works. With s3.DDBCommitStore the CURRENT pointer is updated
// with a conditional write, so concurrent savers fail instead of racing.
package snapshot
