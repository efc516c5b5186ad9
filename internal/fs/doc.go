// Package fs abstracts the file operations used by the local blob store.
//
// Production code uses [Default], which forwards to the os package. Tests
// wrap it in a [FaultyFS] to make writes, syncs or renames fail on demand:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".snap", fs.Fault{FailAfterBytes: 1024})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// The interfaces take no context.Context. Local file calls are short and
// cannot be interrupted at the syscall level.
package fs
