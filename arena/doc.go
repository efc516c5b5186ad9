// Package arena owns the memory that slot maps live in.
//
// An Arena is one contiguous, 8-byte aligned byte region backed by the Go
// heap, an anonymous mapping, or a shared file mapping. Handles name a
// (offset, geometry) pair inside it; borrowing a handle yields a
// *slotmap.Map with exclusive access to that bitmap until released.
//
// # Concurrency
//
// Handles over disjoint regions may be borrowed from different goroutines at
// the same time. A second Borrow of the same handle fails with
// ErrBorrowConflict instead of blocking. Reset, Capture, Restore and Close
// need every handle returned first.
//
// # Generations
//
// Reset, Restore and Close bump the arena generation. Handles taken before
// the bump fail with ErrStaleHandle; take new ones from Handles or Handle.
//
// # Memory Budget
//
// With WithMemoryAcquirer (e.g. a *resource.Controller) the arena acquires
// its size at creation and releases it on Close.
package arena
