// Package mmap provides memory-mapped regions backing slot arenas.
//
// # Usage
//
//	m, err := mmap.OpenFile("slots.bin", 1<<20) // read-write, created or extended
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes() // page aligned, so 8-byte aligned
//	...
//	m.Sync()          // flush dirty pages to the file
//
//	anon, _ := mmap.MapAnon(1 << 20) // off-heap, zeroed, private
//
// Open maps an existing file read-only, which is enough for inspection.
//
// # Platform Support
//
//   - Unix: mmap(2), msync(2) and madvise(2) via golang.org/x/sys/unix
//   - Windows: CreateFileMapping/MapViewOfFile and VirtualAlloc via
//     golang.org/x/sys/windows (Advise is a no-op)
//
// # Thread Safety
//
// Close is idempotent and protected by atomic operations. Callers must ensure
// no goroutine touches Bytes() after Close returns.
package mmap
