// Package slotmap provides a hierarchical bitmap slot allocator over a
// caller-supplied byte region.
//
// A Map hands out unique small-integer slot indices and takes them back.
// All state is a multi-level free bitmap stored in the region itself, so the
// allocator never allocates, grows or moves memory, and a Map can be dropped
// and recreated over the same bytes at any time.
//
// # Quick Start
//
//	region := make([]byte, slotmap.Max.RequiredBytes()) // zeroed: empty map
//	m, err := slotmap.New(region, 0, slotmap.Max)
//	if err != nil { ... }
//
//	idx, err := m.Alloc()   // 0, 1, 2, ... lowest free first
//	err = m.Dealloc(idx)    // freeing a free slot is a no-op
//
// # Geometries
//
//	Geometry   Tiers  Top width  Words  Capacity
//	Small      2      64         65     4,096
//	Standard   3      4          261    16,384
//	Max        3      64         4,161  262,144
//	Custom(n)  3      n          1+65n  n*4,096
//
// Word 0 is the top word. Its bit i is set iff mid word i is full. Mid bit j
// is set iff leaf word (i, j) is full (three tiers) or marks slot (i, j)
// directly (two tiers). Alloc walks down following the first clear bit of
// each word and so always returns the lowest free index.
//
// Indices are (top<<6)|mid for two tiers and (top<<12)|(mid<<6)|leaf for
// three.
//
// # Regions
//
// New and Format require region[offset] to be 8-byte aligned and at least
// Geometry.RequiredBytes long. Words are read in native byte order.
// Multiple maps may share one region at disjoint offsets; package arena
// manages such layouts and checks that borrows do not overlap.
//
// # Errors
//
// Sentinels are matched with errors.Is:
//
//	ErrNoAvailableSlots    Alloc on a full map (expected, not a failure)
//	ErrInvalidIndex        Dealloc of an index outside 0..Capacity()-1
//	ErrInvalidOffset       construction: offset outside the region
//	ErrAlignment           construction: region[offset] not 8-byte aligned
//	ErrInsufficientMemory  construction: region too short for the geometry
//	ErrIndexOutOfBounds    a computed word fell outside the map
//	ErrCorrupt             Verify found a parent bit that disagrees with its child
//
// # Concurrency
//
// A Map is not safe for concurrent use and performs no locking.
package slotmap
