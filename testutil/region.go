package testutil

import "github.com/hupe1980/slotmap/internal/mem"

// AlignedRegion returns a zeroed, 8-byte aligned region of size bytes.
func AlignedRegion(size int) []byte {
	return mem.AllocAligned(size, mem.DefaultAlignment)
}

// MisalignedRegion returns a zeroed region of size bytes whose first byte is
// one past an 8-byte boundary.
func MisalignedRegion(size int) []byte {
	return mem.AllocAligned(size+1, mem.DefaultAlignment)[1:]
}

// Words returns region reinterpreted as native-endian words, for poking at
// bitmap state in tests. region must come from AlignedRegion.
func Words(region []byte) []uint64 {
	return mem.Words(region)
}
