package mem

import (
	"unsafe"
)

// DefaultAlignment is the word alignment required by slot regions (8 bytes).
const DefaultAlignment = 8

// AllocAligned allocates a zeroed byte slice of the given size whose first
// byte sits on an align-byte boundary. align must be a power of two; values
// <= 0 select DefaultAlignment.
//
// Note: This function allocates slightly more memory than requested to ensure alignment.
// The underlying array is kept alive by the returned slice.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if align <= 0 {
		align = DefaultAlignment
	}

	buf := make([]byte, size+align)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	mask := uintptr(align - 1)
	offset := (uintptr(align) - (addr & mask)) & mask

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// IsAligned reports whether b starts on an align-byte boundary.
// An empty slice is never aligned.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 || align <= 0 {
		return false
	}
	addr := uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // address arithmetic only
	return addr&uintptr(align-1) == 0
}

// Words returns b reinterpreted as uint64 words. b must be 8-byte aligned and
// its length a multiple of 8; otherwise nil is returned.
func Words(b []byte) []uint64 {
	if len(b)%DefaultAlignment != 0 || !IsAligned(b, DefaultAlignment) {
		return nil
	}
	ptr := unsafe.Pointer(&b[0]) //nolint:gosec // alignment and length checked above
	return unsafe.Slice((*uint64)(ptr), len(b)/DefaultAlignment)
}
