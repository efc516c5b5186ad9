package words

import (
	"errors"
	"unsafe"
)

// Size is the width of a word in bytes.
const Size = 8

var (
	// ErrInvalidOffset is returned when the offset does not address a byte of the region.
	ErrInvalidOffset = errors.New("words: invalid offset")
	// ErrMisaligned is returned when the word start is not 8-byte aligned.
	ErrMisaligned = errors.New("words: misaligned region")
	// ErrShortRegion is returned when fewer bytes remain than the requested word count needs.
	ErrShortRegion = errors.New("words: region too short")
	// ErrOutOfBounds is returned for a word index outside the view.
	ErrOutOfBounds = errors.New("words: index out of bounds")
)

// View is a bounds-checked window of words over a byte region.
type View struct {
	w []uint64
}

// New returns a view of n words starting at region[offset].
//
// Checks run in a fixed order: offset, alignment, then length.
func New(region []byte, offset, n int) (View, error) {
	if offset < 0 || offset >= len(region) {
		return View{}, ErrInvalidOffset
	}
	if !Aligned(region, offset) {
		return View{}, ErrMisaligned
	}
	if n < 0 || (len(region)-offset)/Size < n {
		return View{}, ErrShortRegion
	}
	if n == 0 {
		return View{}, nil
	}
	ptr := unsafe.Pointer(&region[offset]) //nolint:gosec // alignment and length checked above
	return View{w: unsafe.Slice((*uint64)(ptr), n)}, nil
}

// Wrap returns a view over an existing word slice.
func Wrap(w []uint64) View {
	return View{w: w}
}

// Aligned reports whether region[offset] sits on an 8-byte boundary.
// It returns false for offsets outside the region.
func Aligned(region []byte, offset int) bool {
	if offset < 0 || offset >= len(region) {
		return false
	}
	addr := uintptr(unsafe.Pointer(&region[offset])) //nolint:gosec // address arithmetic only
	return addr%Size == 0
}

// Len returns the number of words in the view.
func (v View) Len() int {
	return len(v.w)
}

// Load returns word i.
func (v View) Load(i int) (uint64, error) {
	if i < 0 || i >= len(v.w) {
		return 0, ErrOutOfBounds
	}
	return v.w[i], nil
}

// Store overwrites word i.
func (v View) Store(i int, x uint64) error {
	if i < 0 || i >= len(v.w) {
		return ErrOutOfBounds
	}
	v.w[i] = x
	return nil
}

// Word returns word i without a bounds error. Callers establish the bound
// first with Check or Len; an index outside the view panics.
func (v View) Word(i int) uint64 {
	return v.w[i]
}

// ClearBit clears bit b of word i. Same contract as Word.
func (v View) ClearBit(i int, b uint) {
	v.w[i] &^= 1 << (b & 63)
}

// Check returns ErrOutOfBounds unless every index is inside the view.
func (v View) Check(idx ...int) error {
	for _, i := range idx {
		if i < 0 || i >= len(v.w) {
			return ErrOutOfBounds
		}
	}
	return nil
}

// Clear zeroes every word.
func (v View) Clear() {
	clear(v.w)
}
