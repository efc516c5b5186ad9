package bitscan

import "math/bits"

const (
	// WordBits is the number of bits in a word.
	WordBits = 64

	low16 = 0x0000_0000_0000_ffff
	low32 = 0x0000_0000_ffff_ffff
	mid16 = 0x0000_ffff_0000_0000
)

// FirstZero returns the position of the lowest 0-bit among the low n bits of
// word. The second result is false when all of those bits are set.
//
// n <= 0 never finds anything; n > 64 is treated as 64.
func FirstZero(word uint64, n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	if n > WordBits {
		n = WordBits
	}

	if n <= 32 {
		return scan(word, 0, n)
	}

	switch {
	case word&low32 == low32:
		if n > 48 && word&mid16 == mid16 {
			return scan(word, 48, n)
		}
		return scan(word, 32, min(n, 48))
	case word&low16 == low16:
		return scan(word, 16, 32)
	default:
		return scan(word, 0, 16)
	}
}

// scan returns the lowest clear bit in [lo, hi).
func scan(word uint64, lo, hi int) (int, bool) {
	if lo >= hi {
		return 0, false
	}
	free := ^word >> uint(lo)
	if width := hi - lo; width < WordBits {
		free &= (uint64(1) << uint(width)) - 1
	}
	if free == 0 {
		return 0, false
	}
	return lo + bits.TrailingZeros64(free), true
}

// Full reports whether the low n bits of word are all set.
func Full(word uint64, n int) bool {
	return word&Mask(n) == Mask(n)
}

// Mask returns a word with the low n bits set.
func Mask(n int) uint64 {
	switch {
	case n <= 0:
		return 0
	case n >= WordBits:
		return ^uint64(0)
	default:
		return (uint64(1) << uint(n)) - 1
	}
}
