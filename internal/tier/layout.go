package tier

import "github.com/hupe1980/slotmap/internal/bitscan"

const (
	// FanOut is the number of children per word.
	FanOut = bitscan.WordBits

	midShift  = 6
	topShift3 = 12
	lowMask   = FanOut - 1

	full = ^uint64(0)
)

// Words returns the number of words a layout needs.
func Words(tiers, topBits int) int {
	if tiers == 2 {
		return 1 + topBits
	}
	return 1 + topBits + topBits*FanOut
}

// Capacity returns the number of slots a layout addresses.
func Capacity(tiers, topBits int) int {
	if tiers == 2 {
		return topBits << midShift
	}
	return topBits << topShift3
}

// ValidTopBits reports whether n is a usable top width.
func ValidTopBits(n int) bool {
	return n >= 1 && n <= FanOut
}

func leafBase(topBits int) int {
	return 1 + topBits
}
