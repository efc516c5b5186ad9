package tier

import (
	"github.com/hupe1980/slotmap/internal/bitscan"
	"github.com/hupe1980/slotmap/internal/words"
)

// AllocTwo claims the lowest free slot of a two-tier layout.
func AllocTwo(v words.View, topBits int) (int, error) {
	if !ValidTopBits(topBits) {
		return 0, ErrInvalidTopBits
	}

	top, err := v.Load(0)
	if err != nil {
		return 0, err
	}
	first, ok := bitscan.FirstZero(top, topBits)
	if !ok {
		return 0, ErrFull
	}

	midIdx := 1 + first
	mid, err := v.Load(midIdx)
	if err != nil {
		return 0, err
	}
	second, ok := bitscan.FirstZero(mid, FanOut)
	if !ok {
		return 0, ErrFull
	}

	mid |= 1 << uint(second)
	if err := v.Store(midIdx, mid); err != nil {
		return 0, err
	}
	if mid == full {
		if err := v.Store(0, top|1<<uint(first)); err != nil {
			return 0, err
		}
	}

	return first<<midShift | second, nil
}

// DeallocTwo releases index in a two-tier layout. Releasing a free slot is a no-op.
func DeallocTwo(v words.View, topBits, index int) error {
	if !ValidTopBits(topBits) {
		return ErrInvalidTopBits
	}
	if index < 0 || index >= Capacity(2, topBits) {
		return ErrInvalidIndex
	}

	first := index >> midShift
	midIdx := 1 + first
	if err := v.Check(0, midIdx); err != nil {
		return err
	}

	v.ClearBit(midIdx, uint(index&lowMask))
	v.ClearBit(0, uint(first))
	return nil
}
