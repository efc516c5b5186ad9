package tier

import (
	"github.com/hupe1980/slotmap/internal/bitscan"
	"github.com/hupe1980/slotmap/internal/words"
)

// AllocThree claims the lowest free slot of a three-tier layout.
func AllocThree(v words.View, topBits int) (int, error) {
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

	leafIdx := leafBase(topBits) + first*FanOut + second
	leaf, err := v.Load(leafIdx)
	if err != nil {
		return 0, err
	}
	third, ok := bitscan.FirstZero(leaf, FanOut)
	if !ok {
		return 0, ErrFull
	}

	leaf |= 1 << uint(third)
	if err := v.Store(leafIdx, leaf); err != nil {
		return 0, err
	}
	if leaf == full {
		mid |= 1 << uint(second)
		if err := v.Store(midIdx, mid); err != nil {
			return 0, err
		}
		if mid == full {
			if err := v.Store(0, top|1<<uint(first)); err != nil {
				return 0, err
			}
		}
	}

	return first<<topShift3 | second<<midShift | third, nil
}

// DeallocThree releases index in a three-tier layout. Releasing a free slot is a no-op.
//
// Ancestor bits are cleared unconditionally: a freed leaf always leaves its
// parents non-full.
func DeallocThree(v words.View, topBits, index int) error {
	if !ValidTopBits(topBits) {
		return ErrInvalidTopBits
	}
	if index < 0 || index >= Capacity(3, topBits) {
		return ErrInvalidIndex
	}

	first := index >> topShift3
	second := (index >> midShift) & lowMask
	midIdx := 1 + first
	leafIdx := leafBase(topBits) + index>>midShift
	if err := v.Check(0, midIdx, leafIdx); err != nil {
		return err
	}

	v.ClearBit(leafIdx, uint(index&lowMask))
	v.ClearBit(midIdx, uint(second))
	v.ClearBit(0, uint(first))
	return nil
}
