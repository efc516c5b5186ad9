package tier

import (
	"fmt"
	"math/bits"

	"github.com/hupe1980/slotmap/internal/bitscan"
	"github.com/hupe1980/slotmap/internal/words"
)

// checkLayout validates the shape and that the view holds every word, so
// callers may index with View.Word afterwards.
func checkLayout(v words.View, tiers, topBits int) error {
	if !ValidTopBits(topBits) || (tiers != 2 && tiers != 3) {
		return ErrInvalidTopBits
	}
	if v.Len() < Words(tiers, topBits) {
		return words.ErrOutOfBounds
	}
	return nil
}

// slotWords returns the first word index and the count of the lowest tier.
func slotWords(tiers, topBits int) (int, int) {
	if tiers == 2 {
		return 1, topBits
	}
	return leafBase(topBits), topBits * FanOut
}

// IsSet reports whether index is allocated.
func IsSet(v words.View, tiers, topBits, index int) (bool, error) {
	if err := checkLayout(v, tiers, topBits); err != nil {
		return false, err
	}
	if index < 0 || index >= Capacity(tiers, topBits) {
		return false, ErrInvalidIndex
	}
	base, _ := slotWords(tiers, topBits)
	w, err := v.Load(base + index>>midShift)
	if err != nil {
		return false, err
	}
	return w&(1<<uint(index&lowMask)) != 0, nil
}

// Count returns the number of allocated slots.
func Count(v words.View, tiers, topBits int) (int, error) {
	if err := checkLayout(v, tiers, topBits); err != nil {
		return 0, err
	}
	base, n := slotWords(tiers, topBits)
	total := 0
	for i := base; i < base+n; i++ {
		total += bits.OnesCount64(v.Word(i))
	}
	return total, nil
}

// Each calls fn for every allocated index in ascending order until fn returns false.
func Each(v words.View, tiers, topBits int, fn func(index int) bool) error {
	if err := checkLayout(v, tiers, topBits); err != nil {
		return err
	}
	base, n := slotWords(tiers, topBits)
	for i := 0; i < n; i++ {
		w := v.Word(base + i)
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			if !fn(i<<midShift | bit) {
				return nil
			}
			w &= w - 1
		}
	}
	return nil
}

// Verify checks that every parent bit equals "child word is full" and that
// top bits beyond topBits are clear.
func Verify(v words.View, tiers, topBits int) error {
	if err := checkLayout(v, tiers, topBits); err != nil {
		return err
	}

	top := v.Word(0)
	if stray := top &^ bitscan.Mask(topBits); stray != 0 {
		return fmt.Errorf("%w: top word has bits %#x beyond width %d", ErrCorrupt, stray, topBits)
	}

	for i := 0; i < topBits; i++ {
		mid := v.Word(1 + i)
		if got, want := top&(1<<uint(i)) != 0, mid == full; got != want {
			return fmt.Errorf("%w: top bit %d is %t but mid word %d full is %t", ErrCorrupt, i, got, 1+i, want)
		}
		if tiers == 2 {
			continue
		}
		for j := 0; j < FanOut; j++ {
			leafIdx := leafBase(topBits) + i*FanOut + j
			leaf := v.Word(leafIdx)
			if got, want := mid&(1<<uint(j)) != 0, leaf == full; got != want {
				return fmt.Errorf("%w: mid word %d bit %d is %t but leaf word %d full is %t", ErrCorrupt, 1+i, j, got, leafIdx, want)
			}
		}
	}
	return nil
}
