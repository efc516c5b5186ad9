package tier

import "errors"

var (
	// ErrFull is returned by Alloc when every slot is taken.
	ErrFull = errors.New("tier: no free slot")
	// ErrInvalidIndex is returned for an index outside the geometry's range.
	ErrInvalidIndex = errors.New("tier: index out of range")
	// ErrInvalidTopBits is returned for a top width outside 1..64.
	ErrInvalidTopBits = errors.New("tier: invalid top width")
	// ErrCorrupt is returned by Verify when a parent bit disagrees with its child word.
	ErrCorrupt = errors.New("tier: bitmap invariant violated")
)
