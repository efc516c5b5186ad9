package slotmap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/slotmap/internal/tier"
	"github.com/hupe1980/slotmap/internal/words"
)

var (
	// ErrInvalidOffset is returned when the offset does not address a byte of the region.
	ErrInvalidOffset = errors.New("slotmap: invalid offset")
	// ErrAlignment is returned when region[offset] is not 8-byte aligned.
	ErrAlignment = errors.New("slotmap: region not 8-byte aligned")
	// ErrInsufficientMemory is returned when the region is too short for the geometry.
	ErrInsufficientMemory = errors.New("slotmap: insufficient memory")
	// ErrNoAvailableSlots is returned by Alloc when every slot is taken.
	// It is an expected outcome, not a failure of the map.
	ErrNoAvailableSlots = errors.New("slotmap: no available slots")
	// ErrInvalidIndex is returned for an index outside 0..Capacity()-1.
	ErrInvalidIndex = errors.New("slotmap: invalid index")
	// ErrIndexOutOfBounds is returned when a computed word lies outside the region.
	ErrIndexOutOfBounds = errors.New("slotmap: index out of bounds")
	// ErrInvalidGeometry is returned for the zero Geometry or an unknown name.
	ErrInvalidGeometry = errors.New("slotmap: invalid geometry")
	// ErrCorrupt is returned by Verify when a parent bit disagrees with its child word.
	ErrCorrupt = errors.New("slotmap: corrupt bitmap")
)

// RegionError describes a region rejected at construction.
//
// The sentinel (ErrInvalidOffset, ErrAlignment, ErrInsufficientMemory, ...)
// can be matched with errors.Is.
type RegionError struct {
	Op     string
	Offset int
	Len    int
	Need   int
	Err    error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("slotmap: %s at offset %d (region %d bytes, need %d): %v", e.Op, e.Offset, e.Len, e.Need, e.Err)
}

func (e *RegionError) Unwrap() error { return e.Err }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, tier.ErrFull):
		return fmt.Errorf("%w: %w", ErrNoAvailableSlots, err)
	case errors.Is(err, tier.ErrInvalidIndex):
		return fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	case errors.Is(err, tier.ErrInvalidTopBits):
		return fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	case errors.Is(err, tier.ErrCorrupt):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case errors.Is(err, words.ErrOutOfBounds):
		return fmt.Errorf("%w: %w", ErrIndexOutOfBounds, err)
	case errors.Is(err, words.ErrInvalidOffset):
		return fmt.Errorf("%w: %w", ErrInvalidOffset, err)
	case errors.Is(err, words.ErrMisaligned):
		return fmt.Errorf("%w: %w", ErrAlignment, err)
	case errors.Is(err, words.ErrShortRegion):
		return fmt.Errorf("%w: %w", ErrInsufficientMemory, err)
	}

	return err
}
