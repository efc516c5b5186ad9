package slotmap

import (
	"context"
	"time"

	"github.com/hupe1980/slotmap/internal/tier"
	"github.com/hupe1980/slotmap/internal/words"
)

// Map is an allocator bound to one region at one offset.
//
// A Map holds no allocation state of its own: every bit lives in the region.
// Dropping a Map and calling New again at the same offset loses nothing.
//
// Map is not safe for concurrent use. Callers sharing a region must serialize
// access to the words a Map covers (see package arena).
type Map struct {
	view     words.View
	geometry Geometry
	offset   int

	logger  *Logger
	metrics MetricsCollector
}

// New returns a Map over region[offset:] with geometry g.
//
// The region must already hold a valid bitmap for g; a zeroed region is an
// empty map. See Format.
//
// Errors, checked in order: ErrInvalidGeometry, ErrInvalidOffset,
// ErrAlignment, ErrInsufficientMemory. Region failures are *RegionError.
func New(region []byte, offset int, g Geometry, optFns ...Option) (*Map, error) {
	opts := applyOptions(optFns)
	ctx := context.Background()

	view, err := open(region, offset, g)
	opts.logger.LogOpen(ctx, g, offset, err)
	if err != nil {
		return nil, err
	}

	return &Map{
		view:     view,
		geometry: g,
		offset:   offset,
		logger:   opts.logger.WithGeometry(g).WithOffset(offset),
		metrics:  opts.metricsCollector,
	}, nil
}

func open(region []byte, offset int, g Geometry) (words.View, error) {
	if !g.Valid() {
		return words.View{}, ErrInvalidGeometry
	}
	view, err := words.New(region, offset, g.RequiredWords())
	if err != nil {
		return words.View{}, &RegionError{
			Op:     "open " + g.String(),
			Offset: offset,
			Len:    len(region),
			Need:   g.RequiredBytes(),
			Err:    translateError(err),
		}
	}
	return view, nil
}

// Alloc claims the lowest free slot and returns its index.
// It returns ErrNoAvailableSlots when the map is full; nothing is modified then.
func (m *Map) Alloc() (int, error) {
	start := time.Now()

	var (
		index int
		err   error
	)
	switch m.geometry.tiers {
	case 2:
		index, err = tier.AllocTwo(m.view, m.geometry.TopBits())
	case 3:
		index, err = tier.AllocThree(m.view, m.geometry.TopBits())
	default:
		err = ErrInvalidGeometry
	}
	err = translateError(err)

	m.metrics.RecordAlloc(time.Since(start), err)
	m.logger.LogAlloc(context.Background(), index, err)
	if err != nil {
		return 0, err
	}
	return index, nil
}

// Dealloc releases index.
//
// Releasing a slot that is already free succeeds and changes nothing.
// Returns ErrInvalidIndex if index is outside 0..Capacity()-1.
func (m *Map) Dealloc(index int) error {
	start := time.Now()

	var err error
	switch m.geometry.tiers {
	case 2:
		err = tier.DeallocTwo(m.view, m.geometry.TopBits(), index)
	case 3:
		err = tier.DeallocThree(m.view, m.geometry.TopBits(), index)
	default:
		err = ErrInvalidGeometry
	}
	err = translateError(err)

	m.metrics.RecordDealloc(time.Since(start), err)
	m.logger.LogDealloc(context.Background(), index, err)
	return err
}

// Capacity returns the number of slots.
func (m *Map) Capacity() int { return m.geometry.Capacity() }

// Geometry returns the map's geometry.
func (m *Map) Geometry() Geometry { return m.geometry }

// Offset returns the byte offset of the map within its region.
func (m *Map) Offset() int { return m.offset }

// Size returns the number of bytes the map occupies.
func (m *Map) Size() int { return m.geometry.RequiredBytes() }
