package slotmap

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/slotmap/internal/tier"
)

// Stats summarizes a map's occupancy.
type Stats struct {
	Geometry    Geometry `json:"geometry"`
	Capacity    int      `json:"capacity"`
	Allocated   int      `json:"allocated"`
	Free        int      `json:"free"`
	Utilization float64  `json:"utilization"`
	Bytes       int      `json:"bytes"`
}

// IsAllocated reports whether index is currently taken.
func (m *Map) IsAllocated(index int) (bool, error) {
	set, err := tier.IsSet(m.view, m.geometry.Tiers(), m.geometry.TopBits(), index)
	return set, translateError(err)
}

// Count returns the number of allocated slots.
func (m *Map) Count() (int, error) {
	n, err := tier.Count(m.view, m.geometry.Tiers(), m.geometry.TopBits())
	return n, translateError(err)
}

// Allocated returns the set of allocated indices.
func (m *Map) Allocated() (*roaring.Bitmap, error) {
	bm := roaring.New()
	batch := make([]uint32, 0, 256)
	err := tier.Each(m.view, m.geometry.Tiers(), m.geometry.TopBits(), func(index int) bool {
		batch = append(batch, uint32(index))
		if len(batch) == cap(batch) {
			bm.AddMany(batch)
			batch = batch[:0]
		}
		return true
	})
	if err != nil {
		return nil, translateError(err)
	}
	bm.AddMany(batch)
	return bm, nil
}

// Verify checks that every parent bit agrees with its child word.
// It returns an error wrapping ErrCorrupt on the first violation found.
func (m *Map) Verify() error {
	return translateError(tier.Verify(m.view, m.geometry.Tiers(), m.geometry.TopBits()))
}

// Stats returns the map's occupancy.
func (m *Map) Stats() Stats {
	n, _ := m.Count()
	capacity := m.Capacity()
	s := Stats{
		Geometry:  m.geometry,
		Capacity:  capacity,
		Allocated: n,
		Free:      capacity - n,
		Bytes:     m.Size(),
	}
	if capacity > 0 {
		s.Utilization = float64(n) / float64(capacity)
	}
	return s
}
