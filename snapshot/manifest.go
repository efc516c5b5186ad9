package snapshot

import (
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/slotmap"
	"github.com/hupe1980/slotmap/arena"
)

// RegionStat describes one slot map captured in a snapshot.
type RegionStat struct {
	Offset    int              `json:"offset"`
	Geometry  slotmap.Geometry `json:"geometry"`
	Allocated uint64           `json:"allocated"`
	// Bitmap is the base64 portable roaring encoding of the allocated set.
	Bitmap string `json:"bitmap,omitempty"`
}

// Region returns the arena region the stat describes.
func (r RegionStat) Region() arena.Region {
	return arena.Region{Offset: r.Offset, Geometry: r.Geometry}
}

// Manifest describes one snapshot.
type Manifest struct {
	ID          string       `json:"id"`
	Namespace   string       `json:"namespace"`
	CreatedAt   time.Time    `json:"created_at"`
	Generation  uint64       `json:"generation"`
	Size        int64        `json:"size"`
	Compression Compression  `json:"compression"`
	Codec       string       `json:"codec"`
	Blob        string       `json:"blob"`
	BlobSize    int64        `json:"blob_size"`
	Chunks      int          `json:"chunks"`
	Regions     []RegionStat `json:"regions"`
}

// ArenaRegions returns the arena regions in the manifest.
func (m *Manifest) ArenaRegions() []arena.Region {
	out := make([]arena.Region, len(m.Regions))
	for i, r := range m.Regions {
		out[i] = r.Region()
	}
	return out
}

// Allocated returns the total number of allocated slots across regions.
func (m *Manifest) Allocated() uint64 {
	var n uint64
	for _, r := range m.Regions {
		n += r.Allocated
	}
	return n
}

// regionStats reads the allocated set of every region from data.
func regionStats(data []byte, regions []arena.Region) ([]RegionStat, error) {
	out := make([]RegionStat, 0, len(regions))
	for _, r := range regions {
		bm, err := allocatedSet(data, r)
		if err != nil {
			return nil, err
		}
		enc, err := bm.ToBase64()
		if err != nil {
			return nil, err
		}
		out = append(out, RegionStat{
			Offset:    r.Offset,
			Geometry:  r.Geometry,
			Allocated: bm.GetCardinality(),
			Bitmap:    enc,
		})
	}
	return out, nil
}

func allocatedSet(data []byte, r arena.Region) (*roaring.Bitmap, error) {
	m, err := slotmap.New(data, r.Offset, r.Geometry)
	if err != nil {
		return nil, fmt.Errorf("region at %d: %w", r.Offset, err)
	}
	return m.Allocated()
}

// verifyRegions checks data against the recorded allocated sets.
func verifyRegions(data []byte, stats []RegionStat) error {
	for _, st := range stats {
		bm, err := allocatedSet(data, st.Region())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if bm.GetCardinality() != st.Allocated {
			return fmt.Errorf("%w: region at %d holds %d slots, manifest says %d",
				ErrCorrupt, st.Offset, bm.GetCardinality(), st.Allocated)
		}
		if st.Bitmap == "" {
			continue
		}
		want := roaring.New()
		if _, err := want.FromBase64(st.Bitmap); err != nil {
			return fmt.Errorf("%w: region at %d bitmap: %w", ErrCorrupt, st.Offset, err)
		}
		if !want.Equals(bm) {
			return fmt.Errorf("%w: region at %d allocated set differs from manifest", ErrCorrupt, st.Offset)
		}
	}
	return nil
}
