package tier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotmap/internal/words"
	"github.com/hupe1980/slotmap/testutil"
)

type layout struct {
	tiers   int
	topBits int
}

func (l layout) String() string {
	return fmt.Sprintf("tiers=%d/top=%d", l.tiers, l.topBits)
}

func (l layout) alloc(v words.View) (int, error) {
	if l.tiers == 2 {
		return AllocTwo(v, l.topBits)
	}
	return AllocThree(v, l.topBits)
}

func (l layout) dealloc(v words.View, index int) error {
	if l.tiers == 2 {
		return DeallocTwo(v, l.topBits, index)
	}
	return DeallocThree(v, l.topBits, index)
}

func (l layout) view() words.View {
	return words.Wrap(make([]uint64, Words(l.tiers, l.topBits)))
}

var smallLayouts = []layout{
	{tiers: 2, topBits: 64},
	{tiers: 2, topBits: 3},
	{tiers: 3, topBits: 4},
	{tiers: 3, topBits: 1},
	{tiers: 3, topBits: 7},
	{tiers: 3, topBits: 2},
}

func TestLayoutSizes(t *testing.T) {
	assert.Equal(t, 65, Words(2, 64))
	assert.Equal(t, 4096, Capacity(2, 64))
	assert.Equal(t, 261, Words(3, 4))
	assert.Equal(t, 16384, Capacity(3, 4))
	assert.Equal(t, 4161, Words(3, 64))
	assert.Equal(t, 262144, Capacity(3, 64))

	assert.False(t, ValidTopBits(0))
	assert.True(t, ValidTopBits(1))
	assert.True(t, ValidTopBits(64))
	assert.False(t, ValidTopBits(65))
}

func TestAllocSequentialToCapacity(t *testing.T) {
	for _, l := range smallLayouts {
		t.Run(l.String(), func(t *testing.T) {
			v := l.view()
			capacity := Capacity(l.tiers, l.topBits)

			for want := range capacity {
				got, err := l.alloc(v)
				require.NoError(t, err)
				require.Equal(t, want, got)
				require.NoError(t, Verify(v, l.tiers, l.topBits), "after alloc %d", got)
			}
			require.NoError(t, Verify(v, l.tiers, l.topBits))

			top, _ := v.Load(0)
			assert.Equal(t, uint64(0), top&^(^uint64(0)>>(64-uint(l.topBits))), "no stray top bits")

			_, err := l.alloc(v)
			assert.ErrorIs(t, err, ErrFull)

			n, err := Count(v, l.tiers, l.topBits)
			require.NoError(t, err)
			assert.Equal(t, capacity, n)
		})
	}
}

func TestFullIsStable(t *testing.T) {
	l := layout{tiers: 2, topBits: 2}
	v := l.view()
	for range 128 {
		_, err := l.alloc(v)
		require.NoError(t, err)
	}
	before := make([]uint64, v.Len())
	for i := range before {
		before[i], _ = v.Load(i)
	}
	for range 3 {
		_, err := l.alloc(v)
		assert.ErrorIs(t, err, ErrFull)
	}
	for i := range before {
		w, _ := v.Load(i)
		assert.Equal(t, before[i], w)
	}
}

func TestLowestFreeReuse(t *testing.T) {
	for _, l := range smallLayouts {
		t.Run(l.String(), func(t *testing.T) {
			v := l.view()
			for range 150 {
				_, err := l.alloc(v)
				require.NoError(t, err)
			}

			require.NoError(t, l.dealloc(v, 130))
			require.NoError(t, l.dealloc(v, 5))
			require.NoError(t, Verify(v, l.tiers, l.topBits))

			got, err := l.alloc(v)
			require.NoError(t, err)
			assert.Equal(t, 5, got)
			got, err = l.alloc(v)
			require.NoError(t, err)
			assert.Equal(t, 130, got)
			got, err = l.alloc(v)
			require.NoError(t, err)
			assert.Equal(t, 150, got)
		})
	}
}

func TestAllocFreeAllReturnsToZero(t *testing.T) {
	rng := testutil.NewRNG(99)
	for _, l := range smallLayouts {
		t.Run(l.String(), func(t *testing.T) {
			v := l.view()
			n := min(Capacity(l.tiers, l.topBits), 700)
			for range n {
				_, err := l.alloc(v)
				require.NoError(t, err)
			}
			for _, idx := range rng.Perm(n) {
				require.NoError(t, l.dealloc(v, idx))
				require.NoError(t, Verify(v, l.tiers, l.topBits))
			}
			for i := range v.Len() {
				w, _ := v.Load(i)
				require.Zero(t, w, "word %d", i)
			}
		})
	}
}

func TestDeallocFreeSlotIsNoop(t *testing.T) {
	for _, l := range smallLayouts {
		t.Run(l.String(), func(t *testing.T) {
			v := l.view()
			require.NoError(t, l.dealloc(v, 0))
			require.NoError(t, l.dealloc(v, 0))

			idx, err := l.alloc(v)
			require.NoError(t, err)
			require.NoError(t, l.dealloc(v, idx))
			require.NoError(t, l.dealloc(v, idx))
			require.NoError(t, Verify(v, l.tiers, l.topBits))

			idx, err = l.alloc(v)
			require.NoError(t, err)
			assert.Equal(t, 0, idx)
		})
	}
}

func TestDeallocInvalidIndex(t *testing.T) {
	for _, l := range smallLayouts {
		t.Run(l.String(), func(t *testing.T) {
			v := l.view()
			assert.ErrorIs(t, l.dealloc(v, -1), ErrInvalidIndex)
			assert.ErrorIs(t, l.dealloc(v, Capacity(l.tiers, l.topBits)), ErrInvalidIndex)
		})
	}
}

func TestInvalidTopBits(t *testing.T) {
	v := words.Wrap(make([]uint64, 8))
	_, err := AllocTwo(v, 0)
	assert.ErrorIs(t, err, ErrInvalidTopBits)
	_, err = AllocThree(v, 65)
	assert.ErrorIs(t, err, ErrInvalidTopBits)
	assert.ErrorIs(t, DeallocTwo(v, 0, 0), ErrInvalidTopBits)
	assert.ErrorIs(t, DeallocThree(v, 65, 0), ErrInvalidTopBits)
	assert.ErrorIs(t, Verify(v, 4, 1), ErrInvalidTopBits)
}

func TestShortViewDoesNotMutate(t *testing.T) {
	// Three-tier top width 4 needs 261 words; give it only the top and mid words.
	v := words.Wrap(make([]uint64, 5))
	_, err := AllocThree(v, 4)
	assert.ErrorIs(t, err, words.ErrOutOfBounds)

	require.NoError(t, v.Store(0, 1))
	require.NoError(t, v.Store(1, ^uint64(0)))
	err = DeallocThree(v, 4, 0)
	assert.ErrorIs(t, err, words.ErrOutOfBounds)

	top, _ := v.Load(0)
	mid, _ := v.Load(1)
	assert.Equal(t, uint64(1), top)
	assert.Equal(t, ^uint64(0), mid)

	two := words.Wrap(make([]uint64, 1))
	assert.ErrorIs(t, DeallocTwo(two, 64, 64), words.ErrOutOfBounds)
	_, err = Count(two, 2, 64)
	assert.ErrorIs(t, err, words.ErrOutOfBounds)
}

func TestThreeTierPropagation(t *testing.T) {
	l := layout{tiers: 3, topBits: 64}
	v := l.view()

	for i := range 64 {
		idx, err := l.alloc(v)
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}
	mid, _ := v.Load(1)
	assert.Equal(t, uint64(1), mid, "mid bit 0 set once leaf word 0 is full")
	top, _ := v.Load(0)
	assert.Zero(t, top)

	for i := 64; i < 4096; i++ {
		idx, err := l.alloc(v)
		require.NoError(t, err)
		require.Equal(t, i, idx)
		if i == 4094 {
			top, _ = v.Load(0)
			require.Zero(t, top, "top bit 0 clear until group 0 is exhausted")
		}
	}
	top, _ = v.Load(0)
	assert.Equal(t, uint64(1), top)
	require.NoError(t, Verify(v, 3, 64))

	idx, err := l.alloc(v)
	require.NoError(t, err)
	assert.Equal(t, 4096, idx)

	require.NoError(t, l.dealloc(v, 17))
	top, _ = v.Load(0)
	mid, _ = v.Load(1)
	assert.Zero(t, top&1)
	assert.Zero(t, mid&1)
	require.NoError(t, Verify(v, 3, 64))

	idx, err = l.alloc(v)
	require.NoError(t, err)
	assert.Equal(t, 17, idx)
}

func TestIndexEncoding(t *testing.T) {
	l := layout{tiers: 3, topBits: 64}
	v := l.view()
	// Mark group 0..2 as exhausted and leaf (3,5) as full to force index (3<<12)|(6<<6).
	require.NoError(t, v.Store(0, 0b111))
	for i := range 3 {
		require.NoError(t, v.Store(1+i, ^uint64(0)))
		for j := range FanOut {
			require.NoError(t, v.Store(leafBase(64)+i*FanOut+j, ^uint64(0)))
		}
	}
	require.NoError(t, v.Store(1+3, 0b111111))
	for j := range 6 {
		require.NoError(t, v.Store(leafBase(64)+3*FanOut+j, ^uint64(0)))
	}
	require.NoError(t, Verify(v, 3, 64))

	idx, err := l.alloc(v)
	require.NoError(t, err)
	assert.Equal(t, 3<<12|6<<6, idx)

	set, err := IsSet(v, 3, 64, idx)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestRandomWorkloadMatchesModel(t *testing.T) {
	for _, l := range smallLayouts {
		t.Run(l.String(), func(t *testing.T) {
			rng := testutil.NewRNG(int64(l.tiers*100 + l.topBits))
			v := l.view()
			model := testutil.NewModel(Capacity(l.tiers, l.topBits))

			for step := range 20000 {
				if rng.Intn(3) == 0 {
					idx, ok := model.Pick(rng)
					if !ok {
						continue
					}
					model.Free(idx)
					require.NoError(t, l.dealloc(v, idx))
					require.NoError(t, Verify(v, l.tiers, l.topBits), "step %d: dealloc %d", step, idx)
					continue
				}

				want, ok := model.Alloc()
				got, err := l.alloc(v)
				if !ok {
					require.ErrorIs(t, err, ErrFull)
					continue
				}
				require.NoError(t, err)
				require.Equal(t, want, got, "step %d", step)
				require.NoError(t, Verify(v, l.tiers, l.topBits), "step %d: alloc %d", step, got)
			}

			require.NoError(t, Verify(v, l.tiers, l.topBits))
			n, err := Count(v, l.tiers, l.topBits)
			require.NoError(t, err)
			assert.Equal(t, model.Len(), n)

			var got []int
			require.NoError(t, Each(v, l.tiers, l.topBits, func(i int) bool {
				got = append(got, i)
				return true
			}))
			if model.Len() == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, model.Indices(), got)
			}
		})
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	v := words.Wrap(make([]uint64, Words(3, 4)))
	require.NoError(t, Verify(v, 3, 4))

	require.NoError(t, v.Store(0, 1<<10))
	assert.ErrorIs(t, Verify(v, 3, 4), ErrCorrupt)

	require.NoError(t, v.Store(0, 1))
	assert.ErrorIs(t, Verify(v, 3, 4), ErrCorrupt, "top bit without full mid word")

	require.NoError(t, v.Store(0, 0))
	require.NoError(t, v.Store(leafBase(4), ^uint64(0)))
	assert.ErrorIs(t, Verify(v, 3, 4), ErrCorrupt, "full leaf without mid bit")

	v2 := words.Wrap(make([]uint64, Words(2, 64)))
	require.NoError(t, v2.Store(3, ^uint64(0)))
	assert.ErrorIs(t, Verify(v2, 2, 64), ErrCorrupt)
}

func TestEachStopsEarly(t *testing.T) {
	l := layout{tiers: 2, topBits: 64}
	v := l.view()
	for range 10 {
		_, err := l.alloc(v)
		require.NoError(t, err)
	}
	seen := 0
	require.NoError(t, Each(v, 2, 64, func(int) bool {
		seen++
		return seen < 3
	}))
	assert.Equal(t, 3, seen)
}

func BenchmarkAllocThree(b *testing.B) {
	v := words.Wrap(make([]uint64, Words(3, 64)))
	for b.Loop() {
		idx, err := AllocThree(v, 64)
		if err != nil {
			b.Fatal(err)
		}
		_ = DeallocThree(v, 64, idx)
	}
}
