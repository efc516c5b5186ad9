package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotmap/internal/mem"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(4711)
	b := NewRNG(4711)
	for range 100 {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}

	first := a.Intn(1000)
	a.Reset()
	for range 100 {
		a.Uint64()
	}
	assert.Equal(t, first, a.Intn(1000))
	assert.Equal(t, int64(4711), a.Seed())
}

func TestRNG_Perm(t *testing.T) {
	rng := NewRNG(1)
	p := rng.Perm(50)
	seen := make(map[int]bool)
	for _, v := range p {
		seen[v] = true
	}
	assert.Len(t, seen, 50)

	s := []int{1, 2, 3, 4, 5}
	rng.Shuffle(s)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, s)
}

func TestModel(t *testing.T) {
	m := NewModel(4)

	for want := range 4 {
		got, ok := m.Alloc()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := m.Alloc()
	assert.False(t, ok)

	m.Free(2)
	m.Free(2)
	assert.Equal(t, 3, m.Len())
	assert.False(t, m.Allocated(2))
	assert.Equal(t, []int{0, 1, 3}, m.Indices())

	got, ok := m.Alloc()
	require.True(t, ok)
	assert.Equal(t, 2, got)

	idx, ok := m.Pick(NewRNG(7))
	require.True(t, ok)
	assert.True(t, m.Allocated(idx))

	_, ok = NewModel(8).Pick(NewRNG(7))
	assert.False(t, ok)
}

func TestRegions(t *testing.T) {
	r := AlignedRegion(64)
	assert.Len(t, r, 64)
	assert.True(t, mem.IsAligned(r, 8))

	bad := MisalignedRegion(64)
	assert.Len(t, bad, 64)
	assert.False(t, mem.IsAligned(bad, 8))
}

func TestWords(t *testing.T) {
	r := AlignedRegion(16)
	w := Words(r)
	require.Len(t, w, 2)
	w[1] = ^uint64(0)
	assert.Equal(t, byte(0xFF), r[8])
	assert.Nil(t, Words(MisalignedRegion(16)))
}
