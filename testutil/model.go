package testutil

import (
	"github.com/bits-and-blooms/bitset"
)

// Model is a reference allocator: a flat bitset that always hands out the
// lowest clear index.
type Model struct {
	bits     *bitset.BitSet
	capacity uint
}

// NewModel returns an empty model with the given capacity.
func NewModel(capacity int) *Model {
	return &Model{
		bits:     bitset.New(uint(capacity)),
		capacity: uint(capacity),
	}
}

// Alloc claims the lowest free index. It returns false when the model is full.
func (m *Model) Alloc() (int, bool) {
	i, ok := m.bits.NextClear(0)
	if !ok || i >= m.capacity {
		return 0, false
	}
	m.bits.Set(i)
	return int(i), true
}

// Free releases index i. Freeing a free index is a no-op.
func (m *Model) Free(i int) {
	m.bits.Clear(uint(i))
}

// Allocated reports whether index i is taken.
func (m *Model) Allocated(i int) bool {
	return m.bits.Test(uint(i))
}

// Len returns the number of allocated indices.
func (m *Model) Len() int {
	return int(m.bits.Count())
}

// Indices returns the allocated indices in ascending order.
func (m *Model) Indices() []int {
	out := make([]int, 0, m.bits.Count())
	for i, ok := m.bits.NextSet(0); ok; i, ok = m.bits.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// Pick returns a random allocated index, or false when nothing is allocated.
func (m *Model) Pick(rng *RNG) (int, bool) {
	n := m.Len()
	if n == 0 {
		return 0, false
	}
	target := rng.Intn(n)
	for i, ok := m.bits.NextSet(0); ok; i, ok = m.bits.NextSet(i + 1) {
		if target == 0 {
			return int(i), true
		}
		target--
	}
	return 0, false
}
