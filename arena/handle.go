package arena

import (
	"sync"

	"github.com/hupe1980/slotmap"
)

// Handle names one registered region. It is safe for concurrent use; the
// Map it lends out is not.
type Handle struct {
	arena    *Arena
	region   Region
	gen      uint64
	borrowed bool // guarded by arena.mu
}

// Offset returns the byte offset of the region.
func (h *Handle) Offset() int { return h.region.Offset }

// Geometry returns the region geometry.
func (h *Handle) Geometry() slotmap.Geometry { return h.region.Geometry }

// Region returns the (offset, geometry) pair.
func (h *Handle) Region() Region { return h.region }

// Generation returns the arena generation the handle was taken in.
func (h *Handle) Generation() uint64 { return h.gen }

// Borrow returns a Map with exclusive access to the region. Call release
// exactly once when done; further calls are no-ops.
func (h *Handle) Borrow() (*slotmap.Map, func(), error) {
	a := h.arena

	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.closed:
		return nil, nil, ErrClosed
	case h.gen != a.generation.Load():
		return nil, nil, ErrStaleHandle
	case h.borrowed:
		return nil, nil, ErrBorrowConflict
	}

	opts := append([]slotmap.Option{slotmap.WithLogger(a.logger)}, a.opts.mapOpts...)
	m, err := slotmap.New(a.data, h.region.Offset, h.region.Geometry, opts...)
	if err != nil {
		return nil, nil, err
	}

	h.borrowed = true
	a.borrowed++

	var once sync.Once
	release := func() {
		once.Do(func() {
			a.mu.Lock()
			h.borrowed = false
			a.borrowed--
			a.mu.Unlock()
		})
	}
	return m, release, nil
}

// With borrows the handle for the duration of fn.
func (h *Handle) With(fn func(m *slotmap.Map) error) error {
	m, release, err := h.Borrow()
	if err != nil {
		return err
	}
	defer release()
	return fn(m)
}

// Alloc borrows the handle and allocates one slot.
func (h *Handle) Alloc() (int, error) {
	var index int
	err := h.With(func(m *slotmap.Map) error {
		var err error
		index, err = m.Alloc()
		return err
	})
	return index, err
}

// Dealloc borrows the handle and frees index.
func (h *Handle) Dealloc(index int) error {
	return h.With(func(m *slotmap.Map) error {
		return m.Dealloc(index)
	})
}

// Stats borrows the handle and reports its occupancy.
func (h *Handle) Stats() (slotmap.Stats, error) {
	var st slotmap.Stats
	err := h.With(func(m *slotmap.Map) error {
		st = m.Stats()
		return nil
	})
	return st, err
}
