package arena

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotmap"
	"github.com/hupe1980/slotmap/resource"
)

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(0)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewAnon(-1)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = OpenFile(filepath.Join(t.TempDir(), "a"), -1)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestArena_Backends(t *testing.T) {
	open := map[string]func(t *testing.T) (*Arena, error){
		"heap": func(t *testing.T) (*Arena, error) { return New(8192) },
		"anon": func(t *testing.T) (*Arena, error) { return NewAnon(8192) },
		"file": func(t *testing.T) (*Arena, error) {
			return OpenFile(filepath.Join(t.TempDir(), "slots.arena"), 8192)
		},
	}

	for name, fn := range open {
		t.Run(name, func(t *testing.T) {
			a, err := fn(t)
			require.NoError(t, err)
			defer a.Close()

			assert.Equal(t, 8192, a.Size())
			assert.Len(t, a.Bytes(), 8192)
			assert.Equal(t, uint64(1), a.Generation())

			h, err := a.Carve(slotmap.Standard)
			require.NoError(t, err)

			for want := range 10 {
				got, err := h.Alloc()
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			require.NoError(t, a.Sync())
		})
	}
}

func TestArena_Carve(t *testing.T) {
	a, err := New(16384)
	require.NoError(t, err)
	defer a.Close()

	h1, err := a.Carve(slotmap.Small)
	require.NoError(t, err)
	assert.Equal(t, 0, h1.Offset())

	h2, err := a.Carve(slotmap.Standard)
	require.NoError(t, err)
	assert.Equal(t, slotmap.Small.RequiredBytes(), h2.Offset())

	h3, err := a.Carve(slotmap.Small)
	require.NoError(t, err)
	assert.Equal(t, h2.Region().End(), h3.Offset())
	assert.Zero(t, h3.Offset()%8)

	assert.Equal(t, []Region{h1.Region(), h2.Region(), h3.Region()}, a.Regions())
	assert.Equal(t, []*Handle{h1, h2, h3}, a.Handles())

	// Max needs 33288 bytes.
	_, err = a.Carve(slotmap.Max)
	require.ErrorIs(t, err, slotmap.ErrInsufficientMemory)
}

func TestArena_HandleRegistration(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Handle(64, slotmap.Small)
	require.NoError(t, err)

	again, err := a.Handle(64, slotmap.Small)
	require.NoError(t, err)
	assert.Same(t, h, again)

	_, err = a.Handle(64, slotmap.Standard)
	require.ErrorIs(t, err, ErrOverlap)

	_, err = a.Handle(128, slotmap.Small)
	require.ErrorIs(t, err, ErrOverlap)

	_, err = a.Handle(3, slotmap.Small)
	require.ErrorIs(t, err, slotmap.ErrAlignment)

	_, err = a.Handle(-8, slotmap.Small)
	require.ErrorIs(t, err, slotmap.ErrInvalidOffset)

	_, err = a.Handle(0, slotmap.Geometry{})
	require.ErrorIs(t, err, slotmap.ErrInvalidGeometry)

	// Adjacent is fine.
	_, err = a.Handle(64+slotmap.Small.RequiredBytes(), slotmap.Small)
	require.NoError(t, err)
}

func TestHandle_BorrowConflict(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Carve(slotmap.Small)
	require.NoError(t, err)

	m, release, err := h.Borrow()
	require.NoError(t, err)

	_, _, err = h.Borrow()
	require.ErrorIs(t, err, ErrBorrowConflict)
	require.ErrorIs(t, a.Reset(), ErrBorrowConflict)
	_, err = a.Capture()
	require.ErrorIs(t, err, ErrBorrowConflict)
	require.ErrorIs(t, a.Close(), ErrBorrowConflict)

	idx, err := m.Alloc()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	release()
	release()

	idx, err = h.Alloc()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestHandle_DisjointConcurrentBorrows(t *testing.T) {
	a, err := New(1 << 16)
	require.NoError(t, err)
	defer a.Close()

	const maps = 8
	handles := make([]*Handle, maps)
	for i := range handles {
		handles[i], err = a.Carve(slotmap.Small)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			for range 500 {
				if _, err := h.Alloc(); err != nil {
					t.Error(err)
					return
				}
			}
		}(h)
	}
	wg.Wait()

	for _, h := range handles {
		st, err := h.Stats()
		require.NoError(t, err)
		assert.Equal(t, 500, st.Allocated)
		require.NoError(t, h.With(func(m *slotmap.Map) error { return m.Verify() }))
	}
}

func TestArena_ResetMakesHandlesStale(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Carve(slotmap.Small)
	require.NoError(t, err)
	_, err = h.Alloc()
	require.NoError(t, err)

	require.NoError(t, a.Reset())
	assert.Equal(t, uint64(2), a.Generation())
	assert.Empty(t, a.Regions())

	_, err = h.Alloc()
	require.ErrorIs(t, err, ErrStaleHandle)

	fresh, err := a.Handle(0, slotmap.Small)
	require.NoError(t, err)
	idx, err := fresh.Alloc()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestArena_CaptureRestore(t *testing.T) {
	a, err := New(8192)
	require.NoError(t, err)
	defer a.Close()

	small, err := a.Carve(slotmap.Small)
	require.NoError(t, err)
	std, err := a.Carve(slotmap.Standard)
	require.NoError(t, err)

	for range 70 {
		_, err = small.Alloc()
		require.NoError(t, err)
	}
	for range 5 {
		_, err = std.Alloc()
		require.NoError(t, err)
	}

	img, err := a.Capture()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), img.Generation)
	assert.Len(t, img.Data, 8192)
	assert.Equal(t, []Region{small.Region(), std.Region()}, img.Regions)

	// Diverge, then roll back.
	require.NoError(t, small.Dealloc(3))
	_, err = std.Alloc()
	require.NoError(t, err)

	require.NoError(t, a.Restore(img.Data, img.Regions))
	assert.Equal(t, uint64(2), a.Generation())

	_, err = small.Alloc()
	require.ErrorIs(t, err, ErrStaleHandle)

	handles := a.Handles()
	require.Len(t, handles, 2)

	idx, err := handles[0].Alloc()
	require.NoError(t, err)
	assert.Equal(t, 70, idx)

	idx, err = handles[1].Alloc()
	require.NoError(t, err)
	assert.Equal(t, 5, idx)

	// Capture is a copy.
	img.Data[0] = 0
	ok := false
	require.NoError(t, handles[0].With(func(m *slotmap.Map) error {
		ok, err = m.IsAllocated(0)
		return err
	}))
	assert.True(t, ok)
}

func TestArena_RestoreErrors(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Carve(slotmap.Small)
	require.NoError(t, err)
	_, err = h.Alloc()
	require.NoError(t, err)

	before := bytes.Clone(a.Bytes())
	img := bytes.Repeat([]byte{0xaa}, 4096)

	tests := []struct {
		name    string
		data    []byte
		regions []Region
		want    error
	}{
		{"size mismatch", make([]byte, 10), nil, ErrInvalidSize},
		{"overlap", img, []Region{
			{Offset: 0, Geometry: slotmap.Small},
			{Offset: 8, Geometry: slotmap.Small},
		}, ErrOverlap},
		{"same offset, other geometry", img, []Region{
			{Offset: 0, Geometry: slotmap.Small},
			{Offset: 0, Geometry: slotmap.Standard},
		}, ErrOverlap},
		{"past the end", img, []Region{
			{Offset: 0, Geometry: slotmap.Small},
			{Offset: 4000, Geometry: slotmap.Small},
		}, slotmap.ErrInsufficientMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, a.Restore(tt.data, tt.regions), tt.want)

			assert.Equal(t, before, a.Bytes(), "bytes changed")
			assert.Equal(t, uint64(1), a.Generation())
			assert.Equal(t, []Region{{Offset: 0, Geometry: slotmap.Small}}, a.Regions())

			idx, err := h.Alloc()
			require.NoError(t, err, "old handle must stay live")
			assert.Equal(t, 1, idx)
			require.NoError(t, h.Dealloc(idx))
		})
	}
}

func TestArena_Close(t *testing.T) {
	a, err := NewAnon(4096)
	require.NoError(t, err)

	h, err := a.Carve(slotmap.Small)
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err = h.Alloc()
	require.ErrorIs(t, err, ErrClosed)
	_, err = a.Carve(slotmap.Small)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, a.Sync(), ErrClosed)
	require.ErrorIs(t, a.Reset(), ErrClosed)
	assert.Nil(t, a.Bytes())
}

func TestArena_FilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.arena")

	a, err := OpenFile(path, 4096)
	require.NoError(t, err)
	h, err := a.Carve(slotmap.Small)
	require.NoError(t, err)
	for range 3 {
		_, err = h.Alloc()
		require.NoError(t, err)
	}
	require.NoError(t, a.Sync())
	require.NoError(t, a.Close())

	b, err := OpenFile(path, 0)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, 4096, b.Size())

	h, err = b.Handle(0, slotmap.Small)
	require.NoError(t, err)
	idx, err := h.Alloc()
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestArena_MemoryAcquirer(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 10000})

	a, err := New(8000, WithMemoryAcquirer(rc))
	require.NoError(t, err)
	assert.Equal(t, int64(8000), rc.MemoryUsage())

	_, err = New(4000, WithMemoryAcquirer(rc), WithAcquireTimeout(10*time.Millisecond))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = New(20000, WithMemoryAcquirer(rc))
	require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	require.NoError(t, a.Close())
	assert.Equal(t, int64(0), rc.MemoryUsage())

	b, err := New(4000, WithMemoryAcquirer(rc))
	require.NoError(t, err)
	require.NoError(t, b.Close())
}

func TestArena_MapOptions(t *testing.T) {
	mc := &slotmap.BasicMetricsCollector{}
	a, err := New(4096, WithName("metrics"), WithMapOptions(slotmap.WithMetricsCollector(mc)), WithLogger(nil))
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Carve(slotmap.Small)
	require.NoError(t, err)
	for range 4 {
		_, err = h.Alloc()
		require.NoError(t, err)
	}
	require.NoError(t, h.Dealloc(1))

	st := mc.GetStats()
	assert.Equal(t, int64(4), st.AllocCount)
	assert.Equal(t, int64(1), st.DeallocCount)
	assert.Equal(t, "metrics", a.Name())
	assert.Contains(t, a.String(), "regions: 1")
}

func ExampleArena_Carve() {
	a, err := New(1 << 16)
	if err != nil {
		panic(err)
	}
	defer a.Close()

	h, _ := a.Carve(slotmap.Standard)
	first, _ := h.Alloc()
	second, _ := h.Alloc()
	fmt.Println(h.Offset(), first, second)
	// Output: 0 0 1
}
