package arena

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/slotmap"
	"github.com/hupe1980/slotmap/internal/mem"
	"github.com/hupe1980/slotmap/internal/mmap"
)

var (
	// ErrClosed is returned by every operation on a closed arena.
	ErrClosed = errors.New("arena: closed")
	// ErrBorrowConflict is returned when a handle is already borrowed, or when
	// a whole-arena operation runs while any handle is borrowed.
	ErrBorrowConflict = errors.New("arena: borrow conflict")
	// ErrStaleHandle is returned when a handle predates the current generation.
	ErrStaleHandle = errors.New("arena: stale handle")
	// ErrOverlap is returned when a new region intersects a registered one.
	ErrOverlap = errors.New("arena: region overlaps")
	// ErrInvalidSize is returned for non-positive sizes and size mismatches.
	ErrInvalidSize = errors.New("arena: invalid size")
)

// DefaultAcquireTimeout bounds the wait on the memory acquirer.
const DefaultAcquireTimeout = 100 * time.Millisecond

// Region names one slot map inside an arena.
type Region struct {
	Offset   int              `json:"offset"`
	Geometry slotmap.Geometry `json:"geometry"`
}

// End returns the first byte past the region.
func (r Region) End() int {
	return r.Offset + r.Geometry.RequiredBytes()
}

// Image is a consistent copy of an arena.
type Image struct {
	Generation uint64
	Data       []byte
	Regions    []Region
}

// Arena is a fixed-size byte region holding any number of slot maps.
type Arena struct {
	mu       sync.Mutex
	data     []byte
	mapping  *mmap.Mapping // nil for heap arenas
	handles  map[int]*Handle
	borrowed int
	closed   bool

	generation atomic.Uint64

	acquired int64
	opts     options
	logger   *slotmap.Logger
}

// New creates a heap-backed arena of size bytes.
func New(size int, optFns ...Option) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return build(size, optFns, func() ([]byte, *mmap.Mapping, error) {
		return mem.AllocAligned(size, mem.DefaultAlignment), nil, nil
	})
}

// NewAnon creates an arena backed by an anonymous mapping, outside the Go heap.
func NewAnon(size int, optFns ...Option) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return build(size, optFns, func() ([]byte, *mmap.Mapping, error) {
		m, err := mmap.MapAnon(size)
		if err != nil {
			return nil, nil, err
		}
		return m.Bytes(), m, nil
	})
}

// OpenFile creates an arena over a shared mapping of path.
//
// The file is created if missing and extended with zeros to size. A size of
// 0 maps the whole existing file. Existing bitmaps survive reopening.
func OpenFile(path string, size int, optFns ...Option) (*Arena, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	m, err := mmap.OpenFile(path, size)
	if err != nil {
		return nil, fmt.Errorf("arena: open %s: %w", path, err)
	}
	a, err := build(m.Size(), optFns, func() ([]byte, *mmap.Mapping, error) {
		return m.Bytes(), m, nil
	})
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return a, nil
}

func build(size int, optFns []Option, alloc func() ([]byte, *mmap.Mapping, error)) (*Arena, error) {
	opts := applyOptions(optFns)

	if opts.acquirer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		err := opts.acquirer.AcquireMemory(ctx, int64(size))
		cancel()
		if err != nil {
			return nil, fmt.Errorf("arena: acquire %d bytes: %w", size, err)
		}
	}

	data, mapping, err := alloc()
	if err != nil {
		if opts.acquirer != nil {
			opts.acquirer.ReleaseMemory(int64(size))
		}
		return nil, fmt.Errorf("arena: map %d bytes: %w", size, err)
	}

	a := &Arena{
		data:     data,
		mapping:  mapping,
		handles:  make(map[int]*Handle),
		acquired: int64(size),
		opts:     opts,
		logger:   opts.logger.WithArena(opts.name),
	}
	a.generation.Store(1)

	a.logger.Debug("arena opened", "size", size, "mapped", mapping != nil)
	return a, nil
}

// Name returns the arena label.
func (a *Arena) Name() string {
	return a.opts.name
}

// Size returns the arena size in bytes.
func (a *Arena) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.data)
}

// Bytes returns the backing region. Access through it is not guarded by
// handles. The slice is invalid after Close.
func (a *Arena) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// Generation returns the current generation. It starts at 1.
func (a *Arena) Generation() uint64 {
	return a.generation.Load()
}

// Handle registers (offset, g) and returns its handle. Registering the same
// pair again returns the existing handle.
func (a *Arena) Handle(offset int, g slotmap.Geometry) (*Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	return a.registerLocked(Region{Offset: offset, Geometry: g})
}

// Carve registers g at the first 8-byte aligned offset past every
// registered region.
func (a *Arena) Carve(g slotmap.Geometry) (*Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}

	end := 0
	for _, h := range a.handles {
		end = max(end, h.region.End())
	}
	offset := (end + mem.DefaultAlignment - 1) &^ (mem.DefaultAlignment - 1)

	return a.registerLocked(Region{Offset: offset, Geometry: g})
}

func (a *Arena) registerLocked(r Region) (*Handle, error) {
	h, err := a.checkRegion(a.handles, r)
	if err != nil || h != nil {
		return h, err
	}
	h = a.newHandle(r, a.generation.Load())
	a.handles[r.Offset] = h
	return h, nil
}

// checkRegion validates r against the arena bytes and against handles. It
// returns the existing handle when r is already registered with the same
// geometry, and nil when r is free to register.
func (a *Arena) checkRegion(handles map[int]*Handle, r Region) (*Handle, error) {
	if h, ok := handles[r.Offset]; ok {
		if h.region.Geometry == r.Geometry {
			return h, nil
		}
		return nil, fmt.Errorf("%w: offset %d holds %s", ErrOverlap, r.Offset, h.region.Geometry)
	}

	if _, err := slotmap.New(a.data, r.Offset, r.Geometry); err != nil {
		return nil, err
	}

	for _, h := range handles {
		if r.Offset < h.region.End() && h.region.Offset < r.End() {
			return nil, fmt.Errorf("%w: [%d,%d) and %s at %d", ErrOverlap, r.Offset, r.End(), h.region.Geometry, h.region.Offset)
		}
	}
	return nil, nil
}

func (a *Arena) newHandle(r Region, gen uint64) *Handle {
	if a.mapping != nil {
		if mr, err := a.mapping.Region(r.Offset, r.Geometry.RequiredBytes()); err == nil {
			_ = mr.Advise(mmap.AccessRandom)
		}
	}
	a.logger.Debug("region registered", "offset", r.Offset, "geometry", r.Geometry.String())
	return &Handle{
		arena:  a,
		region: r,
		gen:    gen,
	}
}

// Handles returns the registered handles ordered by offset.
func (a *Arena) Handles() []*Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Handle, 0, len(a.handles))
	for _, off := range slices.Sorted(maps.Keys(a.handles)) {
		out = append(out, a.handles[off])
	}
	return out
}

// Regions returns the registered regions ordered by offset.
func (a *Arena) Regions() []Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.regionsLocked()
}

func (a *Arena) regionsLocked() []Region {
	out := make([]Region, 0, len(a.handles))
	for _, off := range slices.Sorted(maps.Keys(a.handles)) {
		out = append(out, a.handles[off].region)
	}
	return out
}

// exclusive runs fn with the lock held and no handle borrowed.
func (a *Arena) exclusive(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.borrowed > 0 {
		return fmt.Errorf("%w: %d handle(s) borrowed", ErrBorrowConflict, a.borrowed)
	}
	return fn()
}

// Reset zeroes the arena, drops every registration, and bumps the generation.
func (a *Arena) Reset() error {
	return a.exclusive(func() error {
		clear(a.data)
		a.handles = make(map[int]*Handle)
		gen := a.generation.Add(1)
		a.logger.Info("arena reset", "generation", gen)
		return nil
	})
}

// Capture returns a copy of the arena and its regions.
func (a *Arena) Capture() (*Image, error) {
	var img *Image
	err := a.exclusive(func() error {
		img = &Image{
			Generation: a.generation.Load(),
			Data:       slices.Clone(a.data),
			Regions:    a.regionsLocked(),
		}
		return nil
	})
	return img, err
}

// Restore overwrites the arena with data, bumps the generation, and
// registers regions. data must be exactly Size bytes. On error the arena,
// its generation and its handles are left untouched.
func (a *Arena) Restore(data []byte, regions []Region) error {
	return a.exclusive(func() error {
		if len(data) != len(a.data) {
			return fmt.Errorf("%w: image is %d bytes, arena is %d", ErrInvalidSize, len(data), len(a.data))
		}

		next := make(map[int]*Handle, len(regions))
		for _, r := range regions {
			h, err := a.checkRegion(next, r)
			if err != nil {
				return fmt.Errorf("arena: restore region at %d: %w", r.Offset, err)
			}
			if h == nil {
				next[r.Offset] = &Handle{arena: a, region: r}
			}
		}

		gen := a.generation.Load() + 1
		for _, off := range slices.Sorted(maps.Keys(next)) {
			next[off] = a.newHandle(next[off].region, gen)
		}

		copy(a.data, data)
		a.handles = next
		a.generation.Store(gen)

		a.logger.Info("arena restored", "generation", gen, "regions", len(next))
		return nil
	})
}

// Sync flushes a file-backed arena to disk. It is a no-op otherwise.
func (a *Arena) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.mapping == nil {
		return nil
	}
	return a.mapping.Sync()
}

// Close releases the memory. Every handle becomes stale.
func (a *Arena) Close() error {
	err := a.exclusive(func() error {
		a.closed = true
		a.generation.Add(1)
		a.handles = nil

		var err error
		if a.mapping != nil {
			err = a.mapping.Close()
		}
		a.data = nil

		if a.opts.acquirer != nil {
			a.opts.acquirer.ReleaseMemory(a.acquired)
		}

		a.logger.Debug("arena closed")
		return err
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (a *Arena) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("Arena{name: %s, size: %d, regions: %d, borrowed: %d, generation: %d}",
		a.opts.name, len(a.data), len(a.handles), a.borrowed, a.generation.Load())
}
