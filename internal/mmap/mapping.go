package mmap

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
)

// Mapping is a memory-mapped file or anonymous region.
// It owns the underlying byte slice and is responsible for unmapping it.
type Mapping struct {
	data     []byte
	size     int
	writable bool
	closed   atomic.Bool

	// f is nil for anonymous mappings.
	f *os.File
	// unmap is the platform-specific function to unmap the memory.
	unmap func([]byte) error
}

// Open maps the file at path read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if size < 0 || int64(int(size)) != size {
		return nil, ErrInvalidSize
	}

	data, unmap, err := osMap(f, int(size), false)
	if err != nil {
		return nil, err
	}

	return &Mapping{
		data:  data,
		size:  int(size),
		unmap: unmap,
	}, nil
}

// OpenFile maps the file at path read-write and shared, creating it if needed.
//
// If size is positive and the file is shorter, the file is extended with
// zeros. If size is zero the current file size is used. The file is kept open
// until Close so that Sync can flush it.
func OpenFile(path string, size int) (*Mapping, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	switch {
	case size == 0:
		size = int(fi.Size())
	case fi.Size() < int64(size):
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, err
		}
	}
	if size == 0 {
		f.Close()
		return nil, ErrInvalidSize
	}

	data, unmap, err := osMap(f, size, true)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Mapping{
		data:     data,
		size:     size,
		writable: true,
		f:        f,
		unmap:    unmap,
	}, nil
}

// MapAnon creates a zeroed, private, read-write anonymous mapping outside
// the Go heap.
func MapAnon(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	data, unmap, err := osMapAnon(size)
	if err != nil {
		return nil, err
	}

	return &Mapping{
		data:     data,
		size:     size,
		writable: true,
		unmap:    unmap,
	}, nil
}

// Close unmaps the memory and closes the backing file. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil // Already closed
	}
	var errs []error
	if m.unmap != nil && m.data != nil {
		errs = append(errs, m.unmap(m.data))
	}
	if m.f != nil {
		errs = append(errs, m.f.Close())
	}
	return errors.Join(errs...)
}

// Bytes returns the underlying byte slice.
// Warning: The slice is valid only until Close() is called.
// Accessing the slice after Close() results in undefined behavior (likely a crash).
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return m.size
}

// Writable reports whether the mapping was created read-write.
func (m *Mapping) Writable() bool {
	return m.writable
}

// Sync flushes dirty pages of a file mapping to disk.
// It is a no-op for anonymous mappings.
func (m *Mapping) Sync() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.writable {
		return ErrReadOnly
	}
	if m.f == nil || m.data == nil {
		return nil
	}
	if err := osSync(m.data); err != nil {
		return err
	}
	return m.f.Sync()
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
