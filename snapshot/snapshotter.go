package snapshot

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/slotmap"
	"github.com/hupe1980/slotmap/arena"
	"github.com/hupe1980/slotmap/blobstore"
	"github.com/hupe1980/slotmap/codec"
	"github.com/hupe1980/slotmap/internal/conv"
	"github.com/hupe1980/slotmap/internal/hash"
	"github.com/hupe1980/slotmap/resource"
)

// ErrNoSnapshot is returned when the namespace has no committed snapshot.
var ErrNoSnapshot = errors.New("snapshot: no snapshot")

const (
	pointerName  = "CURRENT"
	manifestsDir = "manifests"
	dataDir      = "data"
)

// Snapshotter saves and restores arenas under one namespace of a store.
//
// Layout:
//
//	<ns>/data/<id>.snap       chunked blob
//	<ns>/manifests/<id>.json  manifest
//	<ns>/CURRENT              name of the newest manifest
type Snapshotter struct {
	store     blobstore.BlobStore
	namespace string
	opts      options
	logger    *slotmap.Logger
}

// New returns a Snapshotter for namespace.
func New(store blobstore.BlobStore, namespace string, optFns ...Option) *Snapshotter {
	opts := applyOptions(optFns)
	return &Snapshotter{
		store:     store,
		namespace: namespace,
		opts:      opts,
		logger:    opts.logger.WithNamespace(namespace),
	}
}

// Namespace returns the namespace.
func (s *Snapshotter) Namespace() string {
	return s.namespace
}

func (s *Snapshotter) pointer() string {
	return path.Join(s.namespace, pointerName)
}

func (s *Snapshotter) manifestName(id string) string {
	return path.Join(s.namespace, manifestsDir, id+".json")
}

func (s *Snapshotter) blobName(id string) string {
	return path.Join(s.namespace, dataDir, id+".snap")
}

// Save writes a snapshot of a and makes it current.
//
// The arena must have no borrowed handles (arena.ErrBorrowConflict).
func (s *Snapshotter) Save(ctx context.Context, a *arena.Arena) (*Manifest, error) {
	rc := s.opts.controller
	if err := rc.AcquireBackground(ctx); err != nil {
		return nil, err
	}
	defer rc.ReleaseBackground()

	img, err := a.Capture()
	if err != nil {
		s.logger.LogSnapshot(ctx, "", 0, err)
		return nil, err
	}

	m, err := s.save(ctx, img)
	if err != nil {
		s.logger.LogSnapshot(ctx, "", len(img.Data), err)
		return nil, err
	}
	s.logger.LogSnapshot(ctx, m.ID, len(img.Data), nil)
	return m, nil
}

func (s *Snapshotter) save(ctx context.Context, img *arena.Image) (*Manifest, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	stats, err := regionStats(img.Data, img.Regions)
	if err != nil {
		return nil, err
	}

	chunks, err := s.encode(ctx, img.Data)
	if err != nil {
		return nil, err
	}

	count, err := conv.IntToUint32(len(chunks))
	if err != nil {
		return nil, err
	}

	hdr := header{
		Version:     formatVersion,
		Compression: s.opts.compression,
		ByteOrder:   hostByteOrder,
		Size:        uint64(len(img.Data)),
		ChunkSize:   uint32(s.opts.chunkSize),
		ChunkCount:  count,
	}

	m := &Manifest{
		ID:          id.String(),
		Namespace:   s.namespace,
		CreatedAt:   s.opts.now().UTC(),
		Generation:  img.Generation,
		Size:        int64(len(img.Data)),
		Compression: s.opts.compression,
		Codec:       s.opts.codec.Name(),
		Blob:        s.blobName(id.String()),
		Chunks:      len(chunks),
		Regions:     stats,
	}

	m.BlobSize, err = s.writeBlob(ctx, m.Blob, hdr, chunks)
	if err != nil {
		return nil, err
	}

	data, err := s.opts.codec.Marshal(m)
	if err != nil {
		return nil, err
	}

	name := s.manifestName(m.ID)
	if err := s.store.Put(ctx, name, data); err != nil {
		return nil, fmt.Errorf("snapshot: write manifest: %w", err)
	}
	if err := s.store.Put(ctx, s.pointer(), []byte(name)); err != nil {
		return nil, fmt.Errorf("snapshot: commit: %w", err)
	}
	return m, nil
}

// encode splits data into chunks and compresses them in parallel.
func (s *Snapshotter) encode(ctx context.Context, data []byte) ([]chunk, error) {
	size := s.opts.chunkSize
	chunks := make([]chunk, chunkCount(uint64(len(data)), uint32(size)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)

	for i := range chunks {
		raw := data[i*size : min((i+1)*size, len(data))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stored, packed, err := compressChunk(raw, s.opts.compression)
			if err != nil {
				return err
			}
			chunks[i] = chunk{
				rawLen: uint32(len(raw)),
				crc:    hash.CRC32C(raw),
				stored: stored,
				packed: packed,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeBlob streams the header and chunks and returns the blob size.
func (s *Snapshotter) writeBlob(ctx context.Context, name string, hdr header, chunks []chunk) (int64, error) {
	w, err := s.store.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("snapshot: create %s: %w", name, err)
	}

	cw := &countingWriter{w: resource.NewRateLimitedWriter(ctx, w, s.opts.controller)}
	bw := bufio.NewWriterSize(cw, 64*1024)

	err = func() error {
		buf, _ := hdr.MarshalBinary()
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		for _, c := range chunks {
			if err := c.writeTo(bw); err != nil {
				return err
			}
		}
		return bw.Flush()
	}()
	if err != nil {
		_ = w.Abort()
		return 0, fmt.Errorf("snapshot: write %s: %w", name, err)
	}

	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("snapshot: close %s: %w", name, err)
	}
	return cw.n, nil
}

// Current returns the manifest CURRENT points at.
func (s *Snapshotter) Current(ctx context.Context) (*Manifest, error) {
	ptr, err := blobstore.ReadAll(ctx, s.store, s.pointer())
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return s.readManifest(ctx, strings.TrimSpace(string(ptr)))
}

// Manifest returns the manifest of snapshot id.
func (s *Snapshotter) Manifest(ctx context.Context, id string) (*Manifest, error) {
	return s.readManifest(ctx, s.manifestName(id))
}

func (s *Snapshotter) readManifest(ctx context.Context, name string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, s.store, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, name)
		}
		return nil, err
	}

	c := s.opts.codec
	if probe, err := peekCodec(data); err == nil && probe != "" && probe != c.Name() {
		if named, ok := codec.ByName(probe); ok {
			c = named
		}
	}

	var m Manifest
	if err := c.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %w", ErrCorrupt, name, err)
	}
	if _, err := conv.Int64ToInt(m.Size); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %w", ErrCorrupt, name, err)
	}
	return &m, nil
}

// peekCodec reads the codec name with the default codec.
func peekCodec(data []byte) (string, error) {
	var probe struct {
		Codec string `json:"codec"`
	}
	if err := codec.Default.Unmarshal(data, &probe); err != nil {
		return "", err
	}
	return probe.Codec, nil
}

// Load reads the current snapshot.
func (s *Snapshotter) Load(ctx context.Context) (*Manifest, []byte, error) {
	m, err := s.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.readBlob(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	return m, data, nil
}

// LoadID reads snapshot id.
func (s *Snapshotter) LoadID(ctx context.Context, id string) (*Manifest, []byte, error) {
	m, err := s.Manifest(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.readBlob(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	return m, data, nil
}

// readBlob reads and validates the blob of m.
func (s *Snapshotter) readBlob(ctx context.Context, m *Manifest) ([]byte, error) {
	b, err := s.store.Open(ctx, m.Blob)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", m.Blob, err)
	}
	defer b.Close()

	if b.Size() < headerSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrCorrupt, m.Blob, b.Size())
	}

	buf := make([]byte, headerSize)
	if _, err := b.ReadAt(ctx, buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	var hdr header
	if err := hdr.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	if hdr.ByteOrder != hostByteOrder {
		return nil, fmt.Errorf("%w: %s has order %d, host %d", ErrByteOrder, m.Blob, hdr.ByteOrder, hostByteOrder)
	}

	total, err := conv.Uint64ToInt(hdr.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if int64(total) != m.Size || hdr.Compression != m.Compression {
		return nil, fmt.Errorf("%w: header disagrees with manifest %s", ErrCorrupt, m.ID)
	}

	rest := b.Size() - headerSize
	var body io.Reader = bytes.NewReader(nil)
	if rest > 0 {
		rc, err := b.ReadRange(ctx, headerSize, rest)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		body = rc
	}
	r := bufio.NewReaderSize(resource.NewRateLimitedReader(ctx, body, s.opts.controller), 64*1024)

	out := make([]byte, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)

	size := int(hdr.ChunkSize)
	for i := range int(hdr.ChunkCount) {
		lo, hi := i*size, min((i+1)*size, len(out))
		c, err := readChunk(r, uint32(hi-lo))
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := c.decode(out[lo:hi:hi], hdr.Compression); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if extra, _ := r.Peek(1); len(extra) > 0 {
		return nil, fmt.Errorf("%w: trailing bytes after %d chunks", ErrCorrupt, hdr.ChunkCount)
	}
	return out, nil
}

// Restore loads the current snapshot into a and re-registers its regions.
func (s *Snapshotter) Restore(ctx context.Context, a *arena.Arena) (*Manifest, error) {
	m, data, err := s.Load(ctx)
	if err != nil {
		s.logger.LogRestore(ctx, "", 0, err)
		return nil, err
	}
	if err := s.restore(a, m, data); err != nil {
		s.logger.LogRestore(ctx, m.ID, len(m.Regions), err)
		return nil, err
	}
	s.logger.LogRestore(ctx, m.ID, len(m.Regions), nil)
	return m, nil
}

// RestoreID loads snapshot id into a.
func (s *Snapshotter) RestoreID(ctx context.Context, a *arena.Arena, id string) (*Manifest, error) {
	m, data, err := s.LoadID(ctx, id)
	if err != nil {
		s.logger.LogRestore(ctx, id, 0, err)
		return nil, err
	}
	err = s.restore(a, m, data)
	s.logger.LogRestore(ctx, id, len(m.Regions), err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Snapshotter) restore(a *arena.Arena, m *Manifest, data []byte) error {
	if err := verifyRegions(data, m.Regions); err != nil {
		return err
	}
	return a.Restore(data, m.ArenaRegions())
}

// Manifests returns the manifests of the namespace, oldest first.
func (s *Snapshotter) Manifests(ctx context.Context) ([]*Manifest, error) {
	names, err := s.store.List(ctx, path.Join(s.namespace, manifestsDir)+"/")
	if err != nil {
		return nil, err
	}

	out := make([]*Manifest, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)
	for i, name := range names {
		g.Go(func() error {
			m, err := s.readManifest(gctx, name)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b *Manifest) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// List returns the snapshot IDs of the namespace, oldest first.
func (s *Snapshotter) List(ctx context.Context) ([]string, error) {
	ms, err := s.Manifests(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	return ids, nil
}

// Prune deletes all but the newest keep snapshots. The current snapshot is
// never deleted. It returns the deleted IDs.
func (s *Snapshotter) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}

	ms, err := s.Manifests(ctx)
	if err != nil {
		return nil, err
	}

	current := ""
	if cur, err := s.Current(ctx); err == nil {
		current = cur.ID
	} else if !errors.Is(err, ErrNoSnapshot) {
		return nil, err
	}

	var deleted []string
	for _, m := range ms[:max(len(ms)-keep, 0)] {
		if m.ID == current {
			continue
		}
		if err := s.store.Delete(ctx, m.Blob); err != nil {
			return deleted, fmt.Errorf("snapshot: delete %s: %w", m.Blob, err)
		}
		if err := s.store.Delete(ctx, s.manifestName(m.ID)); err != nil {
			return deleted, fmt.Errorf("snapshot: delete manifest %s: %w", m.ID, err)
		}
		deleted = append(deleted, m.ID)
	}

	if len(deleted) > 0 {
		s.logger.Info("snapshots pruned", "deleted", len(deleted), "kept", len(ms)-len(deleted))
	}
	return deleted, nil
}
