package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/slotmap/internal/hash"
)

// Blob layout, little-endian:
//
//	magic "SLOTSNAP" | version u16 | compression u8 | byte order u8 |
//	size u64 | chunk size u32 | chunk count u32
//
// followed per chunk by raw len u32 | stored len u32 | crc32c u32 | bytes.
// A stored len of 0 means the chunk bytes are raw.
const (
	magic         = "SLOTSNAP"
	formatVersion = 1

	// byteOrderLittle and byteOrderBig record the order of the 64-bit
	// bitmap words in the payload, which is the saving host's.
	byteOrderLittle = 1
	byteOrderBig    = 2

	headerSize      = 8 + 2 + 1 + 1 + 8 + 4 + 4
	chunkHeaderSize = 4 + 4 + 4

	// DefaultChunkSize is the uncompressed chunk size.
	DefaultChunkSize = 256 * 1024
	// MaxChunkSize caps the chunk size accepted from a blob header.
	MaxChunkSize = 64 * 1024 * 1024
)

var (
	// ErrCorrupt is returned when a blob fails validation.
	ErrCorrupt = errors.New("snapshot: corrupt blob")
	// ErrUnsupportedVersion is returned for blobs from a newer format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported format version")
	// ErrByteOrder is returned when a blob was saved on a host with the
	// other word byte order.
	ErrByteOrder = errors.New("snapshot: byte order mismatch")
)

// hostByteOrder is the byte order of this host's uint64 words.
var hostByteOrder = func() uint8 {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return byteOrderLittle
	}
	return byteOrderBig
}()

type header struct {
	Version     uint16
	Compression Compression
	ByteOrder   uint8
	Size        uint64
	ChunkSize   uint32
	ChunkCount  uint32
}

func (h header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize)
	copy(buf, magic)
	binary.LittleEndian.PutUint16(buf[8:], h.Version)
	buf[10] = byte(h.Compression)
	buf[11] = h.ByteOrder
	binary.LittleEndian.PutUint64(buf[12:], h.Size)
	binary.LittleEndian.PutUint32(buf[20:], h.ChunkSize)
	binary.LittleEndian.PutUint32(buf[24:], h.ChunkCount)
	return buf, nil
}

func (h *header) UnmarshalBinary(buf []byte) error {
	if len(buf) < headerSize {
		return fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if string(buf[:8]) != magic {
		return fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	h.Version = binary.LittleEndian.Uint16(buf[8:])
	h.Compression = Compression(buf[10])
	h.ByteOrder = buf[11]
	h.Size = binary.LittleEndian.Uint64(buf[12:])
	h.ChunkSize = binary.LittleEndian.Uint32(buf[20:])
	h.ChunkCount = binary.LittleEndian.Uint32(buf[24:])
	return h.validate()
}

func (h header) validate() error {
	switch {
	case h.Version != formatVersion:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	case h.ByteOrder != byteOrderLittle && h.ByteOrder != byteOrderBig:
		return fmt.Errorf("%w: byte order %d", ErrCorrupt, h.ByteOrder)
	case h.Compression > CompressionZstd:
		return fmt.Errorf("%w: compression %d", ErrCorrupt, h.Compression)
	case h.ChunkSize == 0 || h.ChunkSize > MaxChunkSize:
		return fmt.Errorf("%w: chunk size %d", ErrCorrupt, h.ChunkSize)
	case uint64(h.ChunkCount) != chunkCount(h.Size, h.ChunkSize):
		return fmt.Errorf("%w: %d chunks for %d bytes", ErrCorrupt, h.ChunkCount, h.Size)
	}
	return nil
}

func chunkCount(size uint64, chunkSize uint32) uint64 {
	return (size + uint64(chunkSize) - 1) / uint64(chunkSize)
}

// chunk is one encoded chunk.
type chunk struct {
	rawLen uint32
	crc    uint32
	stored []byte
	packed bool
}

func (c chunk) writeTo(w io.Writer) error {
	var hdr [chunkHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], c.rawLen)
	if c.packed {
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(c.stored)))
	}
	binary.LittleEndian.PutUint32(hdr[8:], c.crc)

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(c.stored)
	return err
}

// readChunk reads one chunk whose raw length must be want.
func readChunk(r io.Reader, want uint32) (chunk, error) {
	var hdr [chunkHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return chunk{}, fmt.Errorf("%w: chunk header: %w", ErrCorrupt, err)
	}

	c := chunk{
		rawLen: binary.LittleEndian.Uint32(hdr[0:]),
		crc:    binary.LittleEndian.Uint32(hdr[8:]),
	}
	if c.rawLen != want {
		return chunk{}, fmt.Errorf("%w: chunk length %d, want %d", ErrCorrupt, c.rawLen, want)
	}

	n := c.rawLen
	if storedLen := binary.LittleEndian.Uint32(hdr[4:]); storedLen != 0 {
		if storedLen > MaxChunkSize {
			return chunk{}, fmt.Errorf("%w: stored length %d", ErrCorrupt, storedLen)
		}
		n = storedLen
		c.packed = true
	}

	c.stored = make([]byte, n)
	if _, err := io.ReadFull(r, c.stored); err != nil {
		return chunk{}, fmt.Errorf("%w: chunk body: %w", ErrCorrupt, err)
	}
	return c, nil
}

// decode expands the chunk into dst and checks its checksum.
func (c chunk) decode(dst []byte, comp Compression) error {
	if c.packed {
		if err := decompressChunk(dst, c.stored, comp); err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	} else {
		copy(dst, c.stored)
	}
	if hash.CRC32C(dst) != c.crc {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return nil
}
