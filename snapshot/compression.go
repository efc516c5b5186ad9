package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the chunk codec.
type Compression uint8

const (
	// CompressionNone stores chunks raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd (better ratio). Default.
	CompressionZstd Compression = 2
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return 0, fmt.Errorf("snapshot: unknown compression %q", s)
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) {
	if c > CompressionZstd {
		return nil, fmt.Errorf("snapshot: unknown compression %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(text []byte) error {
	v, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compressChunk returns the stored form of data and whether it is compressed.
// Chunks that do not shrink below 90% are stored raw.
func compressChunk(data []byte, c Compression) ([]byte, bool, error) {
	if c == CompressionNone || len(data) == 0 {
		return data, false, nil
	}

	var out []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, false, err
		}
		out = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	default:
		return nil, false, fmt.Errorf("snapshot: unknown compression %d", uint8(c))
	}

	if len(out) == 0 || float64(len(out)) > float64(len(data))*0.9 {
		return data, false, nil
	}
	return out, true, nil
}

// decompressChunk expands stored into dst, which must be exactly the raw length.
func decompressChunk(dst, stored []byte, c Compression) error {
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(stored, dst)
		if err != nil {
			return err
		}
		if n != len(dst) {
			return errors.New("decompressed size mismatch")
		}
		return nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		out, err := dec.DecodeAll(stored, dst[:0])
		if err != nil {
			return err
		}
		if len(out) != len(dst) {
			return errors.New("decompressed size mismatch")
		}
		return nil
	}
	return fmt.Errorf("compressed chunk under %s", c)
}
