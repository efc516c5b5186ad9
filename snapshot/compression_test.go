package snapshot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotmap/testutil"
)

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)

		text, err := c.MarshalText()
		require.NoError(t, err)
		var back Compression
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}

	got, err := ParseCompression(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, got)

	_, err = ParseCompression("brotli")
	require.Error(t, err)

	_, err = Compression(9).MarshalText()
	require.Error(t, err)
	assert.Equal(t, "compression(9)", Compression(9).String())
}

func TestCompressChunk(t *testing.T) {
	zeros := make([]byte, 64*1024)

	rng := testutil.NewRNG(1)
	noise := make([]byte, 64*1024)
	for i := range noise {
		noise[i] = byte(rng.Uint64())
	}

	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			stored, packed, err := compressChunk(zeros, c)
			require.NoError(t, err)
			assert.True(t, packed)
			assert.Less(t, len(stored), len(zeros)/10)

			out := make([]byte, len(zeros))
			require.NoError(t, decompressChunk(out, stored, c))
			assert.Equal(t, zeros, out)

			stored, packed, err = compressChunk(noise, c)
			require.NoError(t, err)
			assert.False(t, packed)
			assert.True(t, bytes.Equal(noise, stored))

			require.Error(t, decompressChunk(make([]byte, 10), []byte{0xff, 0xff, 0xff}, c))
		})
	}

	stored, packed, err := compressChunk(zeros, CompressionNone)
	require.NoError(t, err)
	assert.False(t, packed)
	assert.Len(t, stored, len(zeros))

	require.Error(t, decompressChunk(make([]byte, 1), []byte{1}, CompressionNone))
}
