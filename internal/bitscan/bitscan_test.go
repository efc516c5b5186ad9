package bitscan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotmap/testutil"
)

func bruteFirstZero(word uint64, n int) (int, bool) {
	for j := 0; j < min(n, WordBits); j++ {
		if word&(uint64(1)<<uint(j)) == 0 {
			return j, true
		}
	}
	return 0, false
}

func TestFirstZero(t *testing.T) {
	tests := []struct {
		name  string
		word  uint64
		n     int
		pos   int
		found bool
	}{
		{"empty word", 0, 64, 0, true},
		{"full word", ^uint64(0), 64, 0, false},
		{"bit zero set", 1, 64, 1, true},
		{"low 16 set", 0xffff, 64, 16, true},
		{"low 32 set", 0xffff_ffff, 64, 32, true},
		{"low 48 set", 0xffff_ffff_ffff, 64, 48, true},
		{"only top bit clear", ^uint64(0) >> 1, 64, 63, true},
		{"gap in low chunk", 0xffff_ffff_fffe_ffff, 64, 16, true},
		{"gap in mid chunk", 0xffff_fffe_ffff_ffff, 64, 32, true},
		{"narrow top full", 0xf, 4, 0, false},
		{"narrow top partial", 0x7, 4, 3, true},
		{"narrow ignores high bits", 0xf0, 4, 0, true},
		{"width 40 zero above ceiling", 0xffff_00ff_ffff_ffff, 40, 0, false},
		{"width 40 zero below ceiling", 0xffff_ff7f_ffff_ffff, 40, 39, true},
		{"width 48 with mid full", 0x0000_ffff_ffff_ffff, 48, 0, false},
		{"width 49 with mid full", 0x0000_ffff_ffff_ffff, 49, 48, true},
		{"zero width", 0, 0, 0, false},
		{"negative width", 0, -3, 0, false},
		{"oversized width clamps", ^uint64(0), 100, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, found := FirstZero(tt.word, tt.n)
			require.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.pos, pos)
			}
		})
	}
}

func TestFirstZero_MatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(42)

	// Random words are nearly always caught by the 0..16 chunk, so most
	// samples saturate a random-length low run first.
	sample := func() uint64 {
		w := rng.Uint64()
		switch rng.Intn(4) {
		case 0:
			return w
		case 1:
			return w | Mask(rng.Intn(65))
		case 2:
			return ^uint64(0) &^ (uint64(1) << uint(rng.Intn(64)))
		default:
			return Mask(rng.Intn(65))
		}
	}

	for n := 0; n <= WordBits; n++ {
		t.Run(fmt.Sprintf("width=%d", n), func(t *testing.T) {
			for i := 0; i < 2000; i++ {
				w := sample()
				wantPos, wantOK := bruteFirstZero(w, n)
				gotPos, gotOK := FirstZero(w, n)
				require.Equal(t, wantOK, gotOK, "word=%#x n=%d", w, n)
				if wantOK {
					require.Equal(t, wantPos, gotPos, "word=%#x n=%d", w, n)
				}
			}
		})
	}
}

func TestFirstZero_EverySingleClearBit(t *testing.T) {
	for n := 1; n <= WordBits; n++ {
		for bit := 0; bit < WordBits; bit++ {
			w := ^uint64(0) &^ (uint64(1) << uint(bit))
			pos, ok := FirstZero(w, n)
			if bit < n {
				require.True(t, ok, "bit=%d n=%d", bit, n)
				require.Equal(t, bit, pos)
			} else {
				require.False(t, ok, "bit=%d n=%d", bit, n)
			}
		}
	}
}

func TestMaskAndFull(t *testing.T) {
	assert.Equal(t, uint64(0), Mask(0))
	assert.Equal(t, uint64(0xf), Mask(4))
	assert.Equal(t, ^uint64(0), Mask(64))
	assert.Equal(t, ^uint64(0), Mask(80))

	assert.True(t, Full(0xf, 4))
	assert.True(t, Full(0x1f, 4))
	assert.False(t, Full(0x7, 4))
	assert.True(t, Full(^uint64(0), 64))
	assert.False(t, Full(^uint64(0)>>1, 64))
}

func BenchmarkFirstZero(b *testing.B) {
	words := []uint64{0, 0xffff, 0xffff_ffff, 0xffff_ffff_ffff, ^uint64(0) >> 1}
	b.ReportAllocs()
	var sink int
	for b.Loop() {
		for _, w := range words {
			p, _ := FirstZero(w, 64)
			sink += p
		}
	}
	_ = sink
}
