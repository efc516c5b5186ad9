package slotmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/slotmap/internal/tier"
	"github.com/hupe1980/slotmap/internal/words"
)

// Geometry fixes the tier count and top width of a map, and with them its
// capacity and word layout. The zero Geometry is invalid.
type Geometry struct {
	name    string
	tiers   uint8
	topBits uint8
}

var (
	// Small is a two-tier layout: 65 words, 4,096 slots.
	Small = Geometry{name: "small", tiers: 2, topBits: 64}
	// Standard is a three-tier layout with a 4-bit top word: 261 words, 16,384 slots.
	Standard = Geometry{name: "standard", tiers: 3, topBits: 4}
	// Trade is an alias of Standard.
	Trade = Standard
	// Max is a three-tier layout with a full top word: 4,161 words, 262,144 slots.
	Max = Geometry{name: "max", tiers: 3, topBits: 64}
)

// Custom returns a three-tier geometry with the given top width (1..64).
// Widths 4 and 64 return Standard and Max.
func Custom(topBits int) (Geometry, error) {
	if !tier.ValidTopBits(topBits) {
		return Geometry{}, fmt.Errorf("%w: top width %d not in 1..64", ErrInvalidGeometry, topBits)
	}
	switch topBits {
	case int(Standard.topBits):
		return Standard, nil
	case int(Max.topBits):
		return Max, nil
	}
	return Geometry{name: "custom-" + strconv.Itoa(topBits), tiers: 3, topBits: uint8(topBits)}, nil
}

// ParseGeometry parses a geometry name: small, standard, trade, max or custom-N.
func ParseGeometry(s string) (Geometry, error) {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case "small":
		return Small, nil
	case "standard", "trade":
		return Standard, nil
	case "max":
		return Max, nil
	default:
		n, ok := strings.CutPrefix(name, "custom-")
		if !ok {
			return Geometry{}, fmt.Errorf("%w: unknown geometry %q", ErrInvalidGeometry, s)
		}
		topBits, err := strconv.Atoi(n)
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: unknown geometry %q", ErrInvalidGeometry, s)
		}
		return Custom(topBits)
	}
}

// Valid reports whether g describes a usable layout.
func (g Geometry) Valid() bool {
	return (g.tiers == 2 || g.tiers == 3) && tier.ValidTopBits(int(g.topBits))
}

// Tiers returns the number of bitmap levels.
func (g Geometry) Tiers() int { return int(g.tiers) }

// TopBits returns the number of significant bits in the top word.
func (g Geometry) TopBits() int { return int(g.topBits) }

// Capacity returns the number of slots. Valid indices are 0..Capacity()-1.
func (g Geometry) Capacity() int {
	if !g.Valid() {
		return 0
	}
	return tier.Capacity(g.Tiers(), g.TopBits())
}

// RequiredWords returns the number of 64-bit words the layout occupies.
func (g Geometry) RequiredWords() int {
	if !g.Valid() {
		return 0
	}
	return tier.Words(g.Tiers(), g.TopBits())
}

// RequiredBytes returns RequiredWords in bytes.
func (g Geometry) RequiredBytes() int {
	return g.RequiredWords() * words.Size
}

func (g Geometry) String() string {
	if g.name == "" {
		return "invalid"
	}
	return g.name
}

// MarshalText implements encoding.TextMarshaler.
func (g Geometry) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, ErrInvalidGeometry
	}
	return []byte(g.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Geometry) UnmarshalText(text []byte) error {
	parsed, err := ParseGeometry(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
