package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: integer overflow")

func overflow(v any, target string) error {
	return fmt.Errorf("%w: %v does not fit %s", ErrOverflow, v, target)
}

// IntToUint32 converts int to uint32.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, overflow(v, "uint32")
	}
	return uint32(v), nil
}

// Uint64ToInt converts uint64 to int.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, overflow(v, "int")
	}
	return int(v), nil
}

// Int64ToInt converts int64 to int, rejecting negatives.
func Int64ToInt(v int64) (int, error) {
	if v < 0 || uint64(v) > uint64(math.MaxInt) {
		return 0, overflow(v, "int")
	}
	return int(v), nil
}
