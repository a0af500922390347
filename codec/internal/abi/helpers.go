package abi

import "math"

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

// AlignTo rounds offset up to the next multiple of align, which must be a
// power of two. Reports false when the rounded value does not fit in 32 bits.
func AlignTo(offset, align uint32) (uint32, bool) {
	sum, ok := SafeAddU32(offset, align-1)
	if !ok {
		return 0, false
	}
	return sum &^ (align - 1), true
}

// IsAligned reports whether offset sits on a multiple of align, which must
// be a power of two.
func IsAligned(offset, align uint32) bool {
	return offset&(align-1) == 0
}
