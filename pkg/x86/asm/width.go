package asm

import (
	"golang.org/x/exp/constraints"
)

// MaskTo truncates a value to the given register width, zero-extending the
// upper bits. Writing through a 32-bit alias clears the upper 32 bits of the
// parent register; the same rule applies to the narrower aliases.
func MaskTo[T constraints.Integer](value T, width Width) T {
	return T(uint64(value) & width.Mask())
}

// LowByte returns the low 8 bits of a value, zero-extended
func LowByte[T constraints.Integer](value T) T {
	return MaskTo(value, Width8)
}
