// Package interpreter provides the execution engine and step controller for
// the normalized x86-64 instruction streams produced by pkg/x86/asm. The
// engine is written once against the operand model; it never sees dialect
// surface syntax.
package interpreter

import (
	"strconv"
)

// Value is a tagged machine word: a register or memory slot holds a 64-bit
// integer except while carrying a double through the scalar-float emulation
// path. Readers resolve the variant explicitly at each read site.
type Value struct {
	isFloat bool
	integer int64
	real    float64
}

// IntValue returns an integer-variant value
func IntValue(value int64) Value {
	return Value{integer: value}
}

// FloatValue returns a float-variant value
func FloatValue(value float64) Value {
	return Value{isFloat: true, real: value}
}

// IsFloat reports whether the value carries a double
func (v Value) IsFloat() bool {
	return v.isFloat
}

// Int resolves the value as an integer, truncating a float variant
func (v Value) Int() int64 {
	if v.isFloat {
		return int64(v.real)
	}
	return v.integer
}

// Float resolves the value as a double, converting an integer variant
func (v Value) Float() float64 {
	if v.isFloat {
		return v.real
	}
	return float64(v.integer)
}

func (v Value) String() string {
	if v.isFloat {
		return strconv.FormatFloat(v.real, 'g', -1, 64)
	}
	return strconv.FormatInt(v.integer, 10)
}
