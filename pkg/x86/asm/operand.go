package asm

import (
	"fmt"
	"strconv"
)

// Represents the kind of operand (immediate, register, memory reference, etc)
type OperandKind uint

const (
	OperandKind_Immediate OperandKind = iota
	OperandKind_Register
	OperandKind_FloatRegister
	OperandKind_Memory
	OperandKind_Label
)

func (o OperandKind) String() string {
	switch o {
	case OperandKind_Immediate:
		return "Immediate"
	case OperandKind_Register:
		return "Register"
	case OperandKind_FloatRegister:
		return "FloatRegister"
	case OperandKind_Memory:
		return "Memory"
	case OperandKind_Label:
		return "Label"
	}

	panic("unreachable")
}

// Operand is the normalized, dialect-agnostic representation of an
// instruction argument. Register names are always stored canonical (the
// parent 64-bit register) together with the width of the alias the source
// used, so the engine never sees surface syntax.
type Operand struct {
	// Type of operand
	Kind OperandKind
	// Literal value (OperandKind_Immediate)
	Value int64
	// Canonical parent register name (OperandKind_Register)
	Reg string
	// Width of the register alias used in the source (OperandKind_Register)
	Width Width
	// Wide float register index (OperandKind_FloatRegister)
	FloatReg int
	// Canonical base register name (OperandKind_Memory)
	Base string
	// Signed displacement added to the base register (OperandKind_Memory)
	Offset int64
	// Referenced label or symbol name (OperandKind_Label)
	Label string
}

// Returns an immediate operand
func Immediate(value int64) Operand {
	return Operand{Kind: OperandKind_Immediate, Value: value}
}

// Returns a general purpose register operand. The name must already be
// canonical; use CanonicalRegister to resolve aliases.
func Register(parent string, width Width) Operand {
	return Operand{Kind: OperandKind_Register, Reg: parent, Width: width}
}

// Returns a wide float register operand
func FloatRegister(index int) Operand {
	return Operand{Kind: OperandKind_FloatRegister, FloatReg: index}
}

// Returns a base+offset memory reference operand
func Memory(base string, offset int64) Operand {
	return Operand{Kind: OperandKind_Memory, Base: base, Offset: offset}
}

// Returns a label reference operand (jump/call targets, rip-relative data)
func LabelRef(name string) Operand {
	return Operand{Kind: OperandKind_Label, Label: name}
}

// Returns the string representation of the operand, in destination-first
// syntax regardless of the dialect it was parsed from
func (o Operand) String() string {
	switch o.Kind {
	case OperandKind_Immediate:
		return strconv.FormatInt(o.Value, 10)
	case OperandKind_Register:
		return o.Reg
	case OperandKind_FloatRegister:
		return FloatRegisterName(o.FloatReg)
	case OperandKind_Memory:
		if o.Offset == 0 {
			return fmt.Sprintf("[%v]", o.Base)
		}
		if o.Offset < 0 {
			return fmt.Sprintf("[%v-%v]", o.Base, -o.Offset)
		}
		return fmt.Sprintf("[%v+%v]", o.Base, o.Offset)
	case OperandKind_Label:
		return o.Label
	}

	panic("unreachable")
}
