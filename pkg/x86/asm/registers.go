package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// Width is the operand width of a register alias, in bytes
type Width uint

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
	Width64 Width = 8
)

func (w Width) String() string {
	return fmt.Sprintf("%v bits", w.Bits())
}

// Returns the width in bits
func (w Width) Bits() int {
	return int(w) * 8
}

// Returns the bitmask covering the width. Values written through a register
// alias are masked with this before being stored into the parent register.
func (w Width) Mask() uint64 {
	if w >= Width64 {
		return ^uint64(0)
	}
	return (uint64(1) << w.Bits()) - 1
}

// GeneralRegisters lists the canonical 64-bit general purpose registers, in
// display order. Narrower register names are aliases over these; they have no
// storage of their own.
var GeneralRegisters = []string{
	"rax", "rbx", "rcx", "rdx",
	"rsi", "rdi", "rbp", "rsp",
	"r8", "r9", "r10", "r11",
	"r12", "r13", "r14", "r15",
	"rip",
}

// FloatRegisterCount is the number of wide (scalar double) registers
const FloatRegisterCount = 16

type registerAlias struct {
	parent string
	width  Width
}

var gpAliases = buildAliases()

func buildAliases() map[string]registerAlias {
	aliases := make(map[string]registerAlias)

	for _, name := range GeneralRegisters {
		aliases[name] = registerAlias{parent: name, width: Width64}
	}

	// Legacy register families: rax -> eax/ax/al etc.
	legacy := map[string][3]string{
		"rax": {"eax", "ax", "al"},
		"rbx": {"ebx", "bx", "bl"},
		"rcx": {"ecx", "cx", "cl"},
		"rdx": {"edx", "dx", "dl"},
		"rsi": {"esi", "si", "sil"},
		"rdi": {"edi", "di", "dil"},
		"rbp": {"ebp", "bp", "bpl"},
		"rsp": {"esp", "sp", "spl"},
	}
	for parent, names := range legacy {
		aliases[names[0]] = registerAlias{parent: parent, width: Width32}
		aliases[names[1]] = registerAlias{parent: parent, width: Width16}
		aliases[names[2]] = registerAlias{parent: parent, width: Width8}
	}

	// Numbered register families: r8 -> r8d/r8w/r8b
	for i := 8; i <= 15; i++ {
		parent := "r" + strconv.Itoa(i)
		aliases[parent+"d"] = registerAlias{parent: parent, width: Width32}
		aliases[parent+"w"] = registerAlias{parent: parent, width: Width16}
		aliases[parent+"b"] = registerAlias{parent: parent, width: Width8}
	}

	return aliases
}

// CanonicalRegister resolves a general purpose register name of any width to
// its parent 64-bit register and the width of the alias used
func CanonicalRegister(name string) (parent string, width Width, ok bool) {
	alias, ok := gpAliases[strings.ToLower(name)]
	if !ok {
		return "", 0, false
	}
	return alias.parent, alias.width, true
}

// FloatRegisterIndex resolves a wide float register name (xmm0..xmm15)
func FloatRegisterIndex(name string) (int, bool) {
	name = strings.ToLower(name)
	if !strings.HasPrefix(name, "xmm") {
		return 0, false
	}
	index, err := strconv.Atoi(name[len("xmm"):])
	if err != nil || index < 0 || index >= FloatRegisterCount {
		return 0, false
	}
	return index, true
}

// FloatRegisterName returns the display name of a wide float register
func FloatRegisterName(index int) string {
	return "xmm" + strconv.Itoa(index)
}

// IsRegisterName reports whether the name denotes any known register alias,
// general purpose or float
func IsRegisterName(name string) bool {
	if _, _, ok := CanonicalRegister(name); ok {
		return true
	}
	_, ok := FloatRegisterIndex(name)
	return ok
}
