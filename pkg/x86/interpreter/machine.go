package interpreter

import (
	"log/slog"
	"slices"

	"github.com/Manu343726/x86sim/pkg/x86/asm"
	"golang.org/x/exp/maps"
)

// InitialStackPointer is the synthetic address rsp starts at. The stack grows
// downward from here; addresses are purely symbolic, there is no allocation.
const InitialStackPointer int64 = 0x7fffffffff0

// PlaceholderAddress is the fixed fake address lea materializes for label
// references. No real relocation happens.
const PlaceholderAddress int64 = 0x1000

// Flags holds the four condition flags the engine computes. Only compare,
// test and xor redefine them; nothing clears them implicitly. The overflow
// flag is never set by this engine, so signed relational predicates degrade
// to sign-flag tests, matching the reference behavior.
type Flags struct {
	Zero     bool
	Sign     bool
	Carry    bool
	Overflow bool
}

// Machine is the full mutable state of one execution session: register file,
// flags, sparse memory, call-stack display list, captured output, and the
// execution cursor. A Machine is owned by exactly one Simulator and is not
// safe for concurrent use.
type Machine struct {
	regs      map[string]Value
	xmm       [asm.FloatRegisterCount]float64
	memory    map[int64]Value
	flags     Flags
	callStack []string
	output    []string
	cursor    int

	program *asm.Program
	diags   *Diagnostics
	logger  *slog.Logger
}

func newMachine(program *asm.Program, diags *Diagnostics, logger *slog.Logger) *Machine {
	regs := make(map[string]Value, len(asm.GeneralRegisters))
	for _, name := range asm.GeneralRegisters {
		regs[name] = IntValue(0)
	}
	regs["rsp"] = IntValue(InitialStackPointer)

	return &Machine{
		regs:    regs,
		memory:  make(map[int64]Value),
		cursor:  program.EntryIndex,
		program: program,
		diags:   diags,
		logger:  logger,
	}
}

// Register returns the value of a canonical 64-bit register
func (m *Machine) Register(name string) Value {
	return m.regs[name]
}

// FloatRegister returns the value of a wide float register
func (m *Machine) FloatRegister(index int) float64 {
	return m.xmm[index]
}

// Flags returns the current condition flags
func (m *Machine) Flags() Flags {
	return m.flags
}

// Cursor returns the index of the next instruction to execute
func (m *Machine) Cursor() int {
	return m.cursor
}

// CallStack returns the call-stack display list, innermost call last
func (m *Machine) CallStack() []string {
	return m.callStack
}

// Output returns the captured program output, oldest entry first
func (m *Machine) Output() []string {
	return m.output
}

// MemoryAt reads the sparse memory map. Absent addresses read as zero.
func (m *Machine) MemoryAt(address int64) Value {
	if value, ok := m.memory[address]; ok {
		return value
	}
	return IntValue(0)
}

// OccupiedAddresses returns every address ever written, in descending order
func (m *Machine) OccupiedAddresses() []int64 {
	addresses := maps.Keys(m.memory)
	slices.SortFunc(addresses, func(a, b int64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	return addresses
}

// resolve reads a value from an operand. The boolean is false when the
// operand has no value in this context (for example a label used where a
// register is required); the engine treats that as a semantic skip.
func (m *Machine) resolve(operand asm.Operand) (Value, bool) {
	switch operand.Kind {
	case asm.OperandKind_Immediate:
		return IntValue(operand.Value), true
	case asm.OperandKind_Register:
		// Narrow aliases read the full parent value; truncation for
		// display is the caller's concern
		return m.regs[operand.Reg], true
	case asm.OperandKind_FloatRegister:
		return FloatValue(m.xmm[operand.FloatReg]), true
	case asm.OperandKind_Memory:
		return m.MemoryAt(m.address(operand)), true
	case asm.OperandKind_Label:
		// Data labels resolve to a placeholder zero outside the
		// constant-load paths
		return IntValue(0), true
	}
	return Value{}, false
}

// assign writes a value through an operand. Register writes are masked to
// the alias width and zero-extended into the parent; memory writes store the
// raw value. Returns false when the operand is not writable.
func (m *Machine) assign(operand asm.Operand, value Value) bool {
	switch operand.Kind {
	case asm.OperandKind_Register:
		if value.IsFloat() && operand.Width == asm.Width64 {
			// The float emulation shuttle (movq %xmm0, %rax) parks a
			// double in a general purpose register unmasked
			m.regs[operand.Reg] = value
			return true
		}
		m.regs[operand.Reg] = IntValue(asm.MaskTo(value.Int(), operand.Width))
		return true
	case asm.OperandKind_FloatRegister:
		m.xmm[operand.FloatReg] = value.Float()
		return true
	case asm.OperandKind_Memory:
		m.memory[m.address(operand)] = value
		return true
	}
	return false
}

// address computes the effective address of a memory operand
func (m *Machine) address(operand asm.Operand) int64 {
	return m.regs[operand.Base].Int() + operand.Offset
}

func (m *Machine) setRegister(name string, value Value) {
	m.regs[name] = value
}

// machineSnapshot is a complete deep copy of the mutable state, pushed to
// history before every forward step and restored atomically on step-back
type machineSnapshot struct {
	regs      map[string]Value
	xmm       [asm.FloatRegisterCount]float64
	memory    map[int64]Value
	flags     Flags
	callStack []string
	output    []string
	cursor    int
}

func (m *Machine) snapshot() machineSnapshot {
	return machineSnapshot{
		regs:      maps.Clone(m.regs),
		xmm:       m.xmm,
		memory:    maps.Clone(m.memory),
		flags:     m.flags,
		callStack: slices.Clone(m.callStack),
		output:    slices.Clone(m.output),
		cursor:    m.cursor,
	}
}

func (m *Machine) restore(s machineSnapshot) {
	m.regs = s.regs
	m.xmm = s.xmm
	m.memory = s.memory
	m.flags = s.flags
	m.callStack = s.callStack
	m.output = s.output
	m.cursor = s.cursor
}
