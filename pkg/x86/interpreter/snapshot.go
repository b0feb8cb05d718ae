package interpreter

import (
	"fmt"

	"github.com/Manu343726/x86sim/pkg/x86/asm"
)

// RegisterView is the presentation of one general purpose register
type RegisterView struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
	Hex   string `yaml:"hex"`
	// Set when the slot currently carries a double through the scalar
	// float emulation path
	Float *float64 `yaml:"float,omitempty"`
}

// FloatRegisterView is the presentation of one wide float register
type FloatRegisterView struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// FlagsView is the presentation of the condition flags
type FlagsView struct {
	Zero     bool `yaml:"zf"`
	Sign     bool `yaml:"sf"`
	Carry    bool `yaml:"cf"`
	Overflow bool `yaml:"of"`
}

// MemoryCellView is one occupied address of the simulated stack, annotated
// with its relation to the frame and stack pointers
type MemoryCellView struct {
	Address int64    `yaml:"address"`
	Hex     string   `yaml:"hex"`
	Value   int64    `yaml:"value"`
	Float   *float64 `yaml:"float,omitempty"`
	// Whether the address equals the current frame pointer
	FramePointer bool `yaml:"is_rbp"`
	// Whether the address equals the current stack pointer
	StackPointer bool `yaml:"is_rsp"`
	// Offset of the address from the frame pointer, present when a frame
	// pointer is set
	FrameOffset *int64 `yaml:"frame_offset,omitempty"`
}

// StateSnapshot is the read-only view of the session handed to front-ends
// after every transition. The memory view lists every occupied address in
// descending order.
type StateSnapshot struct {
	Registers      []RegisterView      `yaml:"registers"`
	FloatRegisters []FloatRegisterView `yaml:"float_registers"`
	Flags          FlagsView           `yaml:"flags"`
	Stack          []MemoryCellView    `yaml:"stack"`
	Cursor         int                 `yaml:"current_instruction"`
	Instruction    string              `yaml:"instruction"`
	SourceLine     int                 `yaml:"source_line"`
	CallStack      []string            `yaml:"call_stack"`
	Output         []string            `yaml:"output"`
	CanStepBack    bool                `yaml:"can_step_back"`
	CanStepForward bool                `yaml:"can_step_forward"`
	Diagnostics    Diagnostics         `yaml:"diagnostics"`
}

// EndOfProgram is the instruction text shown once the cursor passes the
// last instruction
const EndOfProgram = "END"

// GetState builds the presentation snapshot of the current session state
func (s *Simulator) GetState() *StateSnapshot {
	snapshot := &StateSnapshot{Instruction: EndOfProgram}
	if s.machine == nil {
		return snapshot
	}

	m := s.machine

	for _, name := range asm.GeneralRegisters {
		value := m.regs[name]
		view := RegisterView{
			Name:  name,
			Value: value.Int(),
			Hex:   fmt.Sprintf("0x%x", uint64(value.Int())),
		}
		if value.IsFloat() {
			real := value.Float()
			view.Float = &real
		}
		snapshot.Registers = append(snapshot.Registers, view)
	}

	for index := 0; index < asm.FloatRegisterCount; index++ {
		snapshot.FloatRegisters = append(snapshot.FloatRegisters, FloatRegisterView{
			Name:  asm.FloatRegisterName(index),
			Value: m.xmm[index],
		})
	}

	snapshot.Flags = FlagsView{
		Zero:     m.flags.Zero,
		Sign:     m.flags.Sign,
		Carry:    m.flags.Carry,
		Overflow: m.flags.Overflow,
	}

	framePointer := m.regs["rbp"].Int()
	stackPointer := m.regs["rsp"].Int()
	for _, address := range m.OccupiedAddresses() {
		value := m.MemoryAt(address)
		cell := MemoryCellView{
			Address:      address,
			Hex:          fmt.Sprintf("0x%x", uint64(address)),
			Value:        value.Int(),
			FramePointer: address == framePointer,
			StackPointer: address == stackPointer,
		}
		if value.IsFloat() {
			real := value.Float()
			cell.Float = &real
		}
		if framePointer != 0 {
			offset := address - framePointer
			cell.FrameOffset = &offset
		}
		snapshot.Stack = append(snapshot.Stack, cell)
	}

	snapshot.Cursor = m.cursor
	if m.cursor < len(s.program.Instructions) {
		current := s.program.Instructions[m.cursor]
		snapshot.Instruction = current.Text
		snapshot.SourceLine = current.SourceLine
	}

	snapshot.CallStack = append([]string(nil), m.callStack...)
	snapshot.Output = append([]string(nil), m.output...)
	snapshot.CanStepBack = s.CanStepBack()
	snapshot.CanStepForward = s.CanStepForward()
	snapshot.Diagnostics = s.diags

	return snapshot
}
