package interpreter

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRegisters(t *testing.T) {
	s := NewSimulator(nil)
	s.Load(`
main:
    mov rax, 255
`)
	s.Step()

	state := s.GetState()
	require.Len(t, state.Registers, 17)

	byName := make(map[string]RegisterView)
	for _, reg := range state.Registers {
		byName[reg.Name] = reg
	}

	assert.Equal(t, int64(255), byName["rax"].Value)
	assert.Equal(t, "0xff", byName["rax"].Hex)
	assert.Nil(t, byName["rax"].Float)
	assert.Equal(t, InitialStackPointer, byName["rsp"].Value)
}

func TestSnapshotStackOrderingAndPointers(t *testing.T) {
	s := NewSimulator(nil)
	s.Load(`
main:
    push rbp
    mov rbp, rsp
    push 11
    push 22
`)
	s.Run(NoBreakpoint, 100)

	state := s.GetState()
	require.Len(t, state.Stack, 3)

	// occupied addresses are listed in descending order
	for i := 1; i < len(state.Stack); i++ {
		assert.Greater(t, state.Stack[i-1].Address, state.Stack[i].Address)
	}

	top := state.Stack[len(state.Stack)-1]
	assert.Equal(t, int64(22), top.Value)
	assert.True(t, top.StackPointer)
	assert.False(t, top.FramePointer)

	frame := state.Stack[0]
	assert.True(t, frame.FramePointer)
	require.NotNil(t, frame.FrameOffset)
	assert.Equal(t, int64(0), *frame.FrameOffset)

	require.NotNil(t, top.FrameOffset)
	assert.Equal(t, int64(-16), *top.FrameOffset)
}

func TestSnapshotFrameOffsetAbsentWithoutFramePointer(t *testing.T) {
	s := NewSimulator(nil)
	s.Load(`
main:
    push 5
`)
	s.Step()

	state := s.GetState()
	require.Len(t, state.Stack, 1)
	assert.Nil(t, state.Stack[0].FrameOffset)
}

func TestSnapshotInstructionAndEnd(t *testing.T) {
	s := NewSimulator(nil)
	s.Load(`
main:
    mov rax, 1
    mov rbx, 2
`)

	state := s.GetState()
	assert.Equal(t, 0, state.Cursor)
	assert.Equal(t, "mov rax, 1", state.Instruction)
	assert.Equal(t, 3, state.SourceLine)
	assert.False(t, state.CanStepBack)
	assert.True(t, state.CanStepForward)

	s.Step()
	state = s.GetState()
	assert.Equal(t, "mov rbx, 2", state.Instruction)
	assert.True(t, state.CanStepBack)

	s.Step()
	state = s.GetState()
	assert.Equal(t, EndOfProgram, state.Instruction)
	assert.False(t, state.CanStepForward)
}

func TestSnapshotBeforeLoad(t *testing.T) {
	s := NewSimulator(nil)
	state := s.GetState()

	assert.Equal(t, EndOfProgram, state.Instruction)
	assert.Empty(t, state.Registers)
	assert.False(t, state.CanStepForward)
	assert.False(t, state.CanStepBack)
}

func TestSnapshotFloatViews(t *testing.T) {
	s := NewSimulator(nil)
	s.Load(`
main:
	movsd .A(%rip), %xmm0
	movq %xmm0, %rax
	.data
.A: .double 2.5
`)
	s.Run(NoBreakpoint, 100)

	state := s.GetState()
	require.Len(t, state.FloatRegisters, 16)
	assert.Equal(t, "xmm0", state.FloatRegisters[0].Name)
	assert.Equal(t, 2.5, state.FloatRegisters[0].Value)

	for _, reg := range state.Registers {
		if reg.Name == "rax" {
			require.NotNil(t, reg.Float)
			assert.Equal(t, 2.5, *reg.Float)
		}
	}
}

func TestSnapshotSerializesToYAML(t *testing.T) {
	s := NewSimulator(nil)
	s.Load(`
main:
    mov rax, 5
    push rax
`)
	s.Run(NoBreakpoint, 100)

	encoded, err := yaml.Marshal(s.GetState())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(encoded, &decoded))

	assert.Contains(t, decoded, "registers")
	assert.Contains(t, decoded, "flags")
	assert.Contains(t, decoded, "stack")
	assert.Contains(t, decoded, "diagnostics")
	assert.Contains(t, decoded, "can_step_back")
}
