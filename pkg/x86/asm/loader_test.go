package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalOpcode(t *testing.T) {
	cases := map[string]string{
		"mov":    "mov",
		"MOV":    "mov",
		"movq":   "mov",
		"movl":   "mov",
		"addl":   "add",
		"subq":   "sub",
		"pushq":  "push",
		"popq":   "pop",
		"cmpl":   "cmp",
		"movzbl": "movzx",
		"movzbq": "movzx",
		"movzwl": "movzx",
		// mnemonics that end in a suffix letter must not be stripped
		"jl":    "jl",
		"setl":  "setl",
		"movsd": "movsd",
		"call":  "call",
		"idivq": "idiv",
		// unknown mnemonics pass through untouched
		"bogus": "bogus",
	}

	for input, expected := range cases {
		assert.Equal(t, expected, CanonicalOpcode(input), input)
	}
}

func TestParseDialect(t *testing.T) {
	for input, expected := range map[string]Dialect{
		"auto":  Dialect_Auto,
		"":      Dialect_Auto,
		"intel": Dialect_Intel,
		"att":   Dialect_ATT,
		"AT&T":  Dialect_ATT,
		"gas":   Dialect_ATT,
	} {
		dialect, err := ParseDialect(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, dialect, input)
	}

	_, err := ParseDialect("masm")
	assert.Error(t, err)
}

func TestDetectDialect(t *testing.T) {
	t.Run("directive wins", func(t *testing.T) {
		assert.Equal(t, Dialect_Intel, DetectDialect(".intel_syntax noprefix\nmov rax, 1"))
		assert.Equal(t, Dialect_ATT, DetectDialect(".att_syntax\nmov rax, 1"))
	})

	t.Run("att tokens", func(t *testing.T) {
		assert.Equal(t, Dialect_ATT, DetectDialect("movq %rax, %rbx"))
		assert.Equal(t, Dialect_ATT, DetectDialect("movl $5, %eax"))
	})

	t.Run("intel fallback", func(t *testing.T) {
		assert.Equal(t, Dialect_Intel, DetectDialect("mov rax, 5\nadd rax, rbx"))
		assert.Equal(t, Dialect_Intel, DetectDialect(""))
	})
}

func TestLoad_Intel(t *testing.T) {
	source := `
main:
    mov rax, 5
    mov rbx, 3
    add rax, rbx
    mov [rbp-8], rax
    cmp rax, 8
    je done
done:
    ret
`
	loader := NewLoader(Dialect_Intel, nil)
	program, report := loader.Load(source)

	assert.Equal(t, Dialect_Intel, report.Dialect)
	assert.Empty(t, report.Skipped)
	require.Len(t, program.Instructions, 7)

	assert.Equal(t, 0, program.EntryIndex)
	assert.Equal(t, map[string]int{"main": 0, "done": 6}, program.Labels)

	mov := program.Instructions[0]
	assert.Equal(t, "mov", mov.Opcode)
	require.Len(t, mov.Operands, 2)
	assert.Equal(t, Register("rax", Width64), mov.Operands[0])
	assert.Equal(t, Immediate(5), mov.Operands[1])

	store := program.Instructions[3]
	assert.Equal(t, Memory("rbp", -8), store.Operands[0])
	assert.Equal(t, Register("rax", Width64), store.Operands[1])

	jump := program.Instructions[5]
	assert.Equal(t, "je", jump.Opcode)
	assert.Equal(t, LabelRef("done"), jump.Operands[0])
}

func TestLoad_ATT(t *testing.T) {
	source := `
	.text
	.globl main
main:
	pushq %rbp
	movq %rsp, %rbp
	movl $5, %eax
	movq %rax, -8(%rbp)
	movsd .LC0(%rip), %xmm0
	popq %rbp
	ret
	.data
.LC0: .double 1.5
`
	loader := NewLoader(Dialect_ATT, nil)
	program, report := loader.Load(source)

	assert.Equal(t, Dialect_ATT, report.Dialect)
	assert.Empty(t, report.Skipped)
	require.Len(t, program.Instructions, 7)

	// operand order is normalized to destination first
	movRsp := program.Instructions[1]
	assert.Equal(t, "mov", movRsp.Opcode)
	assert.Equal(t, Register("rbp", Width64), movRsp.Operands[0])
	assert.Equal(t, Register("rsp", Width64), movRsp.Operands[1])

	movImm := program.Instructions[2]
	assert.Equal(t, Register("rax", Width32), movImm.Operands[0])
	assert.Equal(t, Immediate(5), movImm.Operands[1])

	store := program.Instructions[3]
	assert.Equal(t, Memory("rbp", -8), store.Operands[0])

	ripLoad := program.Instructions[4]
	assert.Equal(t, "movsd", ripLoad.Opcode)
	assert.Equal(t, FloatRegister(0), ripLoad.Operands[0])
	assert.Equal(t, LabelRef(".LC0"), ripLoad.Operands[1])

	literal, ok := program.DataLiteral(".LC0")
	require.True(t, ok)
	assert.Equal(t, ".double 1.5", literal)
}

func TestLoad_AutoDetection(t *testing.T) {
	loader := NewLoader(Dialect_Auto, nil)

	_, report := loader.Load("movq %rax, %rbx")
	assert.Equal(t, Dialect_ATT, report.Dialect)

	_, report = loader.Load("mov rax, rbx")
	assert.Equal(t, Dialect_Intel, report.Dialect)
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	source := `
main:
    mov rax, 5
    mov rax, ???garbage???
    add rax, 1
`
	loader := NewLoader(Dialect_Intel, nil)
	program, report := loader.Load(source)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "mov rax, ???garbage???", report.Skipped[0].Text)
	assert.Equal(t, 4, report.Skipped[0].Line)

	// the surviving program is still usable
	require.Len(t, program.Instructions, 2)
	assert.Equal(t, "mov", program.Instructions[0].Opcode)
	assert.Equal(t, "add", program.Instructions[1].Opcode)
}

func TestLoad_CommentsAndDirectives(t *testing.T) {
	source := `
# full line comment
; alternative comment
	.globl main
main:
	mov rax, 1
`
	loader := NewLoader(Dialect_Intel, nil)
	program, report := loader.Load(source)

	assert.Empty(t, report.Skipped)
	require.Len(t, program.Instructions, 1)
}

func TestLoad_DataSection(t *testing.T) {
	source := `
.data
.PI: .double 3.14
message: .string "hi"
.text
main:
	ret
`
	loader := NewLoader(Dialect_Intel, nil)
	program, _ := loader.Load(source)

	literal, ok := program.DataLiteral("PI")
	require.True(t, ok)
	assert.Equal(t, ".double 3.14", literal)

	literal, ok = program.DataLiteral("message")
	require.True(t, ok)
	assert.Equal(t, `.string "hi"`, literal)

	_, ok = program.DataLiteral("missing")
	assert.False(t, ok)
}

func TestLoad_EntryDefaultsToZero(t *testing.T) {
	loader := NewLoader(Dialect_Intel, nil)
	program, _ := loader.Load("mov rax, 1\nmov rbx, 2")
	assert.Equal(t, 0, program.EntryIndex)
}

func TestLoad_DialectEquivalence(t *testing.T) {
	intel := `
main:
	mov rax, 5
	add rax, 3
	mov [rbp-8], rax
	ret
`
	att := `
main:
	movq $5, %rax
	addq $3, %rax
	movq %rax, -8(%rbp)
	ret
`
	intelProgram, _ := NewLoader(Dialect_Intel, nil).Load(intel)
	attProgram, _ := NewLoader(Dialect_ATT, nil).Load(att)

	require.Equal(t, len(intelProgram.Instructions), len(attProgram.Instructions))
	for i := range intelProgram.Instructions {
		assert.Equal(t, intelProgram.Instructions[i].Opcode, attProgram.Instructions[i].Opcode)
		assert.Equal(t, intelProgram.Instructions[i].Operands, attProgram.Instructions[i].Operands)
	}
}

func TestInstructionString(t *testing.T) {
	instruction := Instruction{
		Opcode:   "mov",
		Operands: []Operand{Register("rax", Width64), Immediate(5)},
	}
	assert.Equal(t, "mov rax, 5", instruction.String())

	assert.Equal(t, "ret", Instruction{Opcode: "ret"}.String())
}

func TestOperandString(t *testing.T) {
	assert.Equal(t, "[rbp-8]", Memory("rbp", -8).String())
	assert.Equal(t, "[rbp+16]", Memory("rbp", 16).String())
	assert.Equal(t, "[rsp]", Memory("rsp", 0).String())
	assert.Equal(t, "xmm3", FloatRegister(3).String())
	assert.Equal(t, "-42", Immediate(-42).String())
}
