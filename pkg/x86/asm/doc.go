package asm

import (
	"fmt"
	"slices"
	"strings"
)

// opcodeDoc describes one supported mnemonic for the documentation dump
type opcodeDoc struct {
	Mnemonic string
	Operands string
	Behavior string
}

var instructionSetDocs = []struct {
	Class   string
	Opcodes []opcodeDoc
}{
	{
		Class: "Data movement",
		Opcodes: []opcodeDoc{
			{"mov", "dest, src", "Copy src to dest, masked to the destination width"},
			{"movzx", "dest, src", "Copy the low byte of src to dest, zero extended"},
			{"lea", "dest, mem|label", "Load the effective address of mem; labels load a fixed placeholder"},
			{"push", "src", "Decrement rsp by 8 and store src at the new rsp"},
			{"pop", "dest", "Load the value at rsp into dest and increment rsp by 8"},
			{"cdq/cqo/cdqe", "", "Sign extend rax into rdx:rax"},
		},
	},
	{
		Class: "Arithmetic and logic",
		Opcodes: []opcodeDoc{
			{"add/sub/imul", "dest, src", "Integer arithmetic on dest and src, result into dest"},
			{"idiv/div", "src", "Divide rax by src: quotient in rax, remainder in rdx; division by zero is a no-op"},
			{"inc/dec/neg", "dest", "Increment, decrement or negate dest in place"},
			{"xor/and/or", "dest, src", "Bitwise operation on dest and src; xor refreshes the zero flag"},
		},
	},
	{
		Class: "Comparison",
		Opcodes: []opcodeDoc{
			{"cmp", "a, b", "Compute a-b and set the zero, sign and carry flags"},
			{"test", "a, b", "Compute a&b and set the zero and sign flags"},
			{"sete/setne/setl/setle/setg/setge", "dest", "Store 1 in dest if the signed predicate holds, 0 otherwise"},
			{"setb/setbe/seta/setae", "dest", "Store 1 in dest if the unsigned predicate holds, 0 otherwise"},
		},
	},
	{
		Class: "Control flow",
		Opcodes: []opcodeDoc{
			{"jmp", "label", "Unconditional jump to label"},
			{"je/jz/jne/jnz/jl/jle/jg/jge", "label", "Conditional jump on the current flags"},
			{"call", "label", "Push the return index, record the callee, and jump; printf calls capture output instead"},
			{"ret", "", "Pop the return index and jump back; a zero return address terminates the program"},
			{"leave", "", "Restore rsp from rbp and pop rbp"},
		},
	},
	{
		Class: "Scalar floating point",
		Opcodes: []opcodeDoc{
			{"movsd", "dest, src", "Copy a double between xmm registers, memory, or a .double constant"},
			{"addsd/subsd/mulsd/divsd", "dest, src", "Double arithmetic on xmm registers; division by zero is a no-op"},
		},
	},
}

// InstructionSetDoc returns a plain-text reference of every supported
// mnemonic, grouped by instruction class
func InstructionSetDoc() string {
	var builder strings.Builder

	builder.WriteString("x86-64 subset instruction reference\n")
	builder.WriteString("===================================\n\n")
	builder.WriteString("Both the Intel-style (dest-first) and AT&T (src-first, %reg, $imm,\n")
	builder.WriteString("size-suffixed mnemonics) syntaxes are accepted. Operands below use the\n")
	builder.WriteString("normalized destination-first order.\n\n")

	for _, class := range instructionSetDocs {
		builder.WriteString(class.Class + "\n")
		builder.WriteString(strings.Repeat("-", len(class.Class)) + "\n")
		for _, op := range class.Opcodes {
			fmt.Fprintf(&builder, "  %-36s %s\n", strings.TrimSpace(op.Mnemonic+" "+op.Operands), op.Behavior)
		}
		builder.WriteString("\n")
	}

	return strings.TrimRight(builder.String(), "\n")
}

// RegisterDoc returns a plain-text reference of the register file
func RegisterDoc() string {
	var builder strings.Builder

	builder.WriteString("Register file\n")
	builder.WriteString("=============\n\n")
	builder.WriteString("General purpose registers are 64-bit cells. Narrow aliases read the\n")
	builder.WriteString("full cell and zero extend on write.\n\n")

	for _, name := range GeneralRegisters {
		var aliases []string
		for alias, canonical := range gpAliases {
			if canonical.parent == name && alias != name {
				aliases = append(aliases, alias)
			}
		}
		slices.Sort(aliases)
		if len(aliases) > 0 {
			fmt.Fprintf(&builder, "  %-4s aliases: %s\n", name, strings.Join(aliases, ", "))
		} else {
			fmt.Fprintf(&builder, "  %s\n", name)
		}
	}

	fmt.Fprintf(&builder, "\n%d scalar float registers: %s..%s\n",
		FloatRegisterCount, FloatRegisterName(0), FloatRegisterName(FloatRegisterCount-1))

	return builder.String()
}
