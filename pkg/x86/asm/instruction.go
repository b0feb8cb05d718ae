package asm

import (
	"strings"
)

// Instruction is a single normalized instruction: canonical opcode (size
// suffix stripped), destination-first operands, and the source line it came
// from for display highlighting. Immutable once loaded.
type Instruction struct {
	// Canonical opcode mnemonic
	Opcode string
	// Operands in destination-first order
	Operands []Operand
	// Original source text of the instruction, trimmed
	Text string
	// 1-based line number in the loaded source
	SourceLine int
}

// Returns the normalized string representation of the instruction
func (i Instruction) String() string {
	if len(i.Operands) == 0 {
		return i.Opcode
	}

	operands := make([]string, len(i.Operands))
	for idx, operand := range i.Operands {
		operands[idx] = operand.String()
	}
	return i.Opcode + " " + strings.Join(operands, ", ")
}

// Program is the output of the loader: the executable instruction sequence
// plus the label and static data tables. All fields are read-only after load.
type Program struct {
	// Executable instruction sequence
	Instructions []Instruction
	// Label name to instruction index (not source line)
	Labels map[string]int
	// Data section label to raw textual literal
	Data map[string]string
	// Index of the first instruction to execute (label "main" if present)
	EntryIndex int
}

// DataLiteral looks up a data section literal by label. Labels emitted by
// compilers often carry a leading dot (".STR0") while references may drop it,
// so both spellings are tried.
func (p *Program) DataLiteral(label string) (string, bool) {
	if literal, ok := p.Data[label]; ok {
		return literal, true
	}
	if literal, ok := p.Data["."+label]; ok {
		return literal, true
	}
	if trimmed := strings.TrimPrefix(label, "."); trimmed != label {
		if literal, ok := p.Data[trimmed]; ok {
			return literal, true
		}
	}
	return "", false
}

// LabelIndex looks up the instruction index a label points at
func (p *Program) LabelIndex(label string) (int, bool) {
	index, ok := p.Labels[label]
	return index, ok
}
