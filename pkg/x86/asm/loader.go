package asm

import (
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// SkippedLine records a source line the loader dropped because it matched no
// recognized shape. Loading never fails; skips are reported so callers can
// tell intentionally ignored input from silently broken input.
type SkippedLine struct {
	// 1-based source line number
	Line int
	// The offending text, trimmed
	Text string
}

// LoadReport describes what the loader did with the input text
type LoadReport struct {
	// The dialect actually used (Dialect_Auto resolved)
	Dialect Dialect
	// Lines dropped by the permissive parse policy
	Skipped []SkippedLine
}

// Loader turns assembly text into a normalized Program. It is configured
// once and can load any number of programs.
type Loader struct {
	dialect Dialect
	logger  *slog.Logger
}

// NewLoader creates a loader for the given dialect. A nil logger disables
// diagnostics output.
func NewLoader(dialect Dialect, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{dialect: dialect, logger: logger}
}

// Load parses assembly text into a Program. Malformed lines are dropped and
// reported, never raised: the loader always returns a usable program.
func (l *Loader) Load(text string) (*Program, *LoadReport) {
	dialect := l.dialect
	if dialect == Dialect_Auto {
		dialect = DetectDialect(text)
	}

	program := &Program{
		Labels: make(map[string]int),
		Data:   make(map[string]string),
	}
	report := &LoadReport{Dialect: dialect}

	inData := false

	for lineNumber, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		sourceLine := lineNumber + 1

		// Blank lines and comments
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		// Section and mode directives switch between data and code
		// interpretation and are never emitted as instructions
		if strings.Contains(line, ".data") {
			inData = true
			continue
		}
		if strings.Contains(line, ".text") || strings.Contains(line, ".global") ||
			strings.Contains(line, ".globl") || strings.Contains(line, ".intel_syntax") ||
			strings.Contains(line, ".att_syntax") {
			inData = false
			continue
		}

		if inData {
			// label: literal
			if label, literal, found := strings.Cut(line, ":"); found {
				program.Data[strings.TrimSpace(label)] = strings.TrimSpace(literal)
			}
			continue
		}

		// A code line ending in ':' declares a label pointing at the next
		// instruction index
		if strings.HasSuffix(line, ":") {
			label := strings.TrimSpace(strings.TrimSuffix(line, ":"))
			program.Labels[label] = len(program.Instructions)
			continue
		}

		instruction, ok := parseInstruction(dialect, line, sourceLine)
		if !ok {
			report.Skipped = append(report.Skipped, SkippedLine{Line: sourceLine, Text: line})
			l.logger.Warn("dropped unrecognized assembly line",
				"line", sourceLine,
				"text", line,
				"dialect", dialect.String())
			continue
		}
		program.Instructions = append(program.Instructions, instruction)
	}

	if entry, ok := program.Labels["main"]; ok {
		program.EntryIndex = entry
	}

	return program, report
}

// knownOpcodes is the set of canonical mnemonics the engine implements.
// Anything else still loads but executes as a no-op.
var knownOpcodes = map[string]bool{
	"mov": true, "push": true, "pop": true,
	"add": true, "sub": true, "imul": true, "idiv": true,
	"inc": true, "dec": true, "neg": true,
	"cmp": true, "test": true,
	"jmp": true, "je": true, "jz": true, "jne": true, "jnz": true,
	"jl": true, "jle": true, "jg": true, "jge": true,
	"call": true, "ret": true, "leave": true, "lea": true,
	"sete": true, "setz": true, "setne": true,
	"setl": true, "setle": true, "setg": true, "setge": true,
	"setb": true, "setbe": true, "seta": true, "setae": true,
	"movzx": true, "cdq": true, "cqo": true, "cdqe": true,
	"xor": true, "and": true, "or": true,
	"movsd": true, "addsd": true, "subsd": true, "mulsd": true, "divsd": true,
}

// CanonicalOpcode normalizes a mnemonic: lowercase, zero-extending move
// family folded to movzx, and AT&T size suffixes (q/l/w/b) stripped when the
// stripped form is a known opcode. Unknown mnemonics pass through unchanged.
func CanonicalOpcode(mnemonic string) string {
	opcode := strings.ToLower(mnemonic)

	if knownOpcodes[opcode] {
		return opcode
	}
	// movzbq, movzbl, movzwq... all fold to movzx
	if strings.HasPrefix(opcode, "movz") {
		return "movzx"
	}
	if len(opcode) > 1 {
		switch opcode[len(opcode)-1] {
		case 'q', 'l', 'w', 'b':
			if stripped := opcode[:len(opcode)-1]; knownOpcodes[stripped] {
				return stripped
			}
		}
	}
	return opcode
}

func parseInstruction(dialect Dialect, line string, sourceLine int) (Instruction, bool) {
	mnemonic := strings.Fields(line)[0]
	rest := strings.TrimPrefix(line, mnemonic)

	instruction := Instruction{
		Opcode:     CanonicalOpcode(mnemonic),
		Text:       line,
		SourceLine: sourceLine,
	}

	rest = strings.TrimSpace(rest)
	if rest != "" {
		for _, operandText := range strings.Split(rest, ",") {
			operand, ok := parseOperand(dialect, strings.TrimSpace(operandText))
			if !ok {
				return Instruction{}, false
			}
			instruction.Operands = append(instruction.Operands, operand)
		}
	}

	// AT&T operand order is source-first; the normalized order is
	// destination-first
	if dialect == Dialect_ATT {
		reverse(instruction.Operands)
	}

	return instruction, true
}

func reverse(operands []Operand) {
	for i, j := 0, len(operands)-1; i < j; i, j = i+1, j-1 {
		operands[i], operands[j] = operands[j], operands[i]
	}
}

func parseOperand(dialect Dialect, text string) (Operand, bool) {
	if dialect == Dialect_ATT {
		return parseATTOperand(text)
	}
	return parseIntelOperand(text)
}

var (
	intelMemoryPattern = regexp.MustCompile(`^\[\s*([A-Za-z_.][\w.]*)\s*(?:([+-])\s*([0-9]+)\s*)?\]$`)
	attMemoryPattern   = regexp.MustCompile(`^(-?[0-9]*)\(%([a-z][a-z0-9]*)\)$`)
	attRipPattern      = regexp.MustCompile(`^([A-Za-z_.][\w.]*)\(%rip\)$`)
	symbolPattern      = regexp.MustCompile(`^\.?[A-Za-z_][\w.@]*$`)
)

func parseIntelOperand(text string) (Operand, bool) {
	if text == "" {
		return Operand{}, false
	}

	if value, err := strconv.ParseInt(text, 0, 64); err == nil {
		return Immediate(value), true
	}

	if operand, ok := registerOperand(text); ok {
		return operand, true
	}

	if match := intelMemoryPattern.FindStringSubmatch(text); match != nil {
		base, sign, offsetText := match[1], match[2], match[3]
		if parent, _, ok := CanonicalRegister(base); ok {
			var offset int64
			if offsetText != "" {
				offset, _ = strconv.ParseInt(offsetText, 10, 64)
				if sign == "-" {
					offset = -offset
				}
			}
			return Memory(parent, offset), true
		}
		// [label] is a data reference, not an addressing mode
		return LabelRef(base), true
	}

	if symbolPattern.MatchString(text) {
		return LabelRef(text), true
	}

	return Operand{}, false
}

func parseATTOperand(text string) (Operand, bool) {
	if text == "" {
		return Operand{}, false
	}

	if strings.HasPrefix(text, "$") {
		value, err := strconv.ParseInt(text[1:], 0, 64)
		if err != nil {
			return Operand{}, false
		}
		return Immediate(value), true
	}

	if strings.HasPrefix(text, "%") {
		return registerOperand(text[1:])
	}

	if match := attRipPattern.FindStringSubmatch(text); match != nil {
		return LabelRef(match[1]), true
	}

	if match := attMemoryPattern.FindStringSubmatch(text); match != nil {
		offsetText, base := match[1], match[2]
		parent, _, ok := CanonicalRegister(base)
		if !ok {
			return Operand{}, false
		}
		var offset int64
		if offsetText != "" && offsetText != "-" {
			offset, _ = strconv.ParseInt(offsetText, 10, 64)
		}
		return Memory(parent, offset), true
	}

	if symbolPattern.MatchString(text) {
		return LabelRef(text), true
	}

	return Operand{}, false
}

func registerOperand(name string) (Operand, bool) {
	if parent, width, ok := CanonicalRegister(name); ok {
		return Register(parent, width), true
	}
	if index, ok := FloatRegisterIndex(name); ok {
		return FloatRegister(index), true
	}
	return Operand{}, false
}
