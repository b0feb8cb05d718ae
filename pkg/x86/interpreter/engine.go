package interpreter

import (
	"strconv"
	"strings"

	"github.com/Manu343726/x86sim/pkg/x86/asm"
)

// PrintfSymbol is the one simulated library call the engine recognizes.
// Calls to it (exact or PLT-suffixed) append a formatted value to the output
// log instead of transferring control.
const PrintfSymbol = "printf"

// Execute runs one instruction against the machine state and reports whether
// execution should continue. It returns false only when ret pops the zero
// sentinel return address, which marks the return from the entry point.
// Unrecognized opcodes and unresolvable operands execute as no-ops that
// still consume the step.
func (m *Machine) Execute(instruction asm.Instruction) bool {
	switch instruction.Opcode {
	case "mov":
		m.execMov(instruction)
	case "push":
		m.execPush(instruction)
	case "pop":
		m.execPop(instruction)
	case "add", "sub", "imul", "xor", "and", "or":
		m.execBinary(instruction)
	case "idiv":
		m.execDiv(instruction)
	case "inc", "dec", "neg":
		m.execUnary(instruction)
	case "cmp":
		m.execCmp(instruction)
	case "test":
		m.execTest(instruction)
	case "jmp", "je", "jz", "jne", "jnz", "jl", "jle", "jg", "jge":
		m.execJump(instruction)
	case "call":
		m.execCall(instruction)
	case "ret":
		return m.execRet(instruction)
	case "leave":
		m.execLeave()
	case "lea":
		m.execLea(instruction)
	case "sete", "setz", "setne", "setl", "setle", "setg", "setge",
		"setb", "setbe", "seta", "setae":
		m.execSet(instruction)
	case "movzx":
		m.execMovzx(instruction)
	case "cdq", "cqo", "cdqe":
		m.execSignExtend()
	case "movsd":
		m.execMovsd(instruction)
	case "addsd", "subsd", "mulsd", "divsd":
		m.execFloatArith(instruction)
	default:
		m.diags.UnknownOpcodes++
		m.logger.Warn("unrecognized opcode executed as no-op",
			"opcode", instruction.Opcode,
			"line", instruction.SourceLine)
	}
	return true
}

// operands checks the instruction carries at least n operands; a shorter
// operand list is a semantic skip, not a fault
func (m *Machine) operands(instruction asm.Instruction, n int) bool {
	if len(instruction.Operands) < n {
		m.skipOperand(instruction)
		return false
	}
	return true
}

func (m *Machine) skipOperand(instruction asm.Instruction) {
	m.diags.UnresolvedOperands++
	m.logger.Warn("instruction skipped: operand did not resolve",
		"opcode", instruction.Opcode,
		"text", instruction.Text,
		"line", instruction.SourceLine)
}

func (m *Machine) execMov(instruction asm.Instruction) {
	if !m.operands(instruction, 2) {
		return
	}
	value, ok := m.resolve(instruction.Operands[1])
	if !ok || !m.assign(instruction.Operands[0], value) {
		m.skipOperand(instruction)
	}
}

func (m *Machine) execPush(instruction asm.Instruction) {
	if !m.operands(instruction, 1) {
		return
	}
	value, ok := m.resolve(instruction.Operands[0])
	if !ok {
		m.skipOperand(instruction)
		return
	}
	rsp := m.regs["rsp"].Int() - 8
	m.setRegister("rsp", IntValue(rsp))
	m.memory[rsp] = value
}

func (m *Machine) execPop(instruction asm.Instruction) {
	if !m.operands(instruction, 1) {
		return
	}
	rsp := m.regs["rsp"].Int()
	if !m.assign(instruction.Operands[0], m.MemoryAt(rsp)) {
		m.skipOperand(instruction)
		return
	}
	m.setRegister("rsp", IntValue(rsp+8))
}

func (m *Machine) execBinary(instruction asm.Instruction) {
	if !m.operands(instruction, 2) {
		return
	}
	dest, destOK := m.resolve(instruction.Operands[0])
	src, srcOK := m.resolve(instruction.Operands[1])
	if !destOK || !srcOK {
		m.skipOperand(instruction)
		return
	}

	var result int64
	switch instruction.Opcode {
	case "add":
		result = dest.Int() + src.Int()
	case "sub":
		result = dest.Int() - src.Int()
	case "imul":
		result = dest.Int() * src.Int()
	case "xor":
		result = dest.Int() ^ src.Int()
	case "and":
		result = dest.Int() & src.Int()
	case "or":
		result = dest.Int() | src.Int()
	}

	if !m.assign(instruction.Operands[0], IntValue(result)) {
		m.skipOperand(instruction)
		return
	}
	if instruction.Opcode == "xor" {
		m.flags.Zero = result == 0
	}
}

func (m *Machine) execDiv(instruction asm.Instruction) {
	if !m.operands(instruction, 1) {
		return
	}
	divisorValue, ok := m.resolve(instruction.Operands[0])
	if !ok {
		m.skipOperand(instruction)
		return
	}
	divisor := divisorValue.Int()
	if divisor == 0 {
		// Division by zero is a guarded no-op, not a fault
		m.diags.DivisionsByZero++
		m.logger.Warn("integer division by zero ignored", "line", instruction.SourceLine)
		return
	}
	dividend := m.regs["rax"].Int()
	m.setRegister("rax", IntValue(dividend/divisor))
	m.setRegister("rdx", IntValue(dividend%divisor))
}

func (m *Machine) execUnary(instruction asm.Instruction) {
	if !m.operands(instruction, 1) {
		return
	}
	value, ok := m.resolve(instruction.Operands[0])
	if !ok {
		m.skipOperand(instruction)
		return
	}

	var result int64
	switch instruction.Opcode {
	case "inc":
		result = value.Int() + 1
	case "dec":
		result = value.Int() - 1
	case "neg":
		result = -value.Int()
	}

	if !m.assign(instruction.Operands[0], IntValue(result)) {
		m.skipOperand(instruction)
	}
}

func (m *Machine) execCmp(instruction asm.Instruction) {
	if !m.operands(instruction, 2) {
		return
	}
	dest, destOK := m.resolve(instruction.Operands[0])
	src, srcOK := m.resolve(instruction.Operands[1])
	if !destOK || !srcOK {
		m.skipOperand(instruction)
		return
	}

	result := dest.Int() - src.Int()
	m.flags.Zero = result == 0
	m.flags.Sign = result < 0
	m.flags.Carry = uint64(dest.Int()) < uint64(src.Int())
}

func (m *Machine) execTest(instruction asm.Instruction) {
	if !m.operands(instruction, 2) {
		return
	}
	dest, destOK := m.resolve(instruction.Operands[0])
	src, srcOK := m.resolve(instruction.Operands[1])
	if !destOK || !srcOK {
		m.skipOperand(instruction)
		return
	}

	result := dest.Int() & src.Int()
	m.flags.Zero = result == 0
	m.flags.Sign = result < 0
	// carry untouched
}

// jumpTaken evaluates a conditional jump predicate against the flags. The
// overflow flag is never set by this engine, so the signed predicates reduce
// to sign-flag tests.
func (m *Machine) jumpTaken(opcode string) bool {
	f := m.flags
	switch opcode {
	case "jmp":
		return true
	case "je", "jz":
		return f.Zero
	case "jne", "jnz":
		return !f.Zero
	case "jl":
		return f.Sign != f.Overflow
	case "jle":
		return f.Zero || f.Sign != f.Overflow
	case "jg":
		return !f.Zero && f.Sign == f.Overflow
	case "jge":
		return f.Sign == f.Overflow
	}
	return false
}

func (m *Machine) execJump(instruction asm.Instruction) {
	if !m.operands(instruction, 1) {
		return
	}
	target := instruction.Operands[0]
	if target.Kind != asm.OperandKind_Label {
		// indirect jumps are not modeled
		m.skipOperand(instruction)
		return
	}
	if !m.jumpTaken(instruction.Opcode) {
		return
	}
	m.redirect(target.Label, instruction)
}

// redirect moves the cursor to (label index - 1) so that the controller's
// post-step increment lands exactly on the target. A missing label falls
// through to the next instruction.
func (m *Machine) redirect(label string, instruction asm.Instruction) {
	if index, ok := m.program.LabelIndex(label); ok {
		m.cursor = index - 1
		return
	}
	m.diags.UnresolvedJumps++
	m.logger.Warn("control transfer to unknown label fell through",
		"label", label,
		"opcode", instruction.Opcode,
		"line", instruction.SourceLine)
}

func isPrintfSymbol(name string) bool {
	return strings.TrimSuffix(name, "@PLT") == PrintfSymbol
}

func (m *Machine) execCall(instruction asm.Instruction) {
	if !m.operands(instruction, 1) {
		return
	}
	target := instruction.Operands[0]
	if target.Kind != asm.OperandKind_Label {
		m.skipOperand(instruction)
		return
	}

	// Push the return address (the next instruction index) and track the
	// callee for display
	rsp := m.regs["rsp"].Int() - 8
	m.setRegister("rsp", IntValue(rsp))
	m.memory[rsp] = IntValue(int64(m.cursor + 1))
	m.callStack = append(m.callStack, target.Label)

	if isPrintfSymbol(target.Label) {
		m.capturePrintf()
		return
	}
	m.redirect(target.Label, instruction)
}

// capturePrintf simulates the one recognized library call for display
// purposes only. A nonzero rax (the vector-argument count in the real ABI)
// selects the first float register, otherwise the designated integer
// argument register is formatted as a signed decimal.
func (m *Machine) capturePrintf() {
	if m.regs["rax"].Int() != 0 {
		m.output = append(m.output, strconv.FormatFloat(m.xmm[0], 'g', -1, 64))
		return
	}
	m.output = append(m.output, strconv.FormatInt(m.regs["rsi"].Int(), 10))
}

func (m *Machine) execRet(instruction asm.Instruction) bool {
	if len(m.callStack) > 0 {
		m.callStack = m.callStack[:len(m.callStack)-1]
	}

	rsp := m.regs["rsp"].Int()
	returnAddress := m.MemoryAt(rsp).Int()
	m.setRegister("rsp", IntValue(rsp+8))

	if returnAddress == 0 {
		// Zero sentinel: returned from the entry point
		return false
	}
	m.cursor = int(returnAddress) - 1
	return true
}

func (m *Machine) execLeave() {
	base := m.regs["rbp"].Int()
	m.setRegister("rbp", m.MemoryAt(base))
	m.setRegister("rsp", IntValue(base+8))
}

func (m *Machine) execLea(instruction asm.Instruction) {
	if !m.operands(instruction, 2) {
		return
	}
	source := instruction.Operands[1]
	switch source.Kind {
	case asm.OperandKind_Memory:
		if !m.assign(instruction.Operands[0], IntValue(m.address(source))) {
			m.skipOperand(instruction)
		}
	case asm.OperandKind_Label:
		// No real relocation: label addresses are a fixed placeholder
		if !m.assign(instruction.Operands[0], IntValue(PlaceholderAddress)) {
			m.skipOperand(instruction)
		}
	default:
		m.skipOperand(instruction)
	}
}

// setTaken evaluates a set-conditional predicate. The signed family shares
// the jump predicates; the unsigned family reads the carry flag.
func (m *Machine) setTaken(opcode string) bool {
	f := m.flags
	switch opcode {
	case "sete", "setz":
		return f.Zero
	case "setne":
		return !f.Zero
	case "setl":
		return f.Sign != f.Overflow
	case "setle":
		return f.Zero || f.Sign != f.Overflow
	case "setg":
		return !f.Zero && f.Sign == f.Overflow
	case "setge":
		return f.Sign == f.Overflow
	case "setb":
		return f.Carry
	case "setae":
		return !f.Carry
	case "setbe":
		return f.Carry || f.Zero
	case "seta":
		return !f.Carry && !f.Zero
	}
	return false
}

func (m *Machine) execSet(instruction asm.Instruction) {
	if !m.operands(instruction, 1) {
		return
	}
	var result int64
	if m.setTaken(instruction.Opcode) {
		result = 1
	}
	if !m.assign(instruction.Operands[0], IntValue(result)) {
		m.skipOperand(instruction)
	}
}

func (m *Machine) execMovzx(instruction asm.Instruction) {
	if !m.operands(instruction, 2) {
		return
	}
	value, ok := m.resolve(instruction.Operands[1])
	if !ok {
		m.skipOperand(instruction)
		return
	}
	if !m.assign(instruction.Operands[0], IntValue(asm.LowByte(value.Int()))) {
		m.skipOperand(instruction)
	}
}

func (m *Machine) execSignExtend() {
	if m.regs["rax"].Int() < 0 {
		m.setRegister("rdx", IntValue(-1))
		return
	}
	m.setRegister("rdx", IntValue(0))
}

// floatSource resolves the source of a scalar double instruction: a float
// register, a memory slot, or a data-section literal loaded rip-relative
func (m *Machine) floatSource(operand asm.Operand) (float64, bool) {
	switch operand.Kind {
	case asm.OperandKind_FloatRegister:
		return m.xmm[operand.FloatReg], true
	case asm.OperandKind_Memory:
		return m.MemoryAt(m.address(operand)).Float(), true
	case asm.OperandKind_Label:
		if literal, ok := m.program.DataLiteral(operand.Label); ok {
			return parseFloatLiteral(literal)
		}
	}
	return 0, false
}

// parseFloatLiteral reads a data-section literal such as ".double 3.14"
func parseFloatLiteral(literal string) (float64, bool) {
	fields := strings.Fields(literal)
	if len(fields) == 0 {
		return 0, false
	}
	text := fields[0]
	if (text == ".double" || text == ".float") && len(fields) > 1 {
		text = fields[1]
	}
	value, err := strconv.ParseFloat(text, 64)
	return value, err == nil
}

func (m *Machine) execMovsd(instruction asm.Instruction) {
	if !m.operands(instruction, 2) {
		return
	}
	dest, source := instruction.Operands[0], instruction.Operands[1]

	switch dest.Kind {
	case asm.OperandKind_FloatRegister:
		value, ok := m.floatSource(source)
		if !ok {
			m.skipOperand(instruction)
			return
		}
		m.xmm[dest.FloatReg] = value
	case asm.OperandKind_Memory:
		if source.Kind != asm.OperandKind_FloatRegister {
			m.skipOperand(instruction)
			return
		}
		m.memory[m.address(dest)] = FloatValue(m.xmm[source.FloatReg])
	default:
		m.skipOperand(instruction)
	}
}

func (m *Machine) execFloatArith(instruction asm.Instruction) {
	if !m.operands(instruction, 2) {
		return
	}
	dest := instruction.Operands[0]
	if dest.Kind != asm.OperandKind_FloatRegister {
		m.skipOperand(instruction)
		return
	}
	operand, ok := m.floatSource(instruction.Operands[1])
	if !ok {
		m.skipOperand(instruction)
		return
	}

	value := m.xmm[dest.FloatReg]
	switch instruction.Opcode {
	case "addsd":
		value += operand
	case "subsd":
		value -= operand
	case "mulsd":
		value *= operand
	case "divsd":
		if operand == 0 {
			m.diags.DivisionsByZero++
			m.logger.Warn("float division by zero ignored", "line", instruction.SourceLine)
			return
		}
		value /= operand
	}
	m.xmm[dest.FloatReg] = value
}
