package interpreter

import (
	"io"
	"log/slog"

	"github.com/Manu343726/x86sim/pkg/x86/asm"
)

// NoBreakpoint disables the breakpoint check in Run
const NoBreakpoint = -1

// LoadResult describes a loaded program
type LoadResult struct {
	// Index of the first instruction to execute
	EntryIndex int
	// Total executable instructions
	InstructionCount int
	// Dialect the loader actually used
	Dialect asm.Dialect
	// Source lines dropped by the permissive parse policy
	SkippedLines int
}

// StepResult is the outcome of a single forward step
type StepResult struct {
	// Whether execution can logically continue: the engine did not signal
	// termination and the cursor is still within the instruction sequence
	CanContinue bool
}

// Simulator is the execution controller: it owns one Machine, drives the
// engine one instruction at a time, and keeps the undo history that makes
// stepping backward possible. One Simulator represents one session; the
// caller must guarantee exclusive access.
type Simulator struct {
	logger  *slog.Logger
	dialect asm.Dialect

	program *asm.Program
	machine *Machine
	history []machineSnapshot
	diags   Diagnostics
}

// NewSimulator creates an empty simulator. Load must be called before
// stepping. A nil logger disables diagnostics output.
func NewSimulator(logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Simulator{logger: logger, dialect: asm.Dialect_Auto}
}

// SetDialect fixes the operand syntax used by subsequent Load calls.
// The default is automatic detection.
func (s *Simulator) SetDialect(dialect asm.Dialect) {
	s.dialect = dialect
}

// Load parses assembly text and resets the session: fresh machine state,
// cursor at the entry index, empty history, call stack and output. All
// state from a previous load is destroyed.
func (s *Simulator) Load(text string) LoadResult {
	loader := asm.NewLoader(s.dialect, s.logger)
	program, report := loader.Load(text)

	s.program = program
	s.diags = Diagnostics{ParseSkips: len(report.Skipped)}
	s.machine = newMachine(program, &s.diags, s.logger)
	s.history = nil

	return LoadResult{
		EntryIndex:       program.EntryIndex,
		InstructionCount: len(program.Instructions),
		Dialect:          report.Dialect,
		SkippedLines:     len(report.Skipped),
	}
}

// Program returns the loaded program, or nil before the first Load
func (s *Simulator) Program() *asm.Program {
	return s.program
}

// Machine returns the live machine state for inspection
func (s *Simulator) Machine() *Machine {
	return s.machine
}

// Diagnostics returns the accumulated skip counters
func (s *Simulator) Diagnostics() Diagnostics {
	return s.diags
}

// CanStepForward reports whether the cursor is within the instruction
// sequence
func (s *Simulator) CanStepForward() bool {
	return s.machine != nil && s.machine.cursor < len(s.program.Instructions)
}

// CanStepBack reports whether any forward step can be undone
func (s *Simulator) CanStepBack() bool {
	return len(s.history) > 0
}

// Step executes the instruction under the cursor. A complete snapshot is
// pushed to history first, so the step can always be undone. When the
// cursor is already at or past the end nothing happens and CanContinue is
// false.
func (s *Simulator) Step() StepResult {
	if !s.CanStepForward() {
		return StepResult{CanContinue: false}
	}

	s.history = append(s.history, s.machine.snapshot())

	instruction := s.program.Instructions[s.machine.cursor]
	engineContinue := s.machine.Execute(instruction)
	s.machine.cursor++

	return StepResult{CanContinue: engineContinue && s.machine.cursor < len(s.program.Instructions)}
}

// StepBack undoes the most recent forward step by restoring the last
// snapshot atomically. Returns false, with no state change, when the
// history is empty.
func (s *Simulator) StepBack() bool {
	if len(s.history) == 0 {
		return false
	}
	last := len(s.history) - 1
	s.machine.restore(s.history[last])
	s.history = s.history[:last]
	return true
}

// Run steps repeatedly until the cursor reaches breakpoint, the step budget
// is exhausted, or the program halts. The budget bounds runaway loops: the
// call always terminates. Returns the number of steps actually executed.
func (s *Simulator) Run(breakpoint int, budget int) int {
	steps := 0
	for steps < budget {
		if !s.CanStepForward() {
			break
		}
		if s.machine.cursor == breakpoint {
			break
		}
		result := s.Step()
		steps++
		if !result.CanContinue {
			break
		}
	}
	return steps
}

// Reset rewinds to the exact post-load state by undoing every recorded step
func (s *Simulator) Reset() {
	for s.StepBack() {
	}
}
