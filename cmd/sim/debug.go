package sim

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Manu343726/x86sim/pkg/utils"
	"github.com/Manu343726/x86sim/pkg/x86/interpreter"
	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// =============================================================================
// Color definitions for CLI output
// =============================================================================

var (
	colorReg       = color.New(color.FgGreen)
	colorValue     = color.New(color.FgWhite, color.Bold)
	colorHex       = color.New(color.FgMagenta)
	colorError     = color.New(color.FgRed, color.Bold)
	colorSuccess   = color.New(color.FgGreen)
	colorWarning   = color.New(color.FgYellow)
	colorHeader    = color.New(color.FgWhite, color.Bold, color.Underline)
	colorCursor    = color.New(color.FgGreen, color.Bold)
	colorFlagSet   = color.New(color.FgGreen, color.Bold)
	colorFlagClear = color.New(color.FgHiBlack)
	colorAddr      = color.New(color.FgCyan)
	colorHiBlack   = color.New(color.FgHiBlack)
	colorFunc      = color.New(color.FgHiMagenta, color.Bold)
	colorLabel     = color.New(color.FgHiCyan)
)

var DebugCmd = &cobra.Command{
	Use:   "debug <file>",
	Short: "Run the interactive step debugger",
	Long: `Interactive instruction-level debugger for x86-64 assembly programs.

Commands:
  step, s [n]    - Execute n instructions (default: 1)
  back, b [n]    - Undo n instructions (default: 1)
  run, r [index] - Run until instruction index, budget, or termination
  reset          - Rewind to the initial post-load state
  regs           - Show general purpose registers
  float          - Show nonzero float registers
  flags          - Show condition flags
  stack          - Show occupied stack memory
  out            - Show captured program output
  calls          - Show the call stack
  list, l        - Show the program listing around the cursor
  state          - Dump the full state as YAML
  diag           - Show degraded-operation counters
  help, h        - Show help
  quit, q        - Exit debugger`,
	Args: cobra.ExactArgs(1),
}

func init() {
	DebugCmd.RunE = runDebug
}

var debugCommands = []string{
	"step", "s", "back", "b", "run", "r", "reset",
	"regs", "float", "flags", "stack", "out", "calls",
	"list", "l", "state", "diag",
	"help", "h", "quit", "q", "exit",
}

func runDebug(cmd *cobra.Command, args []string) error {
	simulator, loaded, err := loadSimulator(args[0])
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	fmt.Printf("Loaded %d instructions (%s dialect)\n", loaded.InstructionCount, loaded.Dialect)
	if loaded.SkippedLines > 0 {
		colorWarning.Printf("Skipped %d unparseable lines\n", loaded.SkippedLines)
	}
	fmt.Printf("Entry point: instruction %s\n", colorValue.Sprintf("%d", loaded.EntryIndex))
	colorSuccess.Println("Type 'help' for available commands.")
	fmt.Println()

	// Set up liner for readline support
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(false)

	// Set up tab completion
	line.SetCompleter(func(input string) []string {
		var completions []string
		for _, name := range debugCommands {
			if strings.HasPrefix(name, strings.ToLower(input)) {
				completions = append(completions, name)
			}
		}
		return completions
	})

	// Load history
	historyFile := historyFilePath()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	showCurrentInstruction(simulator)

	lastCommand := ""
	for {
		input, err := line.Prompt("(x86sim) ")
		if err != nil {
			if err == io.EOF {
				colorSuccess.Println("\nExiting debugger.")
				break
			}
			if err == liner.ErrPromptAborted {
				fmt.Println()
				colorWarning.Println("Use 'quit' or 'exit' to leave the debugger.")
				continue
			}
			colorError.Printf("Error reading input: %v\n", err)
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			input = lastCommand
		}
		if input == "" {
			continue
		}
		if input != lastCommand {
			line.AppendHistory(input)
		}
		lastCommand = input

		if !executeDebugCommand(simulator, input) {
			break
		}
	}

	// Save history
	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}

	return nil
}

// historyFilePath returns the path to the debugger history file
func historyFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".x86sim_history"
	}
	return filepath.Join(homeDir, ".x86sim_history")
}

// =============================================================================
// Command parsing and dispatching
// =============================================================================

// executeDebugCommand runs one debugger command. Returns false to exit.
func executeDebugCommand(s *interpreter.Simulator, input string) bool {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "step", "s":
		cmdStep(s, countArg(args, 1))
		showCurrentInstruction(s)

	case "back", "b":
		cmdBack(s, countArg(args, 1))
		showCurrentInstruction(s)

	case "run", "r":
		breakpoint := interpreter.NoBreakpoint
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n >= 0 {
				breakpoint = n
			} else {
				colorError.Printf("Invalid instruction index: %s\n", args[0])
				return true
			}
		}
		steps := s.Run(breakpoint, stepBudget())
		fmt.Printf("Executed %s steps\n", colorValue.Sprintf("%d", steps))
		showCurrentInstruction(s)

	case "reset":
		s.Reset()
		colorSuccess.Println("Session rewound to initial state.")
		showCurrentInstruction(s)

	case "regs":
		showRegisters(s)

	case "float":
		showFloatRegisters(s)

	case "flags":
		showFlags(s)

	case "stack":
		showStack(s)

	case "out":
		showOutput(s)

	case "calls":
		showCallStack(s)

	case "list", "l":
		showListing(s)

	case "state":
		state := s.GetState()
		if err := dumpState(state, "-"); err != nil {
			colorError.Printf("Cannot dump state: %v\n", err)
		}

	case "diag":
		showDiagnostics(s)

	case "help", "h", "?":
		fmt.Println(DebugCmd.Long)

	case "quit", "q", "exit":
		colorSuccess.Println("Exiting debugger.")
		return false

	default:
		colorError.Printf("Unknown command: %s. Type 'help' for available commands.\n", command)
	}

	return true
}

func countArg(args []string, fallback int) int {
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func cmdStep(s *interpreter.Simulator, count int) {
	for i := 0; i < count; i++ {
		if !s.CanStepForward() {
			colorWarning.Println("Program has ended.")
			return
		}
		result := s.Step()
		if !result.CanContinue {
			colorSuccess.Println("Program terminated.")
			return
		}
	}
}

func cmdBack(s *interpreter.Simulator, count int) {
	for i := 0; i < count; i++ {
		if !s.StepBack() {
			colorWarning.Println("Already at the initial state.")
			return
		}
	}
}

// =============================================================================
// State display
// =============================================================================

func showCurrentInstruction(s *interpreter.Simulator) {
	state := s.GetState()
	if state.Instruction == interpreter.EndOfProgram {
		colorHiBlack.Printf("%s [%d] %s\n", colorCursor.Sprint("=>"), state.Cursor, interpreter.EndOfProgram)
		return
	}
	fmt.Printf("%s [%s] %s\n",
		colorCursor.Sprint("=>"),
		colorValue.Sprintf("%d", state.Cursor),
		utils.HighlightAssembly(state.Instruction))
}

func showRegisters(s *interpreter.Simulator) {
	state := s.GetState()
	colorHeader.Println("Registers:")
	for _, reg := range state.Registers {
		line := fmt.Sprintf("  %s = %s (%s)",
			colorReg.Sprintf("%-3s", reg.Name),
			colorValue.Sprintf("%20d", reg.Value),
			colorHex.Sprint(utils.FormatUintHex(uint64(reg.Value), 16)))
		if reg.Float != nil {
			line += colorHiBlack.Sprintf("  [double %g]", *reg.Float)
		}
		fmt.Println(line)
	}
}

func showFloatRegisters(s *interpreter.Simulator) {
	state := s.GetState()
	colorHeader.Println("Float registers:")
	shown := 0
	for _, reg := range state.FloatRegisters {
		if reg.Value == 0 {
			continue
		}
		fmt.Printf("  %s = %s\n",
			colorReg.Sprintf("%-5s", reg.Name),
			colorValue.Sprintf("%g", reg.Value))
		shown++
	}
	if shown == 0 {
		colorHiBlack.Println("  all zero")
	}
}

func showFlags(s *interpreter.Simulator) {
	state := s.GetState()
	formatFlag := func(name string, set bool) string {
		if set {
			return colorFlagSet.Sprint(name)
		}
		return colorFlagClear.Sprint(name)
	}
	fmt.Printf("%s: %s %s %s %s\n",
		colorReg.Sprint("Flags"),
		formatFlag("ZF", state.Flags.Zero),
		formatFlag("SF", state.Flags.Sign),
		formatFlag("CF", state.Flags.Carry),
		formatFlag("OF", state.Flags.Overflow))
}

func showStack(s *interpreter.Simulator) {
	state := s.GetState()
	if len(state.Stack) == 0 {
		colorHiBlack.Println("Stack is empty.")
		return
	}
	colorHeader.Println("Stack:")
	for _, cell := range state.Stack {
		marker := ""
		if cell.StackPointer {
			marker += colorCursor.Sprint(" <- rsp")
		}
		if cell.FramePointer {
			marker += colorFunc.Sprint(" <- rbp")
		}
		offset := ""
		if cell.FrameOffset != nil {
			offset = colorHiBlack.Sprintf(" [rbp%+d]", *cell.FrameOffset)
		}
		value := colorValue.Sprintf("%12d", cell.Value)
		if cell.Float != nil {
			value = colorValue.Sprintf("%12g", *cell.Float)
		}
		fmt.Printf("  %s: %s%s%s\n",
			colorAddr.Sprint(cell.Hex),
			value,
			offset,
			marker)
	}
}

func showOutput(s *interpreter.Simulator) {
	state := s.GetState()
	if len(state.Output) == 0 {
		colorHiBlack.Println("No output captured.")
		return
	}
	colorHeader.Println("Output:")
	for _, line := range state.Output {
		fmt.Printf("  %s\n", line)
	}
}

func showCallStack(s *interpreter.Simulator) {
	state := s.GetState()
	if len(state.CallStack) == 0 {
		colorHiBlack.Println("Call stack is empty.")
		return
	}
	colorHeader.Println("Call stack:")
	for i := len(state.CallStack) - 1; i >= 0; i-- {
		marker := "  "
		if i == len(state.CallStack)-1 {
			marker = colorCursor.Sprint("=>")
		}
		fmt.Printf("%s #%d %s\n", marker, len(state.CallStack)-1-i, colorFunc.Sprint(state.CallStack[i]))
	}
}

func showListing(s *interpreter.Simulator) {
	program := s.Program()
	if program == nil || len(program.Instructions) == 0 {
		colorHiBlack.Println("No program loaded.")
		return
	}

	cursor := s.GetState().Cursor
	const window = 5
	start := max(cursor-window, 0)
	end := min(cursor+window+1, len(program.Instructions))

	labels := make(map[int][]string)
	for name, index := range program.Labels {
		labels[index] = append(labels[index], name)
	}

	for index := start; index < end; index++ {
		for _, name := range labels[index] {
			colorLabel.Printf("%s:\n", name)
		}
		marker := "  "
		if index == cursor {
			marker = colorCursor.Sprint("=>")
		}
		fmt.Printf("%s %s  %s\n",
			marker,
			colorHiBlack.Sprintf("%4d", index),
			utils.HighlightAssembly(program.Instructions[index].Text))
	}
}

func showDiagnostics(s *interpreter.Simulator) {
	diags := s.Diagnostics()
	colorHeader.Println("Degraded operations:")
	fmt.Printf("  Unparseable lines:    %s\n", colorValue.Sprintf("%d", diags.ParseSkips))
	fmt.Printf("  Unknown opcodes:      %s\n", colorValue.Sprintf("%d", diags.UnknownOpcodes))
	fmt.Printf("  Unresolved operands:  %s\n", colorValue.Sprintf("%d", diags.UnresolvedOperands))
	fmt.Printf("  Divisions by zero:    %s\n", colorValue.Sprintf("%d", diags.DivisionsByZero))
	fmt.Printf("  Unresolved jumps:     %s\n", colorValue.Sprintf("%d", diags.UnresolvedJumps))
}
