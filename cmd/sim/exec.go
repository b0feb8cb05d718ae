package sim

import (
	"fmt"
	"os"

	"github.com/Manu343726/x86sim/pkg/x86/interpreter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	execMaxSteps   int
	execBreakpoint int
	execDumpState  string
	execVerbose    bool
)

var ExecCmd = &cobra.Command{
	Use:   "exec <file>",
	Short: "Execute an x86-64 assembly program",
	Long: `Loads and executes an x86-64 assembly program to completion.

The file may use either the Intel-style or the AT&T (GAS) syntax; by default
the dialect is detected from directives and operand tokens. Execution stops
when the program returns from its entry function, when the cursor runs past
the last instruction, or when the step budget is exhausted.

Captured printf output is written to stdout, one call per line.

Example:
  x86sim exec program.s
  x86sim exec --dialect att --dump-state final.yaml program.s`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	ExecCmd.Flags().IntVarP(&execMaxSteps, "max-steps", "n", 0, "Maximum number of steps to execute (0 = configured budget)")
	ExecCmd.Flags().IntVarP(&execBreakpoint, "breakpoint", "b", interpreter.NoBreakpoint, "Stop before executing this instruction index")
	ExecCmd.Flags().StringVar(&execDumpState, "dump-state", "", "Write the final machine state as YAML to this file ('-' for stdout)")
	ExecCmd.Flags().BoolVarP(&execVerbose, "verbose", "v", false, "Print execution details")
}

func runExec(cmd *cobra.Command, args []string) error {
	simulator, loaded, err := loadSimulator(args[0])
	if err != nil {
		return err
	}

	if execVerbose {
		fmt.Fprintf(os.Stderr, "Loaded %d instructions (%s dialect), entry at index %d\n",
			loaded.InstructionCount, loaded.Dialect, loaded.EntryIndex)
		if loaded.SkippedLines > 0 {
			fmt.Fprintf(os.Stderr, "Skipped %d unparseable lines\n", loaded.SkippedLines)
		}
	}

	budget := execMaxSteps
	if budget <= 0 {
		budget = stepBudget()
	}

	steps := simulator.Run(execBreakpoint, budget)

	state := simulator.GetState()

	if execVerbose {
		fmt.Fprintf(os.Stderr, "Executed %d steps, stopped at instruction %d (%s)\n",
			steps, state.Cursor, state.Instruction)
		if total := state.Diagnostics.Total(); total > 0 {
			fmt.Fprintf(os.Stderr, "Degraded operations: %d\n", total)
		}
	}

	for _, line := range state.Output {
		fmt.Println(line)
	}

	if execDumpState != "" {
		if err := dumpState(state, execDumpState); err != nil {
			return err
		}
	}

	return nil
}

func dumpState(state *interpreter.StateSnapshot, path string) error {
	encoded, err := yaml.Marshal(state)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(encoded)
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}
