package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Manu343726/x86sim/pkg/utils"
	"github.com/Manu343726/x86sim/pkg/x86/interpreter"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

var TuiCmd = &cobra.Command{
	Use:   "tui <file>",
	Short: "Run the full-screen debugger interface",
	Long: `Full-screen terminal interface for stepping through a program.

Key bindings:
  n, Right  - Step forward
  p, Left   - Step backward
  r         - Run until termination, breakpoint, or budget
  0         - Reset to the initial state
  q, Esc    - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runTui,
}

// tuiSession groups the widgets refreshed after every transition
type tuiSession struct {
	simulator *interpreter.Simulator

	app       *tview.Application
	source    *tview.TextView
	registers *tview.TextView
	stack     *tview.TextView
	output    *tview.TextView
	status    *tview.TextView
}

func runTui(cmd *cobra.Command, args []string) error {
	simulator, loaded, err := loadSimulator(args[0])
	if err != nil {
		return err
	}

	session := &tuiSession{
		simulator: simulator,
		app:       tview.NewApplication(),
		source:    tview.NewTextView().SetDynamicColors(true),
		registers: tview.NewTextView().SetDynamicColors(true),
		stack:     tview.NewTextView().SetDynamicColors(true),
		output:    tview.NewTextView(),
		status:    tview.NewTextView().SetDynamicColors(true),
	}

	session.source.SetBorder(true).SetTitle(fmt.Sprintf(" Program (%s) ", loaded.Dialect))
	session.registers.SetBorder(true).SetTitle(" Registers ")
	session.stack.SetBorder(true).SetTitle(" Stack ")
	session.output.SetBorder(true).SetTitle(" Output ")

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(session.source, 0, 3, false).
		AddItem(session.output, 0, 1, false)
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(session.registers, 0, 2, false).
		AddItem(session.stack, 0, 1, false)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(left, 0, 3, false).
			AddItem(right, 0, 2, false), 0, 1, false).
		AddItem(session.status, 1, 0, false)

	session.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape,
			event.Rune() == 'q':
			session.app.Stop()
			return nil
		case event.Key() == tcell.KeyRight, event.Rune() == 'n':
			session.simulator.Step()
		case event.Key() == tcell.KeyLeft, event.Rune() == 'p':
			session.simulator.StepBack()
		case event.Rune() == 'r':
			session.simulator.Run(interpreter.NoBreakpoint, stepBudget())
		case event.Rune() == '0':
			session.simulator.Reset()
		default:
			return event
		}
		session.refresh()
		return nil
	})

	session.refresh()
	return session.app.SetRoot(layout, true).Run()
}

// refresh redraws every pane from a fresh state snapshot
func (t *tuiSession) refresh() {
	state := t.simulator.GetState()

	t.source.SetText(t.renderSource(state))
	t.registers.SetText(renderRegisters(state))
	t.stack.SetText(renderStack(state))
	t.output.SetText(strings.Join(state.Output, "\n"))
	t.status.SetText(renderStatus(state))
	t.source.ScrollTo(max(state.Cursor-5, 0), 0)
}

func (t *tuiSession) renderSource(state *interpreter.StateSnapshot) string {
	program := t.simulator.Program()
	if program == nil {
		return ""
	}

	labels := make(map[int][]string)
	for name, index := range program.Labels {
		labels[index] = append(labels[index], name)
	}
	for _, names := range labels {
		sort.Strings(names)
	}

	var builder strings.Builder
	for index, instruction := range program.Instructions {
		for _, name := range labels[index] {
			fmt.Fprintf(&builder, "[aqua]%s:[-]\n", tview.Escape(name))
		}
		marker := "  "
		style := ""
		if index == state.Cursor {
			marker = "=>"
			style = "[black:green]"
		}
		fmt.Fprintf(&builder, "%s%s %3d  %s[-:-]\n",
			style, marker, index, tview.Escape(instruction.Text))
	}
	return builder.String()
}

func renderRegisters(state *interpreter.StateSnapshot) string {
	var builder strings.Builder
	for _, reg := range state.Registers {
		fmt.Fprintf(&builder, "[green]%-3s[-] %20d  [fuchsia]%s[-]\n", reg.Name, reg.Value, reg.Hex)
	}
	builder.WriteString("\n")
	for _, reg := range state.FloatRegisters {
		if reg.Value != 0 {
			fmt.Fprintf(&builder, "[green]%-5s[-] %g\n", reg.Name, reg.Value)
		}
	}
	fmt.Fprintf(&builder, "\nZF=%s SF=%s CF=%s OF=%s",
		flagMark(state.Flags.Zero), flagMark(state.Flags.Sign),
		flagMark(state.Flags.Carry), flagMark(state.Flags.Overflow))
	return builder.String()
}

func flagMark(set bool) string {
	if set {
		return "[green]1[-]"
	}
	return "[gray]0[-]"
}

func renderStack(state *interpreter.StateSnapshot) string {
	var builder strings.Builder
	for _, cell := range state.Stack {
		marker := ""
		if cell.StackPointer {
			marker += " [green]<- rsp[-]"
		}
		if cell.FramePointer {
			marker += " [fuchsia]<- rbp[-]"
		}
		if cell.Float != nil {
			fmt.Fprintf(&builder, "%s %12g%s\n", cell.Hex, *cell.Float, marker)
		} else {
			fmt.Fprintf(&builder, "%s %12d%s\n", cell.Hex, cell.Value, marker)
		}
	}
	return builder.String()
}

func renderStatus(state *interpreter.StateSnapshot) string {
	calls := "-"
	if len(state.CallStack) > 0 {
		calls = utils.FormatSlice(state.CallStack, " > ")
	}
	return fmt.Sprintf(" [yellow]%s[-]  at %d  calls: %s  |  n/p step, r run, 0 reset, q quit",
		tview.Escape(state.Instruction), state.Cursor, calls)
}
