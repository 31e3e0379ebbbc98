package runner

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"strata/pkg/frame"
	"strata/pkg/interp"
)

var (
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	instrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	frameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	stackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
)

// Runner holds the command-line options and drives one sample program
// through the interpreter.
type Runner struct {
	Help        bool   // Show help message
	Verbose     bool   // Enable verbose output
	NoColor     bool   // Disable colored output
	Trace       bool   // Print a per-step execution trace
	Inspect     bool   // Open the interactive inspector (handled in cmd)
	ListSamples bool   // List built-in samples and exit
	MaxSteps    int    // Step budget, 0 = unlimited
	Sample      string // Name of the sample to run

	Out io.Writer // defaults to stdout
}

// Run executes the selected sample, optionally tracing every step.
func (r *Runner) Run() error {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	if r.ListSamples {
		for _, s := range Samples() {
			fmt.Fprintf(out, "%-12s %s\n", s.Name, s.Description)
		}
		return nil
	}

	prog, ok := Sample(r.Sample)
	if !ok {
		names := make([]string, 0, len(Samples()))
		for _, s := range Samples() {
			names = append(names, s.Name)
		}
		return fmt.Errorf("unknown sample %q (have: %s)", r.Sample, strings.Join(names, ", "))
	}

	log.Info("Running sample", "name", prog.Name, "instructions", len(prog.Code))

	it := interp.New(interp.WithWriter(out), interp.WithMaxSteps(r.MaxSteps))
	it.Load(prog)

	if !r.Trace {
		if err := it.Run(); err != nil {
			return fmt.Errorf("interpretation failed: %w", err)
		}
		fmt.Fprintf(out, "%s %s\n", r.style(resultStyle, "=>"), it.Result())
		return nil
	}

	for {
		next := r.nextInstr(it)
		halted, err := it.Step()
		if err != nil {
			return fmt.Errorf("interpretation failed: %w", err)
		}

		fmt.Fprintf(out, "%s %s %s%s\n",
			r.style(stepStyle, fmt.Sprintf("%4d", it.Steps())),
			r.style(instrStyle, fmt.Sprintf("%-24s", next)),
			r.style(frameStyle, r.topFrame(it)),
			r.style(stackStyle, r.topStack(it)))

		if halted {
			break
		}
	}

	fmt.Fprintf(out, "%s %s\n", r.style(resultStyle, "=>"), it.Result())
	return nil
}

// nextInstr renders the instruction about to execute
func (r *Runner) nextInstr(it *interp.Interp) string {
	frames := it.Frames()
	if len(frames) == 0 {
		return "<halt>"
	}

	f := frames[len(frames)-1]
	if !f.HasPending() {
		return "<return>"
	}

	sc := f.CurrentScope()
	if sc == nil {
		return "<return>"
	}

	if pending := sc.Pending(); len(pending) > 0 {
		return fmt.Sprintf("%v", pending[0])
	}

	return "<return>"
}

func (r *Runner) topFrame(it *interp.Interp) string {
	frames := it.Frames()
	if len(frames) == 0 {
		return "<done>"
	}

	f := frames[len(frames)-1]
	return fmt.Sprintf("%s depth=%d", f.Describe(), f.Depth())
}

func (r *Runner) topStack(it *interp.Interp) string {
	frames := it.Frames()
	if len(frames) == 0 {
		return ""
	}

	sc := frames[len(frames)-1].CurrentScope()
	if sc == nil {
		return ""
	}

	return fmt.Sprintf(" stack=%s", renderStack(sc.Stack()))
}

func (r *Runner) style(s lipgloss.Style, text string) string {
	if r.NoColor {
		return text
	}

	return s.Render(text)
}

func renderStack(st *frame.DataStack) string {
	vals := st.Values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%v", v)
	}

	return "[" + strings.Join(parts, " ") + "]"
}
