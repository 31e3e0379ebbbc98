package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"strata/internal/runner"
	"strata/pkg/frame"
	"strata/pkg/interp"
)

var (
	accentColor  = lipgloss.Color("#3B82F6")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	warnColor    = lipgloss.Color("#F59E0B")

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	frameHdrStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	scopeStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	varStyle = lipgloss.NewStyle().
			Foreground(successColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

type keyMap struct {
	Step   key.Binding
	Run    key.Binding
	Reset  key.Binding
	Sample key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Step: key.NewBinding(
		key.WithKeys(" ", "s"),
		key.WithHelp("space", "step"),
	),
	Run: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "run to end"),
	),
	Reset: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset"),
	),
	Sample: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next sample"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// runBudget caps "run to end" so a stuck loop cannot wedge the UI.
const runBudget = 100000

type inspectModel struct {
	samples   []runner.SampleInfo
	sampleIdx int

	it  *interp.Interp
	out *bytes.Buffer

	output viewport.Model

	halted bool
	errMsg string

	width  int
	height int
	ready  bool
}

func newInspectModel(sample string) inspectModel {
	m := inspectModel{
		samples: runner.Samples(),
		out:     &bytes.Buffer{},
	}

	for i, s := range m.samples {
		if s.Name == sample {
			m.sampleIdx = i
			break
		}
	}

	m.reload()
	return m
}

func (m *inspectModel) reload() {
	m.out.Reset()
	m.halted = false
	m.errMsg = ""

	prog, _ := runner.Sample(m.samples[m.sampleIdx].Name)
	m.it = interp.New(interp.WithWriter(m.out), interp.WithMaxSteps(runBudget))
	m.it.Load(prog)
}

func (m *inspectModel) step() {
	if m.halted {
		return
	}

	halted, err := m.it.Step()
	if err != nil {
		m.errMsg = err.Error()
		m.halted = true
		return
	}

	m.halted = halted
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width/2 - 4
		h := msg.Height - 8
		if w < 10 {
			w = 10
		}
		if h < 3 {
			h = 3
		}
		if !m.ready {
			m.output = viewport.New(w, h)
			m.ready = true
		} else {
			m.output.Width = w
			m.output.Height = h
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Step):
			m.step()
		case key.Matches(msg, keys.Run):
			for !m.halted {
				m.step()
			}
		case key.Matches(msg, keys.Reset):
			m.reload()
		case key.Matches(msg, keys.Sample):
			m.sampleIdx = (m.sampleIdx + 1) % len(m.samples)
			m.reload()
		}
	}

	if !m.ready {
		return m, nil
	}

	m.output.SetContent(m.out.String())
	m.output.GotoBottom()

	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return m, cmd
}

func (m inspectModel) View() string {
	if !m.ready {
		return "loading..."
	}

	sample := m.samples[m.sampleIdx]
	header := headerStyle.Render(fmt.Sprintf("strata inspector — %s", sample.Name)) +
		mutedStyle.Render(" "+sample.Description)

	status := fmt.Sprintf("steps: %d", m.it.Steps())
	if m.halted {
		status += " · halted"
	}
	if m.errMsg != "" {
		status += " · " + errStyle.Render(m.errMsg)
	}

	frames := panelStyle.Width(m.width/2 - 2).Render(renderActivations(m.it))
	output := panelStyle.Width(m.width/2 - 2).Render(m.output.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, frames, output)

	help := strings.Join([]string{
		helpKeyStyle.Render("space") + helpDescStyle.Render(" step"),
		helpKeyStyle.Render("r") + helpDescStyle.Render(" run"),
		helpKeyStyle.Render("R") + helpDescStyle.Render(" reset"),
		helpKeyStyle.Render("tab") + helpDescStyle.Render(" sample"),
		helpKeyStyle.Render("q") + helpDescStyle.Render(" quit"),
	}, "  ")

	return strings.Join([]string{header, mutedStyle.Render(status), body, help}, "\n")
}

// renderActivations draws the activation stack, innermost frame first,
// with each frame's scopes, value stack, bindings, and pending count.
func renderActivations(it *interp.Interp) string {
	frames := it.Frames()
	if len(frames) == 0 {
		return mutedStyle.Render("<no activations>")
	}

	var b strings.Builder
	for fi := len(frames) - 1; fi >= 0; fi-- {
		f := frames[fi]
		b.WriteString(frameHdrStyle.Render(f.Describe()))
		b.WriteString("\n")

		scopes := f.Scopes()
		for si := len(scopes) - 1; si >= 0; si-- {
			sc := scopes[si]
			b.WriteString("  " + scopeStyle.Render(sc.String()))
			b.WriteString(mutedStyle.Render(fmt.Sprintf(" pending=%d", sc.PendingLen())))
			b.WriteString("\n")

			b.WriteString("    stack " + renderValues(sc.Stack()) + "\n")

			for _, bind := range sc.Bindings() {
				b.WriteString("    " + varStyle.Render(string(bind.Ident)) +
					mutedStyle.Render(" = ") + bind.Slot.String() + "\n")
			}
		}
	}

	return b.String()
}

func renderValues(st *frame.DataStack) string {
	vals := st.Values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%v", v)
	}

	return "[" + strings.Join(parts, " ") + "]"
}

// runInspector opens the step-through TUI on the named sample (or the
// first one when none is given).
func runInspector(sample string) error {
	p := tea.NewProgram(newInspectModel(sample), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
