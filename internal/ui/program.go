package ui

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

// staticView renders fixed content once and quits. Listings go through
// Bubble Tea so they share its renderer with the rest of the output
// without taking over the terminal.
type staticView string

func (v staticView) Init() tea.Cmd                       { return tea.Quit }
func (v staticView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }
func (v staticView) View() string                        { return string(v) }

// RenderOnce writes content through a one-shot Bubble Tea program. Input
// is never read.
func RenderOnce(w io.Writer, content string) error {
	if w == nil {
		w = os.Stdout
	}
	_, err := tea.NewProgram(staticView(content), tea.WithOutput(w), tea.WithInput(nil)).Run()
	return err
}

// Printer writes boxes and plans at a fixed width.
type Printer struct {
	out   io.Writer
	width int
}

func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
	p.Println("")
}

func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(NewSuccessResult(title, details).SetWidth(p.width).Render())
}

// PrintPlan prints a titled operation list.
func (p *Printer) PrintPlan(title string, plan opbuilder.Plan) {
	p.Println(ProgressLabelStyle.Render(title))
	p.Println(RenderPlan(plan))
}
