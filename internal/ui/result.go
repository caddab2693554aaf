package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType selects the box palette.
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

type palette struct {
	marker string
	label  string
	title  lipgloss.Style
	border lipgloss.TerminalColor
}

var palettes = map[ResultType]palette{
	ResultSuccess: {SuccessMarker, "SUCCESS", SuccessTitleStyle, SuccessColor},
	ResultFailure: {FailureMarker, "FAILED", ErrorTitleStyle, ErrorColor},
	ResultWarning: {"⚠", "WARNING", lipgloss.NewStyle().Foreground(WarningColor).Bold(true), WarningColor},
}

// Result is the closing box of a command: what was done to which entity,
// or why it was not.
type Result struct {
	Type    ResultType
	Title   string // "Apply ethernet complete"
	Details map[string]string
	// Body holds preformatted lines shown under the details, e.g. a rule
	// renumbering.
	Body            []string
	Error           error
	Troubleshooting []string
	Width           int
}

// NewSuccessResult creates a success box.
func NewSuccessResult(title string, details map[string]string) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure box listing hints under the error.
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err, Troubleshooting: troubleshooting, Width: GetTerminalWidth()}
}

// NewWarningResult creates a warning box, used when a change went through
// only partially, such as a batch applied without a cache refresh.
func NewWarningResult(title string, details map[string]string) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

func (r *Result) AddDetail(key, value string) *Result {
	if r.Details == nil {
		r.Details = make(map[string]string)
	}
	r.Details[key] = value
	return r
}

// AddBody appends preformatted lines.
func (r *Result) AddBody(lines ...string) *Result {
	r.Body = append(r.Body, lines...)
	return r
}

func (r *Result) Render() string {
	p, ok := palettes[r.Type]
	if !ok {
		p = palettes[ResultSuccess]
	}
	width := max(r.Width, MinTerminalWidth)

	lines := []string{"", p.title.Render(fmt.Sprintf("   %s  %s  ─  %s", p.marker, p.label, r.Title)), ""}
	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}
	if details := renderDetails(r.Details); len(details) > 0 {
		lines = append(lines, details...)
		lines = append(lines, "")
	}
	if len(r.Body) > 0 {
		for _, l := range r.Body {
			lines = append(lines, " "+l)
		}
		lines = append(lines, "")
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, renderHints(r.Troubleshooting, width), "")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(p.border).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

func (r *Result) String() string {
	return r.Render()
}

// renderDetails lists details in key order.
func renderDetails(details map[string]string) []string {
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, ResultKeyStyle.Render("   "+key+":")+" "+ResultValueStyle.Render(details[key]))
	}
	return lines
}

func renderHints(hints []string, width int) string {
	lines := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
	for _, h := range hints {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+h))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}
