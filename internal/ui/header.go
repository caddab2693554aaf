package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the banner printed before a mutating command: what is being
// changed, on which router.
type Header struct {
	Title   string            // e.g., "Apply ethernet"
	Command string            // e.g., "vyconsole apply ethernet eth0"
	Params  map[string]string // e.g., {"Profile": "edge", "Target": "https://router.lan:8443"}
	Width   int               // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string. Params are listed in key
// order with their values aligned.
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(h.Params) > 0 {
		dividerWidth := width - 6
		if dividerWidth < 10 {
			dividerWidth = 10
		}
		divider := RenderHorizontalDivider(dividerWidth, "─")
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, renderParams(h.Params))
	}

	return HeaderBorderStyle(width).Render(content)
}

func renderParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	pad := 0
	for key := range params {
		keys = append(keys, key)
		if len(key) > pad {
			pad = len(key)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		label := key + ":" + strings.Repeat(" ", pad-len(key))
		lines = append(lines, HeaderParamKeyStyle.Render(label)+" "+HeaderParamValueStyle.Render(params[key]))
	}
	return strings.Join(lines, "\n")
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
