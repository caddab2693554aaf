package ui

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ResponseBox shows a raw API response body in verbose mode.
type ResponseBox struct {
	Title    string
	Content  string
	Width    int
	MaxLines int // 0 = unlimited
}

// NewResponseBox creates a box for body. JSON bodies are indented.
func NewResponseBox(body []byte) *ResponseBox {
	content := string(bytes.TrimSpace(body))
	var buf bytes.Buffer
	if json.Indent(&buf, body, "", "  ") == nil {
		content = buf.String()
	}
	return &ResponseBox{
		Title:   "API Response",
		Content: content,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (r *ResponseBox) SetWidth(width int) *ResponseBox {
	r.Width = width
	return r
}

// SetMaxLines limits the number of lines displayed
func (r *ResponseBox) SetMaxLines(n int) *ResponseBox {
	r.MaxLines = n
	return r
}

// Render returns the styled box. Truncated output ends with a count of the
// hidden lines.
func (r *ResponseBox) Render() string {
	lines := strings.Split(r.Content, "\n")
	if r.MaxLines > 0 && len(lines) > r.MaxLines {
		hidden := len(lines) - r.MaxLines
		lines = append(lines[:r.MaxLines], StepNoteStyle.Render("... "+strconv.Itoa(hidden)+" more lines"))
	}

	body := ResponseTitleStyle.Render(r.Title) + "\n" + ResponseContentStyle.Render(strings.Join(lines, "\n"))
	return ResponseBoxStyle(r.Width).Render(body)
}

// String implements fmt.Stringer
func (r *ResponseBox) String() string {
	return r.Render()
}
