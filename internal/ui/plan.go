package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

// Plan markers
const (
	SetMarker    = "+"
	DeleteMarker = "-"
)

// RenderPlan renders operations one per line, sets in green and deletes in
// red, followed by a summary line.
func RenderPlan(plan opbuilder.Plan) string {
	if plan.IsEmpty() {
		return StepPendingStyle.Render("  No changes")
	}

	var b strings.Builder
	for _, op := range plan {
		marker, style := SetMarker, OpSetStyle
		if op.IsDelete() {
			marker, style = DeleteMarker, OpDeleteStyle
		}
		b.WriteString("  ")
		b.WriteString(style.Render(marker + " " + op.Op))
		if op.Value != "" {
			b.WriteString(" ")
			b.WriteString(OpValueStyle.Render(op.Value))
		}
		b.WriteString("\n")
	}
	b.WriteString(StepNoteStyle.Render(fmt.Sprintf("  %d set, %d delete", plan.Sets(), plan.Deletes())))
	return b.String()
}

// RenderMoves renders a rule renumbering as "old → new" lines. Rules whose
// number does not change are omitted.
func RenderMoves[T any](moves []opbuilder.Move[T]) string {
	var lines []string
	for _, m := range moves {
		if m.OldNumber == m.NewNumber {
			continue
		}
		lines = append(lines, fmt.Sprintf("  rule %d → %d", m.OldNumber, m.NewNumber))
	}
	if len(lines) == 0 {
		return StepPendingStyle.Render("  No renumbering")
	}
	return lipgloss.NewStyle().Foreground(WarningColor).Render(strings.Join(lines, "\n"))
}
