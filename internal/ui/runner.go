package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

// RunnerConfig holds configuration for a mutating command
type RunnerConfig struct {
	Title   string            // e.g., "Apply ethernet"
	Command string            // e.g., "vyconsole apply ethernet eth0"
	Params  map[string]string // Shown in the header
	Steps   []string          // Step names, in order
	Verbose bool              // Show the raw API response after the result
	Output  io.Writer         // Defaults to os.Stdout
}

// Operation is the work a Runner wraps. It reports progress through onStep
// and returns details for the success box.
type Operation func(ctx context.Context, onStep StepCallback) (map[string]string, error)

// Runner prints a header, streams step progress while the operation runs,
// then prints a success or failure box.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer
	response []byte
	body     []string
	width    int
}

// NewRunner creates a runner for one command execution
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	var progress *Progress
	if len(config.Steps) > 0 {
		progress = NewProgress("", config.Steps...).SetWidth(width)
	}

	return &Runner{
		config:   config,
		header:   NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		progress: progress,
		output:   config.Output,
		width:    width,
	}
}

// SetResponse stores the raw API response for verbose display
func (r *Runner) SetResponse(body []byte) {
	r.response = body
}

// SetBody adds preformatted lines to the result box.
func (r *Runner) SetBody(lines ...string) {
	r.body = lines
}

// Run executes op between the header and the result box. The error from op
// is returned unchanged.
func (r *Runner) Run(ctx context.Context, op Operation) (map[string]string, error) {
	start := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := op(ctx, r.onStep)
	duration := time.Since(start).Round(time.Millisecond)

	// Details alongside an error mean the change went through partially.
	var result *Result
	switch {
	case err != nil && details != nil:
		result = NewWarningResult(r.config.Title+" incomplete", details).AddDetail("Problem", err.Error())
	case err != nil:
		result = NewFailureResult(r.config.Title+" failed", err, Troubleshooting(err))
	default:
		result = NewSuccessResult(r.config.Title+" complete", details)
	}
	result.AddDetail("Duration", duration.String()).AddBody(r.body...)
	_, _ = fmt.Fprintln(r.output)
	_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())

	if r.config.Verbose && len(r.response) > 0 {
		_, _ = fmt.Fprintln(r.output)
		_, _ = fmt.Fprintln(r.output, NewResponseBox(r.response).SetWidth(r.width).Render())
	}
	return details, err
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	if r.progress == nil || stepNumber < 1 || stepNumber > r.progress.Total() {
		return
	}
	r.progress.UpdateStep(stepNumber, status, message)

	line := r.progress.renderStepLine(r.progress.Steps[stepNumber-1])
	if status == StepRunning {
		// Overwritten by the final state of the step.
		_, _ = fmt.Fprint(r.output, line+"\r")
		return
	}
	_, _ = fmt.Fprintln(r.output, line)
}

// Troubleshooting turns the API client's hint for err into bullet tips.
func Troubleshooting(err error) []string {
	hint := vyosapi.GetTroubleshootingHint(err)
	var tips []string
	for _, line := range strings.Split(hint, "\n") {
		if tip, ok := strings.CutPrefix(strings.TrimSpace(line), "• "); ok {
			tips = append(tips, tip)
		}
	}
	if len(tips) == 0 {
		tips = []string{hint}
	}
	return tips
}
