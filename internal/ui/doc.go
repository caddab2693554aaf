// Package ui renders the vyconsole command output.
//
// Components follow a "run once and exit" pattern: they print styled
// output with Lipgloss but never take over the terminal.
//
//   - Header: banner naming the command, profile and target
//   - Progress: step list for validate, plan, apply and verify
//   - Result: success, warning and failure boxes
//   - Plan: the operations a submit would send, sets and deletes coloured
//   - ResponseBox: the raw API response, for --verbose
//
// Mutating commands wrap their work in a Runner:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "Apply ethernet",
//	    Command: "vyconsole apply ethernet eth0",
//	    Params:  map[string]string{"Profile": "edge"},
//	    Steps:   []string{"Validate", "Apply", "Verify"},
//	})
//
//	_, err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) (map[string]string, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ...
//	    onStep(1, ui.StepComplete, "")
//	    return map[string]string{"Operations": "3"}, nil
//	})
//
// Logging stays silent unless VYCONSOLE_LOG_LEVEL or --log-level is set, so
// this output is not interleaved with zap lines.
package ui
