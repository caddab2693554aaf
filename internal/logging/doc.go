// Package logging provides structured logging for vyconsole.
//
// This package wraps a global zap logger. Logging is silent unless a level
// is passed to Initialize or set through VYCONSOLE_LOG_LEVEL, so command
// output stays clean by default.
//
// # Log Levels
//
//   - Debug: request/response bodies, per-request timing
//   - Info: operation plans, submitted batches
//   - Warn: retries, failed requests
//   - Error: failures that abort a command
//
// # Structured Logging
//
//	logging.Info("Batch applied",
//	    zap.String("category", "/vyos/ethernet"),
//	    zap.Int("operations", 3),
//	)
package logging
