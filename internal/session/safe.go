package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vyconsole/vyconsole/internal/logging"
	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

// SafeResult contains the results of a safe submit
type SafeResult struct {
	// Success indicates the change was applied and verified
	Success bool

	// Submit is the result of the submission itself
	Submit *Result

	// Verification is the result of checking the device afterwards
	Verification *vyosapi.VerificationResult

	// RollbackAttempted indicates whether the change was reverted
	RollbackAttempted bool

	// RollbackSucceeded is only meaningful when RollbackAttempted is set
	RollbackSucceeded bool

	// Rollback is the result of the revert submission
	Rollback *Result

	// Error contains any error that occurred
	Error error
}

// SafeSubmit submits the form, verifies the device state and reverts the
// change when verification fails.
func (e *editor[E, F]) SafeSubmit(ctx context.Context, opts *vyosapi.VerificationOptions) *SafeResult {
	out := &SafeResult{}

	result, err := e.Submit(ctx)
	out.Submit = result
	if err != nil {
		out.Error = err
		return out
	}
	if !result.Applied {
		out.Success = true
		return out
	}

	out.Verification = e.Verify(ctx, opts)
	if out.Verification.Success {
		out.Success = true
		return out
	}

	logging.Warn("Verification failed, reverting",
		zap.String("category", e.kind.Name),
		zap.String("key", e.key.String()),
		zap.Strings("mismatches", out.Verification.Mismatches))

	out.RollbackAttempted = true
	rollback, err := e.revert(ctx)
	out.Rollback = rollback
	if err != nil {
		out.Error = fmt.Errorf("update failed (verification: %w) AND rollback failed: %w", out.Verification.Error, err)
		return out
	}

	out.RollbackSucceeded = true
	e.prev = e.origin
	e.submitted = nil
	out.Error = fmt.Errorf("update failed (verification: %w), reverted to the previous configuration", out.Verification.Error)
	return out
}

// String returns a human-readable summary of the safe submit result
func (r *SafeResult) String() string {
	switch {
	case r.Success && (r.Submit == nil || !r.Submit.Applied):
		return "✅ No changes to apply"
	case r.Success:
		return fmt.Sprintf("✅ Applied %d operation(s) (verified in %d attempt(s))",
			len(r.Submit.Plan), r.Verification.Attempts)
	case r.RollbackAttempted && r.RollbackSucceeded:
		return fmt.Sprintf("⚠️  Update failed but was reverted\nUpdate error: %v\nRevert: %d operation(s)",
			r.Verification.Error, len(r.Rollback.Plan))
	case r.RollbackAttempted:
		return fmt.Sprintf("❌ Update failed and revert failed\nError: %v", r.Error)
	default:
		return fmt.Sprintf("❌ Update failed\nError: %v", r.Error)
	}
}
