package vyosapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// VerificationOptions configures how post-submit verification behaves
type VerificationOptions struct {
	// MaxRetries is the number of re-checks after the first attempt
	// Default: 3
	MaxRetries int

	// InitialDelay gives the router time to commit before the first check
	// Default: 500ms
	InitialDelay time.Duration

	// RetryDelay is the delay between attempts
	// Default: 1s
	RetryDelay time.Duration

	// UseExponentialBackoff doubles the delay after each attempt (up to MaxRetryDelay)
	// Default: true
	UseExponentialBackoff bool

	// MaxRetryDelay caps the delay between attempts
	// Default: 5s
	MaxRetryDelay time.Duration
}

// DefaultVerificationOptions returns sensible defaults for verification
func DefaultVerificationOptions() *VerificationOptions {
	return &VerificationOptions{
		MaxRetries:            3,
		InitialDelay:          500 * time.Millisecond,
		RetryDelay:            1 * time.Second,
		UseExponentialBackoff: true,
		MaxRetryDelay:         5 * time.Second,
	}
}

// VerificationResult contains the results of a verification run
type VerificationResult struct {
	// Success indicates the router state matched on some attempt
	Success bool

	// Attempts is the number of checks made
	Attempts int

	// Mismatches lists what still differed on the last attempt
	Mismatches []string

	// Error is set when verification did not succeed
	Error error
}

// CheckFunc fetches the current state and returns every difference from
// the expected state. An empty result means the state matches.
type CheckFunc func(ctx context.Context) ([]string, error)

var errMismatch = errors.New("configuration mismatch")

// Verify polls check until it reports no mismatches or the attempts run out.
func Verify(ctx context.Context, check CheckFunc, opts *VerificationOptions) *VerificationResult {
	if opts == nil {
		opts = DefaultVerificationOptions()
	}
	result := &VerificationResult{Mismatches: []string{}}

	if opts.InitialDelay > 0 {
		select {
		case <-ctx.Done():
			result.Error = ctx.Err()
			return result
		case <-time.After(opts.InitialDelay):
		}
	}

	var policy backoff.BackOff = backoff.NewConstantBackOff(opts.RetryDelay)
	if opts.UseExponentialBackoff {
		exp := &backoff.ExponentialBackOff{
			InitialInterval:     opts.RetryDelay,
			RandomizationFactor: 0,
			Multiplier:          2,
			MaxInterval:         opts.MaxRetryDelay,
		}
		exp.Reset()
		policy = exp
	}

	var fetchErr error
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		result.Attempts++
		mismatches, err := check(ctx)
		if err != nil {
			fetchErr = fmt.Errorf("attempt %d: failed to retrieve configuration: %w", result.Attempts, err)
			return struct{}{}, fetchErr
		}
		fetchErr = nil
		result.Mismatches = mismatches
		if len(mismatches) > 0 {
			return struct{}{}, errMismatch
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(opts.MaxRetries+1)))

	switch {
	case err == nil:
		result.Success = true
	case fetchErr != nil:
		result.Error = fetchErr
	case errors.Is(err, errMismatch):
		result.Error = fmt.Errorf("verification failed after %d attempts: %s", result.Attempts, formatMismatches(result.Mismatches))
	default:
		result.Error = err
	}
	return result
}

// formatMismatches creates a human-readable summary of mismatches
func formatMismatches(mismatches []string) string {
	switch len(mismatches) {
	case 0:
		return "none"
	case 1:
		return mismatches[0]
	default:
		return fmt.Sprintf("%d mismatches: %s", len(mismatches), strings.Join(mismatches, "; "))
	}
}
