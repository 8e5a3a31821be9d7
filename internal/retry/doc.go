// Package retry implements the retry and timeout policies used by the probes.
//
// A Policy runs an operation a fixed number of times with a backoff between
// failed attempts. The remote shell check needs every attempt to run, since
// only the outcome of the final attempt counts:
//
//	policy := retry.Policy{MaxAttempts: 3, Backoff: retry.BackoffConstant}
//	err := policy.Exhaust(ctx, func(ctx context.Context, attempt int) error {
//	    return dial(ctx)
//	})
//
// ShrinkingTimeouts produces the per-attempt HTTP timeouts, where each timeout
// is derived from the previous one.
package retry
