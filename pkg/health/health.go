package health

import (
	"context"
	"fmt"
	"time"
)

// Result is the outcome of a single readiness check.
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker probes a service once. Implementations must honor context
// cancellation so a bounded wait can be aborted.
type Checker interface {
	Check(ctx context.Context) Result
}

// WaitReady probes with checker up to attempts times, sleeping interval
// between failed attempts. It returns nil on the first healthy result and
// the last failure otherwise. Cancelling ctx aborts the wait early.
func WaitReady(ctx context.Context, checker Checker, attempts int, interval time.Duration) error {
	var last Result

	for i := 0; i < attempts; i++ {
		last = checker.Check(ctx)
		if last.Healthy {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return fmt.Errorf("readiness wait aborted: %w", ctx.Err())
		}
	}

	return fmt.Errorf("not ready after %d attempts: %s", attempts, last.Message)
}
