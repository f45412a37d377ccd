package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/etesdev/etes/pkg/types"
)

// waiterCaller is the anonymous caller id the waiters poll under.
const waiterCaller = "waiter"

// DefaultWaiter returns a waiter suited to local end-to-end runs.
func DefaultWaiter() *Waiter {
	return &Waiter{Timeout: 30 * time.Second, Interval: 250 * time.Millisecond}
}

// WaitForExecutable waits until the registry lists the given build commit.
func (w *Waiter) WaitForExecutable(ctx context.Context, client *Client, buildHash string) error {
	return w.wait(ctx, fmt.Sprintf("executable %s", buildHash), func() bool {
		state, err := client.Data(waiterCaller)
		if err != nil {
			return false
		}
		for _, executable := range state.Executables {
			if executable.Hash == buildHash {
				return true
			}
		}
		return false
	})
}

// WaitForServiceState waits until the named service reports the given state.
func (w *Waiter) WaitForServiceState(ctx context.Context, client *Client, name string, state types.ServiceState) error {
	return w.wait(ctx, fmt.Sprintf("service %s to be %s", name, state), func() bool {
		snapshot, err := client.Data(waiterCaller)
		if err != nil {
			return false
		}
		for _, service := range snapshot.Services {
			if service.Name == name && service.State == state {
				return true
			}
		}
		return false
	})
}

// WaitForServiceGone waits until no service with the given name remains.
func (w *Waiter) WaitForServiceGone(ctx context.Context, client *Client, name string) error {
	return w.wait(ctx, fmt.Sprintf("service %s to be gone", name), func() bool {
		snapshot, err := client.Data(waiterCaller)
		if err != nil {
			return false
		}
		for _, service := range snapshot.Services {
			if service.Name == name {
				return false
			}
		}
		return true
	})
}

// WaitForCommitService waits until some service runs the given commit
// and returns its name.
func (w *Waiter) WaitForCommitService(ctx context.Context, client *Client, commit string) (string, error) {
	var name string
	err := w.wait(ctx, fmt.Sprintf("a service for commit %s", commit), func() bool {
		snapshot, err := client.Data(waiterCaller)
		if err != nil {
			return false
		}
		for _, service := range snapshot.Services {
			if service.Executable.Hash == commit || service.Executable.TriggerHash == commit {
				name = service.Name
				return true
			}
		}
		return false
	})
	return name, err
}

// wait polls cond on the waiter's cadence until it holds or the timeout
// passes. The condition is checked once before the first tick.
func (w *Waiter) wait(ctx context.Context, what string, cond func() bool) error {
	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if cond() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s: %w", what, ctx.Err())
		case <-ticker.C:
		}
	}
}
