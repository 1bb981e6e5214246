package coordinator

import (
	"context"
	"time"
)

// RunReaper polls the coordinator every period and reaps any job that has
// been running past timeout, until ctx is cancelled. Callers run this in
// its own goroutine; spec.md §4.2 requires period < timeout, which
// engconfig.Load enforces before a Coordinator is ever constructed.
func (c *Coordinator) RunReaper(ctx context.Context, period, timeout time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reapTimedOut(timeout)
		}
	}
}
