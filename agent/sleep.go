package agent

import (
	"context"
	"time"

	"github.com/aixgo-dev/amas/internal/observability"
)

// Sleep waits for delay while re-checking the working flag every clock tick.
// It fails with ErrNotWorking when the agent is not working on entry or stops
// during the wait, so a Finish from anywhere cuts a long sleep short within
// one clock interval.
func (a *Agent) Sleep(ctx context.Context, delay time.Duration) error {
	if !a.Working() {
		return a.errNotWorking()
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	ticker := time.NewTicker(a.ClockSpeed())
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return nil
		case <-ticker.C:
			if !a.Working() {
				observability.RecordSleepInterrupted(a.addr)
				return a.errNotWorking()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
