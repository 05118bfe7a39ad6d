package mcp

import (
	"context"
	"time"
)

// MaxWait caps how long wait_for_turn blocks in one call.
const MaxWait = 5 * time.Minute

// waitForTurn blocks until the seat must act, the game ends, ctx ends or
// timeout passes. It reports whether the seat may act now.
func (s *Seat) waitForTurn(ctx context.Context, timeout time.Duration) *ToolResponse {
	if timeout <= 0 || timeout > MaxWait {
		timeout = MaxWait
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		resp := s.peek()
		if resp.YourMove || resp.GameOver {
			return s.respond()
		}
		select {
		case <-s.changes:
		case <-timer.C:
			return s.respond()
		case <-ctx.Done():
			return s.respond()
		}
	}
}
