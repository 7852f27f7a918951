package session

import (
	"context"
	"time"
)

// runTicker sends on tickCh at targetFPS, deadline-based rather than a plain
// time.Ticker: if the previous tick's work overran the budget, the next tick
// fires immediately, but the schedule resets from "now" instead of queueing
// up the missed ticks (spec section 4.5: "no catch-up burst").
func runTicker(ctx context.Context, targetFPS int, tickCh chan<- struct{}) {
	if targetFPS < 1 {
		targetFPS = 1
	}
	period := time.Second / time.Duration(targetFPS)
	next := time.Now().Add(period)
	for {
		wait := time.Until(next)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		select {
		case tickCh <- struct{}{}:
		case <-ctx.Done():
			return
		}
		next = next.Add(period)
		if now := time.Now(); next.Before(now) {
			next = now.Add(period)
		}
	}
}
