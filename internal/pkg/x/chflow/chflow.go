// Package chflow provides context-aware waiting helpers so that background
// loops respect cancellation and deadlines via context.Context.
package chflow

import (
	"context"
	"time"
)

// Sleep pauses for d or until ctx is done, whichever happens first.
// It returns false if the context ended the wait.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
