package clock

import (
	"context"
	"time"
)

// Clock provides the current time and a cancellable sleep. It exists so that
// backoff delays and deadlines can be driven by a deterministic source in
// tests instead of the wall clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep suspends the calling goroutine for d, or until ctx is done,
	// whichever comes first. It returns ctx.Err() when cancelled early.
	Sleep(ctx context.Context, d time.Duration) error
}

// System is a Clock backed by the runtime wall clock.
type System struct{}

// NewSystem returns a Clock backed by the runtime wall clock.
func NewSystem() Clock {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}

func (System) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
