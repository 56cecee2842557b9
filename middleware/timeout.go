package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/status-im/transport-common/sdkerr"
	"github.com/status-im/transport-common/transport"
)

// timeoutStage bounds one dispatch attempt with its own deadline. It sits
// inside the retry loop so every attempt gets a fresh budget. Cancellation
// is cooperative: the context deadline abandons the in-flight dispatch at
// its next suspension point, and the layers below have already resolved the
// connection's fate (poisoned) by the time the error reaches here.
type timeoutStage struct {
	next    Handler
	timeout time.Duration
}

func newTimeoutStage(next Handler, timeout time.Duration) *timeoutStage {
	return &timeoutStage{next: next, timeout: timeout}
}

func (s *timeoutStage) Do(ctx context.Context, req *transport.Request) (*Result, error) {
	timeout := s.timeout
	if o := OverridesFrom(ctx); o.AttemptTimeout != 0 {
		timeout = o.AttemptTimeout
	}
	if timeout <= 0 {
		return s.next.Do(ctx, req)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.next.Do(attemptCtx, req)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		// The attempt deadline fired, not the caller's. Surface it as a
		// timeout so the retry layer treats it as retryable.
		return nil, &sdkerr.TimeoutError{Kind: sdkerr.TimeoutKindAttempt, Duration: timeout}
	}
	return res, err
}
