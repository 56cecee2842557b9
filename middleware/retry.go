package middleware

import (
	"context"
	"time"

	"github.com/status-im/transport-common/clock"
	"github.com/status-im/transport-common/metrics"
	"github.com/status-im/transport-common/retry"
	"github.com/status-im/transport-common/sdkerr"
	"github.com/status-im/transport-common/transport"
)

type retryStageConfig struct {
	config     retry.Config
	classifier retry.Classifier
	backoff    *retry.Backoff
	gate       *retry.ThrottleGate
	clock      clock.Clock
	logger     Logger
	recorder   metrics.Recorder
	random     func() float64
}

// retryStage owns the attempt loop. Attempts within one call are strictly
// sequential; all loop state lives in a per-call attemptState, so concurrent
// calls through the same stack never share mutable retry state.
type retryStage struct {
	next Handler
	cfg  retryStageConfig
}

// attemptState is the per-call mutable state of the retry loop.
type attemptState struct {
	attempt  int
	started  time.Time
	lastErr  error
	lastKind retry.Kind
}

func newRetryStage(next Handler, cfg retryStageConfig) *retryStage {
	return &retryStage{next: next, cfg: cfg}
}

func (s *retryStage) Do(ctx context.Context, req *transport.Request) (*Result, error) {
	maxAttempts := s.cfg.config.MaxAttempts
	backoff := s.cfg.backoff
	if o := OverridesFrom(ctx); o != (Overrides{}) {
		if o.MaxAttempts > 0 {
			maxAttempts = o.MaxAttempts
		}
		if o.retryOverride() {
			cfg := s.cfg.config
			if o.BaseDelay > 0 {
				cfg.BaseDelay = o.BaseDelay
			}
			if o.MaxDelay > 0 {
				cfg.MaxDelay = o.MaxDelay
			}
			if o.Jitter != "" {
				cfg.Jitter = o.Jitter
			}
			backoff = retry.NewBackoff(cfg, s.cfg.random)
		}
	}

	operation := OperationFrom(ctx)
	state := &attemptState{started: s.cfg.clock.Now()}

	for {
		state.attempt++

		// Each attempt dispatches a fresh clone so mutation by one
		// attempt never leaks into the next.
		res, err := s.next.Do(ctx, req.Clone())

		var resp *transport.Response
		if res != nil {
			resp = res.Response
		}
		kind := s.cfg.classifier.Classify(resp, err)

		if kind == retry.KindUnretryable {
			s.cfg.recorder.RecordAttempt(operation, "success")
			return res, nil
		}

		state.lastErr = err
		state.lastKind = kind
		s.cfg.recorder.RecordAttempt(operation, kind.String())

		if kind == retry.KindError {
			return nil, err
		}

		if state.attempt >= maxAttempts {
			return nil, &sdkerr.RetryExhaustedError{Attempts: state.attempt, Err: state.lastErr}
		}

		if kind == retry.KindRetryThrottling && !s.cfg.gate.Allow() {
			s.cfg.logger.Warn("throttle gate empty, abandoning retries",
				"operation", operation, "attempt", state.attempt)
			return nil, &sdkerr.RetryExhaustedError{Attempts: state.attempt, Err: state.lastErr}
		}

		delay := backoff.Delay(kind, state.attempt)
		s.cfg.logger.Debug("retrying after error",
			"operation", operation,
			"attempt", state.attempt,
			"max_attempts", maxAttempts,
			"classification", kind.String(),
			"backoff", delay.String(),
			"error", err)
		s.cfg.recorder.RecordRetry(operation, kind.String())

		if serr := s.cfg.clock.Sleep(ctx, delay); serr != nil {
			// Caller cancelled during backoff; surface the
			// cancellation immediately, bypassing further retries.
			return nil, &sdkerr.DispatchError{
				Err: transport.NewUserError(serr, transport.NoConnection),
			}
		}
	}
}
