package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/status-im/transport-common/clock"
	"github.com/status-im/transport-common/retry"
	"github.com/status-im/transport-common/sdkerr"
	"github.com/status-im/transport-common/transport"
	"github.com/status-im/transport-common/transport/replay"
)

// testRecorder counts recorder events in memory.
type testRecorder struct {
	mu       sync.Mutex
	calls    map[string]int
	attempts map[string]int
	retries  map[string]int
	poisoned int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		calls:    make(map[string]int),
		attempts: make(map[string]int),
		retries:  make(map[string]int),
	}
}

func (r *testRecorder) RecordCall(operation, status string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[status]++
}

func (r *testRecorder) RecordAttempt(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[outcome]++
}

func (r *testRecorder) RecordRetry(operation, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[reason]++
}

func (r *testRecorder) RecordPoisoned(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poisoned++
}

func noJitter(cfg retry.Config) retry.Config {
	cfg.Jitter = retry.JitterNone
	return cfg
}

func testStack(conn transport.Connector, cfg retry.Config) (*Stack, *clock.Manual, *testRecorder) {
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := newTestRecorder()
	stack := NewStack(StackConfig{
		Connector: conn,
		Retry:     noJitter(cfg),
		Clock:     clk,
		Recorder:  rec,
	})
	return stack, clk, rec
}

func newRequest(t *testing.T) *transport.Request {
	t.Helper()
	req, err := transport.NewRequest(http.MethodGet, "https://service.example/items", nil)
	require.NoError(t, err)
	return req
}

func TestStack_RetryExhaustion(t *testing.T) {
	reset := errors.New("connection reset")
	conn := replay.New(
		replay.IOFailure(reset, "c1"),
		replay.IOFailure(reset, "c2"),
		replay.IOFailure(reset, "c3"),
	)
	stack, clk, rec := testStack(conn, retry.Config{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond})

	_, err := stack.Do(context.Background(), newRequest(t))
	require.Error(t, err)

	var exhausted *sdkerr.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)

	// Exactly max_attempts dispatches, every failed connection poisoned.
	assert.Len(t, conn.Requests(), 3)
	assert.Equal(t, []transport.ConnectionID{"c1", "c2", "c3"}, conn.Poisoned())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, clk.Sleeps())
	assert.Equal(t, 1, rec.calls["retry_exhausted"])
}

// IO failures on attempts 1 and 2, success on 3.
func TestStack_SuccessAfterRetries(t *testing.T) {
	reset := errors.New("connection reset")
	conn := replay.New(
		replay.IOFailure(reset, "c1"),
		replay.IOFailure(reset, "c2"),
		replay.OK(http.StatusOK, []byte(`ok`), "c3"),
	)
	stack, clk, rec := testStack(conn, retry.Config{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond})

	res, err := stack.Do(context.Background(), newRequest(t))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Response.StatusCode)
	assert.Len(t, conn.Requests(), 3)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, clk.Sleeps())
	assert.Equal(t, 1, rec.calls["success"])
	assert.Equal(t, 2, rec.retries["retry_explicit"])
}

func TestStack_SuccessOnFirstAttemptStopsImmediately(t *testing.T) {
	conn := replay.New(
		replay.OK(http.StatusOK, nil, "c1"),
		replay.OK(http.StatusOK, nil, "never-used"),
	)
	stack, clk, _ := testStack(conn, retry.Config{MaxAttempts: 5})

	_, err := stack.Do(context.Background(), newRequest(t))
	require.NoError(t, err)

	assert.Len(t, conn.Requests(), 1)
	assert.Equal(t, 1, conn.Remaining())
	assert.Empty(t, clk.Sleeps())
}

func TestStack_UserCancellationBypassesRetryAndPoisoning(t *testing.T) {
	conn := replay.New(replay.Cancelled(context.Canceled, "c1"))
	stack, clk, _ := testStack(conn, retry.Config{MaxAttempts: 5})

	_, err := stack.Do(context.Background(), newRequest(t))
	require.Error(t, err)

	var dispatchErr *sdkerr.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, transport.ErrorKindUser, dispatchErr.Err.Kind)

	assert.Len(t, conn.Requests(), 1)
	assert.Empty(t, conn.Poisoned())
	assert.Empty(t, clk.Sleeps())
}

func TestStack_TimeoutWithSingleAttempt(t *testing.T) {
	conn := replay.New(replay.Timeout(errors.New("read deadline"), "c9"))
	stack, _, _ := testStack(conn, retry.Config{MaxAttempts: 1})

	_, err := stack.Do(context.Background(), newRequest(t))
	require.Error(t, err)

	var exhausted *sdkerr.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, exhausted.Attempts)

	var connErr *transport.ConnectorError
	require.ErrorAs(t, exhausted.Err, &connErr)
	assert.Equal(t, transport.ErrorKindTimeout, connErr.Kind)

	assert.Len(t, conn.Requests(), 1)
	assert.Equal(t, []transport.ConnectionID{"c9"}, conn.Poisoned())
}

func TestStack_ServiceErrorNotRetried(t *testing.T) {
	conn := replay.New(replay.OK(http.StatusBadRequest, []byte(`{"code":"ValidationError"}`), "c1"))
	stack, clk, _ := testStack(conn, retry.Config{MaxAttempts: 3})

	ctx := WithParser(context.Background(), func(resp *transport.Response) (interface{}, error) {
		if resp.StatusCode != http.StatusOK {
			return nil, &sdkerr.ServiceError{Code: "ValidationError", StatusCode: resp.StatusCode}
		}
		return string(resp.Body), nil
	})

	_, err := stack.Do(ctx, newRequest(t))
	require.Error(t, err)

	var svcErr *sdkerr.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "ValidationError", svcErr.Code)

	assert.Len(t, conn.Requests(), 1)
	assert.Empty(t, clk.Sleeps())
}

func TestStack_ThrottlingUsesLargerBackoff(t *testing.T) {
	conn := replay.New(
		replay.OK(http.StatusTooManyRequests, nil, "c1"),
		replay.OK(http.StatusTooManyRequests, nil, "c2"),
		replay.OK(http.StatusOK, []byte("done"), "c3"),
	)
	stack, clk, rec := testStack(conn, retry.Config{
		MaxAttempts:       3,
		BaseDelay:         100 * time.Millisecond,
		ThrottleBaseDelay: 500 * time.Millisecond,
	})

	ctx := WithParser(context.Background(), throttleAwareParser)

	res, err := stack.Do(ctx, newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "done", res.Output)

	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, clk.Sleeps())
	assert.Equal(t, 2, rec.retries["retry_throttling"])
}

func throttleAwareParser(resp *transport.Response) (interface{}, error) {
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &sdkerr.ServiceError{
			Code:       "Throttling",
			StatusCode: resp.StatusCode,
			Throttling: true,
		}
	}
	return string(resp.Body), nil
}

func TestStack_ThrottleGateCutsRetriesShort(t *testing.T) {
	conn := replay.New(
		replay.OK(http.StatusTooManyRequests, nil, "c1"),
		replay.OK(http.StatusTooManyRequests, nil, "c2"),
		replay.OK(http.StatusTooManyRequests, nil, "c3"),
	)
	stack, _, _ := testStack(conn, retry.Config{
		MaxAttempts:        5,
		ThrottleRetryRate:  0.001, // effectively no refill during the test
		ThrottleRetryBurst: 1,
	})

	ctx := WithParser(context.Background(), throttleAwareParser)

	_, err := stack.Do(ctx, newRequest(t))
	require.Error(t, err)

	var exhausted *sdkerr.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	// One retry passed the gate, the second was refused.
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Len(t, conn.Requests(), 2)
}

func TestStack_PerCallMaxAttemptsOverride(t *testing.T) {
	reset := errors.New("connection reset")
	conn := replay.New(
		replay.IOFailure(reset, "c1"),
		replay.IOFailure(reset, "c2"),
		replay.IOFailure(reset, "c3"),
	)
	stack, _, _ := testStack(conn, retry.Config{MaxAttempts: 5})

	ctx := WithOverrides(context.Background(), Overrides{MaxAttempts: 2})

	_, err := stack.Do(ctx, newRequest(t))
	require.Error(t, err)

	var exhausted *sdkerr.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Len(t, conn.Requests(), 2)
}

func TestStack_PerCallBackoffOverride(t *testing.T) {
	reset := errors.New("connection reset")
	conn := replay.New(
		replay.IOFailure(reset, "c1"),
		replay.IOFailure(reset, "c2"),
		replay.OK(http.StatusOK, nil, "c3"),
	)
	stack, clk, _ := testStack(conn, retry.Config{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond})

	ctx := WithOverrides(context.Background(), Overrides{
		BaseDelay: time.Second,
		Jitter:    retry.JitterNone,
	})

	_, err := stack.Do(ctx, newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clk.Sleeps())
}

// cancellingConnector cancels the call's context during its first dispatch,
// as a caller tearing down mid-call would.
type cancellingConnector struct {
	cancel context.CancelFunc
}

func (c *cancellingConnector) Dispatch(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	c.cancel()
	return nil, transport.NewIOError(errors.New("reset"), "c1")
}

func (c *cancellingConnector) Poison(id transport.ConnectionID) {}

func TestStack_CancellationDuringBackoffSurfacesImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := &cancellingConnector{cancel: cancel}
	stack, _, _ := testStack(conn, retry.Config{MaxAttempts: 5})

	_, err := stack.Do(ctx, newRequest(t))
	require.Error(t, err)

	var dispatchErr *sdkerr.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, transport.ErrorKindUser, dispatchErr.Err.Kind)
}

func TestStack_EachAttemptDispatchesFreshClone(t *testing.T) {
	reset := errors.New("connection reset")
	conn := replay.New(
		replay.IOFailure(reset, "c1"),
		replay.OK(http.StatusOK, nil, "c2"),
	)
	stack, _, _ := testStack(conn, retry.Config{MaxAttempts: 2})

	req := newRequest(t)
	req.Header.Set("X-Trace", "abc")

	_, err := stack.Do(context.Background(), req)
	require.NoError(t, err)

	dispatched := conn.Requests()
	require.Len(t, dispatched, 2)
	assert.NotSame(t, dispatched[0], dispatched[1])
	assert.NotSame(t, req, dispatched[0])
	assert.Equal(t, "abc", dispatched[0].Header.Get("X-Trace"))
	assert.Equal(t, "abc", dispatched[1].Header.Get("X-Trace"))
}
