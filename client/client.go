// Package client exposes the single entry point generated service clients
// consume: build a Client once, then Call it with operations. The middleware
// pipeline is composed at construction time and reused across calls; each
// call runs through it with its own fresh attempt state.
package client

import (
	"context"
	"errors"
	"time"

	"github.com/status-im/transport-common/clock"
	"github.com/status-im/transport-common/metrics"
	"github.com/status-im/transport-common/middleware"
	"github.com/status-im/transport-common/sdkerr"
	"github.com/status-im/transport-common/transport"
)

// Client is the facade over the composed transport pipeline. Safe for
// concurrent use.
type Client struct {
	stack            *middleware.Stack
	connector        transport.Connector
	ownConnector     bool
	operationTimeout time.Duration
}

// New assembles a Client. Without WithConnector it owns an HTTP connector
// built from the given settings, torn down by Close.
func New(opts ...Option) *Client {
	o := &options{
		settings: transport.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.retryConfig.ApplyDefaults()
	if o.clock == nil {
		o.clock = clock.NewSystem()
	}
	if o.logger == nil {
		o.logger = middleware.NoopLogger{}
	}
	if o.recorder == nil {
		o.recorder = metrics.NewNoopRecorder()
	}

	connector := o.connector
	ownConnector := false
	if connector == nil {
		connector = transport.NewHTTPConnector(o.settings, o.clock)
		ownConnector = true
	}

	stack := middleware.NewStack(middleware.StackConfig{
		Connector:      connector,
		Retry:          o.retryConfig,
		Classifier:     o.classifier,
		Clock:          o.clock,
		Logger:         o.logger,
		Recorder:       o.recorder,
		AttemptTimeout: o.attemptTimeout,
		Random:         o.random,
	})

	return &Client{
		stack:            stack,
		connector:        connector,
		ownConnector:     ownConnector,
		operationTimeout: o.operationTimeout,
	}
}

// Call executes one logical operation through the pipeline and returns its
// parsed output. On failure the error is exactly one of the sdkerr types.
func (c *Client) Call(ctx context.Context, op Operation, opts ...CallOption) (interface{}, error) {
	req, err := op.BuildRequest()
	if err != nil {
		return nil, &sdkerr.ConstructionError{Err: err}
	}

	cc := callConfig{operationTimeout: c.operationTimeout}
	for _, opt := range opts {
		opt(&cc)
	}

	callCtx := middleware.WithOperation(ctx, op.Name())
	callCtx = middleware.WithParser(callCtx, op.ParseResponse)
	if cc.overrides != (middleware.Overrides{}) {
		callCtx = middleware.WithOverrides(callCtx, cc.overrides)
	}

	opCtx := callCtx
	if cc.operationTimeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(callCtx, cc.operationTimeout)
		defer cancel()
	}

	res, err := c.stack.Do(opCtx, req)
	if err != nil {
		if cc.operationTimeout > 0 &&
			errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &sdkerr.TimeoutError{
				Kind:     sdkerr.TimeoutKindOperation,
				Duration: cc.operationTimeout,
			}
		}
		return nil, err
	}
	return res.Output, nil
}

// Close releases the client-owned connector. A client built around a caller
// supplied connector leaves it alone.
func (c *Client) Close() {
	if !c.ownConnector {
		return
	}
	if closer, ok := c.connector.(interface{ Close() }); ok {
		closer.Close()
	}
}
