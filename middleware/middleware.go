// Package middleware composes the transport core's cross-cutting layers
// around a raw connector dispatch. Every layer implements the same Handler
// contract so layers nest uniformly; the stack is built once at client
// construction time and the required ordering is enforced structurally by
// NewStack, never by convention at call sites.
package middleware

import (
	"context"
	"time"

	"github.com/status-im/transport-common/clock"
	"github.com/status-im/transport-common/metrics"
	"github.com/status-im/transport-common/retry"
	"github.com/status-im/transport-common/transport"
)

// Result is the outcome of one pipeline invocation. Response is the raw
// exchange; Output is the parsed value filled in by the parse stage when the
// call carries a parser.
type Result struct {
	Response *transport.Response
	Output   interface{}
}

// Handler is the uniform contract every layer implements. A layer may
// inspect or transform the request before calling inward and the result
// after the inward call returns; it never reaches into another layer's
// state.
type Handler interface {
	Do(ctx context.Context, req *transport.Request) (*Result, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *transport.Request) (*Result, error)

func (f HandlerFunc) Do(ctx context.Context, req *transport.Request) (*Result, error) {
	return f(ctx, req)
}

// StackConfig carries everything NewStack needs to assemble the pipeline.
type StackConfig struct {
	Connector      transport.Connector
	Retry          retry.Config
	Classifier     retry.Classifier
	Clock          clock.Clock
	Logger         Logger
	Recorder       metrics.Recorder
	AttemptTimeout time.Duration
	// Random drives backoff jitter; nil means math/rand.
	Random func() float64
}

// Stack is the fully composed pipeline. It is immutable after construction
// and safe for concurrent calls; every invocation carries its own attempt
// state.
type Stack struct {
	handler Handler
}

// NewStack wires the layers in their load-bearing order, outermost first:
//
//	tracing -> retry -> attempt timeout -> parse -> poison -> dispatch
//
// Retry sits outside timeout so each attempt gets its own deadline budget;
// poison sits innermost-adjacent to dispatch so it sees the connection
// identity on the raw connector error before any translation.
func NewStack(cfg StackConfig) *Stack {
	cfg.Retry.ApplyDefaults()
	if cfg.Classifier == nil {
		cfg.Classifier = retry.StandardClassifier{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NewNoopRecorder()
	}

	var h Handler
	h = newDispatchStage(cfg.Connector)
	h = newPoisonStage(h, cfg.Connector, cfg.Recorder)
	h = newParseStage(h)
	h = newTimeoutStage(h, cfg.AttemptTimeout)
	h = newRetryStage(h, retryStageConfig{
		config:     cfg.Retry,
		classifier: cfg.Classifier,
		backoff:    retry.NewBackoff(cfg.Retry, cfg.Random),
		gate:       retry.GateFromConfig(cfg.Retry),
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		recorder:   cfg.Recorder,
		random:     cfg.Random,
	})
	h = newTracingStage(h, cfg.Clock, cfg.Logger, cfg.Recorder)

	return &Stack{handler: h}
}

// Do invokes the pipeline for one logical call.
func (s *Stack) Do(ctx context.Context, req *transport.Request) (*Result, error) {
	return s.handler.Do(ctx, req)
}
