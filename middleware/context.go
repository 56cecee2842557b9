package middleware

import (
	"context"
	"time"

	"github.com/status-im/transport-common/retry"
	"github.com/status-im/transport-common/transport"
)

type (
	operationKey struct{}
	overridesKey struct{}
	parserKey    struct{}
)

// WithOperation attaches the operation name to the context for tracing and
// metrics labels.
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey{}, name)
}

// OperationFrom returns the operation name attached to the context, or
// "unknown" when none is set.
func OperationFrom(ctx context.Context) string {
	if name, ok := ctx.Value(operationKey{}).(string); ok && name != "" {
		return name
	}
	return "unknown"
}

// Overrides carries per-call configuration. The pipeline is composed once
// per client; anything overridable per call travels on the context instead.
type Overrides struct {
	// MaxAttempts replaces the client-level attempt budget when positive.
	MaxAttempts int
	// AttemptTimeout replaces the client-level attempt deadline when
	// non-zero; negative disables the deadline for this call.
	AttemptTimeout time.Duration
	// BaseDelay and MaxDelay replace the backoff delays when positive.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Jitter replaces the jitter mode when non-empty.
	Jitter retry.JitterMode
}

// retryOverride reports whether any backoff parameter is overridden.
func (o Overrides) retryOverride() bool {
	return o.BaseDelay > 0 || o.MaxDelay > 0 || o.Jitter != ""
}

// WithOverrides attaches per-call overrides to the context.
func WithOverrides(ctx context.Context, o Overrides) context.Context {
	return context.WithValue(ctx, overridesKey{}, o)
}

// OverridesFrom returns the per-call overrides, zero when none are set.
func OverridesFrom(ctx context.Context) Overrides {
	if o, ok := ctx.Value(overridesKey{}).(Overrides); ok {
		return o
	}
	return Overrides{}
}

// ParseFunc deserializes one response. A parsed application-level error is
// returned as an error (typically *sdkerr.ServiceError); a failure to make
// sense of the body at all is any other error.
type ParseFunc func(*transport.Response) (interface{}, error)

// WithParser attaches the operation's response parser to the context so the
// parse stage can run it inside the attempt.
func WithParser(ctx context.Context, f ParseFunc) context.Context {
	return context.WithValue(ctx, parserKey{}, f)
}

// ParserFrom returns the attached parser, nil when the call has none.
func ParserFrom(ctx context.Context) ParseFunc {
	if f, ok := ctx.Value(parserKey{}).(ParseFunc); ok {
		return f
	}
	return nil
}
