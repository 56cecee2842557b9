package client

import (
	"time"

	"github.com/status-im/transport-common/clock"
	"github.com/status-im/transport-common/config"
	"github.com/status-im/transport-common/metrics"
	"github.com/status-im/transport-common/middleware"
	"github.com/status-im/transport-common/retry"
	"github.com/status-im/transport-common/transport"
)

type options struct {
	settings         transport.Settings
	retryConfig      retry.Config
	classifier       retry.Classifier
	connector        transport.Connector
	clock            clock.Clock
	logger           middleware.Logger
	recorder         metrics.Recorder
	random           func() float64
	attemptTimeout   time.Duration
	operationTimeout time.Duration
}

// Option configures a Client at construction time.
type Option func(*options)

// WithSettings sets the connector settings used when the client builds its
// own HTTP connector. Ignored when WithConnector is given.
func WithSettings(s transport.Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithConfig applies a loaded file configuration in one shot. Later options
// still override individual pieces.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.settings = cfg.TransportSettings()
		o.retryConfig = cfg.RetrySettings()
		o.attemptTimeout = cfg.Timeouts.Attempt.Std()
		o.operationTimeout = cfg.Timeouts.Operation.Std()
	}
}

// WithRetryConfig sets the retry policy configuration.
func WithRetryConfig(cfg retry.Config) Option {
	return func(o *options) {
		o.retryConfig = cfg
	}
}

// WithClassifier replaces the standard retry classifier.
func WithClassifier(c retry.Classifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

// WithConnector plugs in a custom connector, e.g. a replay double in tests.
// The caller keeps ownership; Close will not touch it.
func WithConnector(c transport.Connector) Option {
	return func(o *options) {
		o.connector = c
	}
}

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger plugs in a logger; the default discards everything.
func WithLogger(l middleware.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRecorder plugs in a metrics recorder; the default discards everything.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithRandom replaces the jitter randomness source, for deterministic tests.
func WithRandom(f func() float64) Option {
	return func(o *options) {
		o.random = f
	}
}

// WithAttemptTimeout bounds each dispatch attempt. Zero disables the
// per-attempt deadline (the connector's request timeout still applies).
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *options) {
		o.attemptTimeout = d
	}
}

// WithOperationTimeout bounds a whole call, all attempts and backoff sleeps
// included. Zero disables it.
func WithOperationTimeout(d time.Duration) Option {
	return func(o *options) {
		o.operationTimeout = d
	}
}

type callConfig struct {
	overrides        middleware.Overrides
	operationTimeout time.Duration
}

// CallOption overrides client configuration for a single call.
type CallOption func(*callConfig)

// WithCallMaxAttempts overrides the attempt budget for this call.
func WithCallMaxAttempts(n int) CallOption {
	return func(c *callConfig) {
		c.overrides.MaxAttempts = n
	}
}

// WithCallAttemptTimeout overrides the per-attempt deadline for this call.
// Negative disables it.
func WithCallAttemptTimeout(d time.Duration) CallOption {
	return func(c *callConfig) {
		c.overrides.AttemptTimeout = d
	}
}

// WithCallBackoff overrides the backoff delay bounds for this call. A zero
// value leaves the client-level setting in place.
func WithCallBackoff(base, max time.Duration) CallOption {
	return func(c *callConfig) {
		c.overrides.BaseDelay = base
		c.overrides.MaxDelay = max
	}
}

// WithCallJitter overrides the jitter mode for this call.
func WithCallJitter(mode retry.JitterMode) CallOption {
	return func(c *callConfig) {
		c.overrides.Jitter = mode
	}
}

// WithCallTimeout overrides the whole-call deadline for this call. Negative
// disables it.
func WithCallTimeout(d time.Duration) CallOption {
	return func(c *callConfig) {
		c.operationTimeout = d
	}
}
