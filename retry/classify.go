// Package retry decides whether a failed call outcome is worth another
// attempt and how long to wait before it. Classification is a pure function
// of the outcome; the attempt loop itself lives in the middleware stack.
package retry

import (
	"errors"

	"github.com/status-im/transport-common/sdkerr"
	"github.com/status-im/transport-common/transport"
)

// Kind is the retry classification of one call outcome.
type Kind int

const (
	// KindUnretryable is a successful outcome; there is nothing to retry.
	KindUnretryable Kind = iota
	// KindRetryExplicit is a transient fault: transport timeout, connection
	// failure, or a service error marked transient.
	KindRetryExplicit
	// KindRetryThrottling is a service-side rate-limit rejection. It backs
	// off from a larger base delay and is gated by the throttle bucket.
	KindRetryThrottling
	// KindError is a terminal failure; retrying cannot help.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindUnretryable:
		return "unretryable"
	case KindRetryExplicit:
		return "retry_explicit"
	case KindRetryThrottling:
		return "retry_throttling"
	default:
		return "error"
	}
}

// Retryable reports whether the kind calls for another attempt.
func (k Kind) Retryable() bool {
	return k == KindRetryExplicit || k == KindRetryThrottling
}

// Classifier maps one call outcome onto a Kind. Implementations must be pure:
// classifying the same outcome twice yields the same Kind.
type Classifier interface {
	Classify(resp *transport.Response, err error) Kind
}

// StandardClassifier implements the default classification rules, in
// priority order:
//
//  1. transport timeout or connection I/O failure -> retry (explicit)
//  2. service error marked throttling -> retry (throttling)
//  3. service error marked transient -> retry (explicit)
//  4. anything else -> terminal
//
// When a service error carries both the throttling and transient marks,
// throttling wins, so the larger backoff and the token-bucket gate apply.
// User cancellation and construction/parse failures are always terminal.
type StandardClassifier struct{}

func (StandardClassifier) Classify(_ *transport.Response, err error) Kind {
	if err == nil {
		return KindUnretryable
	}

	var connErr *transport.ConnectorError
	if errors.As(err, &connErr) {
		switch connErr.Kind {
		case transport.ErrorKindTimeout, transport.ErrorKindIO:
			return KindRetryExplicit
		default:
			// User cancellation and unclassified transport failures
			// surface immediately.
			return KindError
		}
	}

	var timeoutErr *sdkerr.TimeoutError
	if errors.As(err, &timeoutErr) && timeoutErr.Kind == sdkerr.TimeoutKindAttempt {
		return KindRetryExplicit
	}

	var svcErr *sdkerr.ServiceError
	if errors.As(err, &svcErr) {
		switch {
		case svcErr.Throttling:
			return KindRetryThrottling
		case svcErr.Transient:
			return KindRetryExplicit
		default:
			return KindError
		}
	}

	return KindError
}
