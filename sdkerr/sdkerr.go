// Package sdkerr defines the error taxonomy surfaced by the client facade.
// Exactly one of these types describes any failed call, and each one keeps
// the distinction callers need for idempotency decisions: whether the
// request ever reached the service.
package sdkerr

import (
	"errors"
	"fmt"
	"time"

	"github.com/status-im/transport-common/transport"
)

// ConstructionError means the request could not be built before dispatch.
// It indicates a programming defect and is never retried.
type ConstructionError struct {
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct request: %v", e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// DispatchError wraps a connector failure. The request may never have
// reached the service.
type DispatchError struct {
	Err *transport.ConnectorError
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ResponseError means a response arrived but could not be deserialized. It
// signals a contract violation, not a transient condition, and is never
// retried.
type ResponseError struct {
	Response *transport.Response
	Err      error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("failed to parse response (status %d): %v", e.Response.StatusCode, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// ServiceError is a successfully parsed application-level error response.
// The parser that produced it sets the retry classification flags; the
// transport core never infers them from error codes it does not carry.
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int

	// Throttling marks the error as an explicit rate-limit rejection.
	Throttling bool
	// Transient marks the error as a server-side fault worth retrying.
	Transient bool

	Response *transport.Response
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

// TimeoutKind says which deadline expired.
type TimeoutKind int

const (
	// TimeoutKindAttempt bounds a single dispatch attempt.
	TimeoutKindAttempt TimeoutKind = iota
	// TimeoutKindOperation bounds the whole call, all attempts included.
	TimeoutKindOperation
)

func (k TimeoutKind) String() string {
	if k == TimeoutKindOperation {
		return "operation timeout (all attempts including retries)"
	}
	return "attempt timeout (single attempt)"
}

// TimeoutError means a deadline managed by this core expired. Attempt
// timeouts are retryable; the retry layer handles them like a connector
// timeout.
type TimeoutError struct {
	Kind     TimeoutKind
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s occurred after %s", e.Kind, e.Duration)
}

// RetryExhaustedError wraps the last retryable error once the attempt budget
// has run out.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed, last error: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// ReachedService reports whether the service responded at all for the given
// error. Service and response errors mean the exchange completed; dispatch,
// timeout and construction errors mean it may never have arrived. The check
// unwraps, so a RetryExhaustedError answers for the error it wraps.
func ReachedService(err error) bool {
	var (
		svcErr  *ServiceError
		respErr *ResponseError
	)
	return errors.As(err, &svcErr) || errors.As(err, &respErr)
}
