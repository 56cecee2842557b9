package transport

import "fmt"

// ErrorKind classifies a connector failure.
type ErrorKind int

const (
	// ErrorKindOther is a failure that fits no other kind.
	ErrorKindOther ErrorKind = iota
	// ErrorKindIO is a transport-level failure (reset, refused, broken pipe).
	ErrorKindIO
	// ErrorKindTimeout is a connect or read/write deadline expiry.
	ErrorKindTimeout
	// ErrorKindUser is a caller-initiated cancellation.
	ErrorKindUser
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindIO:
		return "io"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindUser:
		return "user"
	default:
		return "other"
	}
}

// ConnectorError is the failure of a single dispatch attempt. It carries
// whether the connection that produced it should be evicted from the pool:
// IO failures and timeouts leave the connection in an unknown state, while a
// user cancellation says nothing about connection health.
type ConnectorError struct {
	Kind         ErrorKind
	ConnectionID ConnectionID

	poison bool
	err    error
}

// NewIOError wraps a transport-level failure. The connection is marked for
// eviction.
func NewIOError(err error, id ConnectionID) *ConnectorError {
	return &ConnectorError{Kind: ErrorKindIO, ConnectionID: id, poison: true, err: err}
}

// NewTimeoutError wraps a deadline expiry. The connection is marked for
// eviction since its post-timeout state cannot be trusted.
func NewTimeoutError(err error, id ConnectionID) *ConnectorError {
	return &ConnectorError{Kind: ErrorKindTimeout, ConnectionID: id, poison: true, err: err}
}

// NewUserError wraps a caller cancellation. The connection stays healthy.
func NewUserError(err error, id ConnectionID) *ConnectorError {
	return &ConnectorError{Kind: ErrorKindUser, ConnectionID: id, err: err}
}

// NewOtherError wraps an unclassified failure. poison controls eviction.
func NewOtherError(err error, id ConnectionID, poison bool) *ConnectorError {
	return &ConnectorError{Kind: ErrorKindOther, ConnectionID: id, poison: poison, err: err}
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("connector error (%s): %v", e.Kind, e.err)
}

func (e *ConnectorError) Unwrap() error {
	return e.err
}

// ShouldPoison reports whether the connection that produced this error must
// be evicted from the reuse pool.
func (e *ConnectorError) ShouldPoison() bool {
	return e.poison
}
