package client

import "github.com/status-im/transport-common/transport"

// Operation bundles the request builder and response parser supplied by a
// generated service client. The transport core knows nothing beyond this
// shape.
type Operation interface {
	// Name identifies the operation for tracing and metrics labels.
	Name() string
	// BuildRequest constructs a fresh request for this operation.
	BuildRequest() (*transport.Request, error)
	// ParseResponse deserializes the response. A parsed application-level
	// error is returned as *sdkerr.ServiceError; any other error marks
	// the body as unparseable.
	ParseResponse(resp *transport.Response) (interface{}, error)
}

// OperationFuncs is a convenience Operation built from plain functions.
type OperationFuncs struct {
	OpName string
	Build  func() (*transport.Request, error)
	Parse  func(resp *transport.Response) (interface{}, error)
}

func (o OperationFuncs) Name() string {
	return o.OpName
}

func (o OperationFuncs) BuildRequest() (*transport.Request, error) {
	return o.Build()
}

func (o OperationFuncs) ParseResponse(resp *transport.Response) (interface{}, error) {
	return o.Parse(resp)
}
