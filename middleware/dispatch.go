package middleware

import (
	"context"

	"github.com/status-im/transport-common/sdkerr"
	"github.com/status-im/transport-common/transport"
)

// dispatchStage is the innermost layer: it hands the request to the
// connector for exactly one attempt and lifts connector failures into the
// sdkerr taxonomy.
type dispatchStage struct {
	connector transport.Connector
}

func newDispatchStage(connector transport.Connector) *dispatchStage {
	return &dispatchStage{connector: connector}
}

func (s *dispatchStage) Do(ctx context.Context, req *transport.Request) (*Result, error) {
	resp, err := s.connector.Dispatch(ctx, req)
	if err != nil {
		connErr, ok := err.(*transport.ConnectorError)
		if !ok {
			connErr = transport.NewOtherError(err, transport.NoConnection, false)
		}
		return nil, &sdkerr.DispatchError{Err: connErr}
	}
	return &Result{Response: resp}, nil
}
