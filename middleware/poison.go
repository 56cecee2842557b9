package middleware

import (
	"context"
	"errors"

	"github.com/status-im/transport-common/metrics"
	"github.com/status-im/transport-common/transport"
)

// poisonStage sits directly over dispatch so it sees the raw connector error
// and the identity of the connection that produced it. Any error whose
// connection state is untrustworthy gets that one connection evicted before
// the error travels outward; the rest of the pool is untouched.
type poisonStage struct {
	next      Handler
	connector transport.Connector
	recorder  metrics.Recorder
}

func newPoisonStage(next Handler, connector transport.Connector, recorder metrics.Recorder) *poisonStage {
	return &poisonStage{next: next, connector: connector, recorder: recorder}
}

func (s *poisonStage) Do(ctx context.Context, req *transport.Request) (*Result, error) {
	res, err := s.next.Do(ctx, req)
	if err == nil {
		return res, nil
	}

	var connErr *transport.ConnectorError
	if errors.As(err, &connErr) && connErr.ShouldPoison() && connErr.ConnectionID != transport.NoConnection {
		s.connector.Poison(connErr.ConnectionID)
		s.recorder.RecordPoisoned(OperationFrom(ctx))
	}
	return nil, err
}
