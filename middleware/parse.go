package middleware

import (
	"context"

	"github.com/status-im/transport-common/sdkerr"
	"github.com/status-im/transport-common/transport"
)

// parseStage runs the operation's response parser inside the attempt, under
// the attempt timeout, so that parsed service errors are visible to the
// retry classification. A parser returning *sdkerr.ServiceError propagates
// it as-is; any other parse failure is a contract violation and surfaces as
// a ResponseError.
type parseStage struct {
	next Handler
}

func newParseStage(next Handler) *parseStage {
	return &parseStage{next: next}
}

func (s *parseStage) Do(ctx context.Context, req *transport.Request) (*Result, error) {
	res, err := s.next.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	parse := ParserFrom(ctx)
	if parse == nil {
		return res, nil
	}

	output, perr := parse(res.Response)
	if perr != nil {
		if svcErr, ok := perr.(*sdkerr.ServiceError); ok {
			if svcErr.Response == nil {
				svcErr.Response = res.Response
			}
			return nil, svcErr
		}
		return nil, &sdkerr.ResponseError{Response: res.Response, Err: perr}
	}

	res.Output = output
	return res, nil
}
