package middleware

import (
	"context"

	"github.com/status-im/transport-common/clock"
	"github.com/status-im/transport-common/metrics"
	"github.com/status-im/transport-common/sdkerr"
	"github.com/status-im/transport-common/transport"
)

// tracingStage is the outermost layer: it observes the full multi-attempt
// duration and terminal status of each logical call.
type tracingStage struct {
	next     Handler
	clock    clock.Clock
	logger   Logger
	recorder metrics.Recorder
}

func newTracingStage(next Handler, clk clock.Clock, logger Logger, recorder metrics.Recorder) *tracingStage {
	return &tracingStage{next: next, clock: clk, logger: logger, recorder: recorder}
}

func (s *tracingStage) Do(ctx context.Context, req *transport.Request) (*Result, error) {
	operation := OperationFrom(ctx)
	start := s.clock.Now()

	s.logger.Debug("call started", "operation", operation, "method", req.Method, "url", req.URL.String())

	res, err := s.next.Do(ctx, req)
	elapsed := s.clock.Now().Sub(start)

	status := "success"
	if err != nil {
		status = terminalStatus(err)
		s.logger.Error("call failed",
			"operation", operation,
			"status", status,
			"duration", elapsed.String(),
			"reached_service", sdkerr.ReachedService(err),
			"error", err)
	} else {
		s.logger.Debug("call finished", "operation", operation, "duration", elapsed.String())
	}

	s.recorder.RecordCall(operation, status, elapsed)
	return res, err
}

func terminalStatus(err error) string {
	switch err.(type) {
	case *sdkerr.ConstructionError:
		return "construction_error"
	case *sdkerr.DispatchError:
		return "dispatch_error"
	case *sdkerr.ResponseError:
		return "response_error"
	case *sdkerr.ServiceError:
		return "service_error"
	case *sdkerr.TimeoutError:
		return "timeout"
	case *sdkerr.RetryExhaustedError:
		return "retry_exhausted"
	default:
		return "error"
	}
}
