package transport

import "context"

//go:generate mockgen -package=mock -source=connector.go -destination=mock/connector.go

// ConnectionID correlates a dispatch with the specific pooled connection that
// served it. Poisoning targets one ConnectionID, never the whole pool.
type ConnectionID string

// NoConnection is the ConnectionID of a dispatch that never reached a
// connection (dial failure, cancelled before connect).
const NoConnection ConnectionID = ""

// Connector performs exactly one request/response dispatch over a transport
// connection. It never retries; retry policy lives entirely above it.
type Connector interface {
	// Dispatch sends the request and returns the response, or a
	// *ConnectorError describing why the single attempt failed.
	Dispatch(ctx context.Context, req *Request) (*Response, error)
	// Poison evicts the identified connection from the reuse pool so the
	// next dispatch opens a fresh one. Poisoning an unknown or already
	// evicted connection is a no-op.
	Poison(id ConnectionID)
}
