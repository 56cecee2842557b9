package transport

import "net/http"

// Response is the outcome of exactly one successful dispatch. The body has
// been fully read by the connector so the underlying connection is already
// back in the reuse pool by the time callers see it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// ConnectionID identifies the pooled connection that produced this
	// response, so later layers can poison exactly that connection.
	ConnectionID ConnectionID
}
