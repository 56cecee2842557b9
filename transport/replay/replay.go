// Package replay provides a deterministic scripted Connector for tests. Each
// dispatch consumes the next exchange in the script, and every request and
// poisoned connection is recorded for later assertion.
package replay

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/status-im/transport-common/transport"
)

// ErrScriptExhausted is returned when a dispatch happens after the script has
// run out of exchanges.
var ErrScriptExhausted = errors.New("replay: no scripted exchange left")

// Exchange is one scripted dispatch outcome: either a response or an error,
// never both.
type Exchange struct {
	Response *transport.Response
	Err      error
}

// OK scripts a successful exchange served by the given connection.
func OK(status int, body []byte, id transport.ConnectionID) Exchange {
	return Exchange{Response: &transport.Response{
		StatusCode:   status,
		Header:       make(http.Header),
		Body:         body,
		ConnectionID: id,
	}}
}

// IOFailure scripts a transport-level failure on the given connection.
func IOFailure(err error, id transport.ConnectionID) Exchange {
	return Exchange{Err: transport.NewIOError(err, id)}
}

// Timeout scripts a deadline expiry on the given connection.
func Timeout(err error, id transport.ConnectionID) Exchange {
	return Exchange{Err: transport.NewTimeoutError(err, id)}
}

// Cancelled scripts a user cancellation observed mid-dispatch.
func Cancelled(err error, id transport.ConnectionID) Exchange {
	return Exchange{Err: transport.NewUserError(err, id)}
}

// Connector replays a fixed script of exchanges. Safe for concurrent use.
type Connector struct {
	mu       sync.Mutex
	script   []Exchange
	requests []*transport.Request
	poisoned []transport.ConnectionID
}

// New creates a Connector that will serve the given exchanges in order.
func New(script ...Exchange) *Connector {
	return &Connector{script: script}
}

func (c *Connector) Dispatch(_ context.Context, req *transport.Request) (*transport.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)
	if len(c.script) == 0 {
		return nil, transport.NewOtherError(ErrScriptExhausted, transport.NoConnection, false)
	}

	next := c.script[0]
	c.script = c.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return next.Response, nil
}

func (c *Connector) Poison(id transport.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.poisoned = append(c.poisoned, id)
}

// Requests returns every request dispatched so far, in order.
func (c *Connector) Requests() []*transport.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*transport.Request(nil), c.requests...)
}

// Poisoned returns every connection id poisoned so far, in order.
func (c *Connector) Poisoned() []transport.ConnectionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]transport.ConnectionID(nil), c.poisoned...)
}

// Remaining reports how many scripted exchanges are still unserved.
func (c *Connector) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.script)
}
