package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"

	"github.com/status-im/transport-common/clock"
)

// HTTPConnector dispatches requests over a net/http engine. It enforces the
// connect and request timeouts from Settings, captures the identity of the
// pooled connection serving each dispatch, and evicts poisoned connections by
// closing them out from under the engine's idle pool.
type HTTPConnector struct {
	client    *http.Client
	engine    *http.Transport
	pool      *connPool
	closeOnce sync.Once
}

// NewHTTPConnector builds a connector over net/http. A nil clk falls back to
// the system clock.
func NewHTTPConnector(settings Settings, clk clock.Clock) *HTTPConnector {
	settings.ApplyDefaults()
	if clk == nil {
		clk = clock.NewSystem()
	}

	engine := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: settings.ConnectTimeout,
		}).DialContext,
		DisableKeepAlives:   !settings.KeepAlive.Enabled,
		MaxIdleConns:        settings.KeepAlive.MaxIdleConns,
		MaxIdleConnsPerHost: settings.KeepAlive.MaxIdleConns,
		IdleConnTimeout:     settings.KeepAlive.MaxIdleTimeout,
		ForceAttemptHTTP2:   true,
	}

	c := &HTTPConnector{
		client: &http.Client{
			Timeout:   settings.RequestTimeout,
			Transport: engine,
		},
		engine: engine,
		pool:   newConnPool(clk, settings.KeepAlive.MaxIdleTimeout),
	}
	c.pool.start()
	return c
}

// Dispatch performs exactly one attempt. It never retries.
func (c *HTTPConnector) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyContextErr(err, NoConnection)
	}

	var (
		connMu sync.Mutex
		connID ConnectionID
	)
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Conn == nil {
				return
			}
			id := connectionID(info.Conn)
			connMu.Lock()
			connID = id
			connMu.Unlock()
			c.pool.track(id, info.Conn)
		},
	}

	httpReq, err := http.NewRequestWithContext(
		httptrace.WithClientTrace(ctx, trace), req.Method, req.URL.String(), req.Body())
	if err != nil {
		return nil, NewOtherError(err, NoConnection, false)
	}
	httpReq.Header = req.Header.Clone()
	httpReq.ContentLength = req.ContentLength()

	resp, err := c.client.Do(httpReq)

	connMu.Lock()
	id := connID
	connMu.Unlock()

	if err != nil {
		return nil, classifyDispatchErr(ctx, err, id)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// The body read died mid-stream; the connection state is unknown.
		return nil, classifyDispatchErr(ctx, err, id)
	}

	return &Response{
		StatusCode:   resp.StatusCode,
		Header:       resp.Header,
		Body:         body,
		ConnectionID: id,
	}, nil
}

// Poison evicts the identified connection. Idempotent.
func (c *HTTPConnector) Poison(id ConnectionID) {
	c.pool.poison(id)
}

// TrackedConnections reports how many connection identities are currently
// registered. Exposed for observability and tests.
func (c *HTTPConnector) TrackedConnections() int {
	return c.pool.len()
}

// Close shuts down the sweeper and tears down every pooled connection.
func (c *HTTPConnector) Close() {
	c.closeOnce.Do(func() {
		c.pool.close()
		c.engine.CloseIdleConnections()
	})
}

func connectionID(conn net.Conn) ConnectionID {
	return ConnectionID(conn.LocalAddr().String() + "->" + conn.RemoteAddr().String())
}

func classifyContextErr(err error, id ConnectionID) *ConnectorError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err, id)
	}
	return NewUserError(err, id)
}

// classifyDispatchErr maps a net/http failure onto the connector taxonomy.
// Caller cancellation is checked against the dispatch context, not the error
// chain, so an attempt deadline is never mistaken for a user cancel.
func classifyDispatchErr(ctx context.Context, err error, id ConnectionID) *ConnectorError {
	if errors.Is(ctx.Err(), context.Canceled) {
		return NewUserError(err, id)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err, id)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err, id)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewIOError(err, id)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return NewIOError(err, id)
	}

	return NewOtherError(err, id, true)
}
