package transport

import (
	"io"
	"sync"
	"time"

	"github.com/status-im/transport-common/clock"
	"github.com/status-im/transport-common/scheduler"
)

type trackedConn struct {
	closer   io.Closer
	lastUsed time.Time
}

// connPool is the registry of live connections shared by every in-flight
// call on one connector. It is a concurrent set keyed by ConnectionID;
// poisoning is an idempotent remove-if-present that also closes the
// underlying connection so the HTTP engine cannot hand it out again.
type connPool struct {
	mu    sync.Mutex
	conns map[ConnectionID]trackedConn

	clk     clock.Clock
	maxIdle time.Duration
	sweeper *scheduler.Scheduler
}

func newConnPool(clk clock.Clock, maxIdle time.Duration) *connPool {
	p := &connPool{
		conns:   make(map[ConnectionID]trackedConn),
		clk:     clk,
		maxIdle: maxIdle,
	}
	p.sweeper = scheduler.New(maxIdle, p.sweep)
	return p
}

func (p *connPool) start() {
	p.sweeper.Start()
}

// track records a connection as live, refreshing its last-use time if it is
// already known.
func (p *connPool) track(id ConnectionID, closer io.Closer) {
	if id == NoConnection {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[id] = trackedConn{closer: closer, lastUsed: p.clk.Now()}
}

// poison evicts and closes the identified connection. It reports whether the
// connection was still present; repeated calls for the same id are no-ops.
func (p *connPool) poison(id ConnectionID) bool {
	if id == NoConnection {
		return false
	}

	p.mu.Lock()
	tc, ok := p.conns[id]
	if ok {
		delete(p.conns, id)
	}
	p.mu.Unlock()

	if ok && tc.closer != nil {
		_ = tc.closer.Close()
	}
	return ok
}

func (p *connPool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// sweep drops connections idle longer than maxIdle. The HTTP engine has its
// own idle timeout; this keeps the identity registry from growing without
// bound when the engine discards connections silently.
func (p *connPool) sweep() {
	cutoff := p.clk.Now().Add(-p.maxIdle)

	p.mu.Lock()
	defer p.mu.Unlock()
	for id, tc := range p.conns {
		if tc.lastUsed.Before(cutoff) {
			delete(p.conns, id)
		}
	}
}

// close stops the sweeper and closes every tracked connection.
func (p *connPool) close() {
	p.sweeper.Stop()

	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[ConnectionID]trackedConn)
	p.mu.Unlock()

	for _, tc := range conns {
		if tc.closer != nil {
			_ = tc.closer.Close()
		}
	}
}
