package retry

import "golang.org/x/time/rate"

// ThrottleGate bounds how fast throttling-classified retries may be issued
// across every call sharing one client. When the service is already shedding
// load, counting attempts is not enough; the gate is a token bucket that
// cuts the retry stream off once the budget is spent.
type ThrottleGate struct {
	limiter *rate.Limiter
}

// NewThrottleGate builds a gate admitting retriesPerSecond with the given
// burst. A non-positive rate returns nil, which means unlimited.
func NewThrottleGate(retriesPerSecond float64, burst int) *ThrottleGate {
	if retriesPerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &ThrottleGate{limiter: rate.NewLimiter(rate.Limit(retriesPerSecond), burst)}
}

// GateFromConfig builds the gate described by cfg, nil when disabled.
func GateFromConfig(cfg Config) *ThrottleGate {
	return NewThrottleGate(cfg.ThrottleRetryRate, cfg.ThrottleRetryBurst)
}

// Allow reports whether one throttling retry may proceed now, debiting a
// token when it may. A nil gate always allows.
func (g *ThrottleGate) Allow() bool {
	if g == nil {
		return true
	}
	return g.limiter.Allow()
}
