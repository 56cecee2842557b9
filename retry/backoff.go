package retry

import (
	"math/rand"
	"time"
)

// maxShift keeps the exponent from overflowing time.Duration; beyond it the
// delay has long since hit MaxDelay anyway.
const maxShift = 32

// Backoff computes per-attempt delays: min(maxDelay, baseDelay * 2^(n-1)),
// then jitter. The random source is injectable so tests stay deterministic.
type Backoff struct {
	base         time.Duration
	throttleBase time.Duration
	max          time.Duration
	jitter       JitterMode
	random       func() float64
}

// NewBackoff builds a Backoff from cfg. A nil random falls back to the
// global math/rand source.
func NewBackoff(cfg Config, random func() float64) *Backoff {
	cfg.ApplyDefaults()
	if random == nil {
		random = rand.Float64
	}

	return &Backoff{
		base:         cfg.BaseDelay,
		throttleBase: cfg.ThrottleBaseDelay,
		max:          cfg.MaxDelay,
		jitter:       cfg.Jitter,
		random:       random,
	}
}

// Delay returns the backoff before attempt+1, given that attempt (1-based)
// just failed with the given classification. Throttling failures grow from
// the larger throttle base. The result is always in [0, MaxDelay].
func (b *Backoff) Delay(kind Kind, attempt int) time.Duration {
	base := b.base
	if kind == KindRetryThrottling {
		base = b.throttleBase
	}

	delay := b.exponential(base, attempt)
	if b.jitter == JitterFull {
		delay = time.Duration(float64(delay) * b.random())
	}
	return delay
}

func (b *Backoff) exponential(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		if base > b.max {
			return b.max
		}
		return base
	}

	shift := uint(attempt - 1)
	if shift > maxShift {
		return b.max
	}

	delay := base << shift
	if delay <= 0 || delay > b.max || delay>>shift != base {
		return b.max
	}
	return delay
}
