package retry

import "time"

// JitterMode selects how computed backoff delays are randomized.
type JitterMode string

const (
	// JitterNone uses the exponential delay as computed.
	JitterNone JitterMode = "none"
	// JitterFull multiplies the computed delay by a uniformly random
	// fraction in [0,1), spreading out synchronized retry storms.
	JitterFull JitterMode = "full"
)

// Config tunes the retry policy.
type Config struct {
	// MaxAttempts bounds total dispatches per logical call, the first
	// attempt included.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
	// BaseDelay seeds the exponential backoff for explicit retries.
	BaseDelay time.Duration `yaml:"base_delay" json:"base_delay"`
	// ThrottleBaseDelay seeds the backoff for throttling retries; larger
	// than BaseDelay so throttled clients ease off harder.
	ThrottleBaseDelay time.Duration `yaml:"throttle_base_delay" json:"throttle_base_delay"`
	// MaxDelay caps any single backoff delay.
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay"`
	// Jitter selects the randomization mode.
	Jitter JitterMode `yaml:"jitter" json:"jitter"`

	// ThrottleRetryRate limits throttling retries across the whole client
	// to this many per second (token bucket). Zero disables the gate.
	ThrottleRetryRate float64 `yaml:"throttle_retry_rate" json:"throttle_retry_rate"`
	// ThrottleRetryBurst is the gate's bucket size.
	ThrottleRetryBurst int `yaml:"throttle_retry_burst" json:"throttle_retry_burst"`
}

// DefaultConfig returns a Config with every field defaulted.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

func (c *Config) ApplyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.ThrottleBaseDelay == 0 {
		c.ThrottleBaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 20 * time.Second
	}
	if c.Jitter == "" {
		c.Jitter = JitterFull
	}
	if c.ThrottleRetryBurst == 0 {
		c.ThrottleRetryBurst = 10
	}
}
