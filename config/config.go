// Package config is the file-loadable configuration surface. It is plain
// data: its structs decode from YAML and convert onto transport.Settings and
// retry.Config; no behavior lives here.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/status-im/transport-common/retry"
	"github.com/status-im/transport-common/transport"
)

// Duration wraps time.Duration so YAML can spell it as "250ms" or "2s".
// Plain integers are taken as nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements custom YAML unmarshaling for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration '%s': %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(v)
		return nil
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the top-level client configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport" json:"transport"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Timeouts  TimeoutConfig   `yaml:"timeouts" json:"timeouts"`
}

// TransportConfig mirrors transport.Settings.
type TransportConfig struct {
	ConnectTimeout Duration        `yaml:"connect_timeout" json:"connect_timeout"`
	RequestTimeout Duration        `yaml:"request_timeout" json:"request_timeout"`
	KeepAlive      KeepAliveConfig `yaml:"keepalive" json:"keepalive"`
}

// KeepAliveConfig mirrors transport.KeepAliveSettings.
type KeepAliveConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	MaxIdleConns   int      `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxIdleTimeout Duration `yaml:"max_idle_timeout" json:"max_idle_timeout"`
}

// RetryConfig mirrors retry.Config.
type RetryConfig struct {
	MaxAttempts        int      `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay          Duration `yaml:"base_delay" json:"base_delay"`
	ThrottleBaseDelay  Duration `yaml:"throttle_base_delay" json:"throttle_base_delay"`
	MaxDelay           Duration `yaml:"max_delay" json:"max_delay"`
	Jitter             string   `yaml:"jitter" json:"jitter"`
	ThrottleRetryRate  float64  `yaml:"throttle_retry_rate" json:"throttle_retry_rate"`
	ThrottleRetryBurst int      `yaml:"throttle_retry_burst" json:"throttle_retry_burst"`
}

// TimeoutConfig holds the deadlines owned by the middleware stack, distinct
// from the connector's own connect/request timeouts. Zero disables either.
type TimeoutConfig struct {
	Attempt   Duration `yaml:"attempt" json:"attempt"`
	Operation Duration `yaml:"operation" json:"operation"`
}

// TransportSettings converts onto transport.Settings with defaults applied.
func (c *Config) TransportSettings() transport.Settings {
	s := transport.Settings{
		ConnectTimeout: c.Transport.ConnectTimeout.Std(),
		RequestTimeout: c.Transport.RequestTimeout.Std(),
		KeepAlive: transport.KeepAliveSettings{
			Enabled:        c.Transport.KeepAlive.Enabled,
			MaxIdleConns:   c.Transport.KeepAlive.MaxIdleConns,
			MaxIdleTimeout: c.Transport.KeepAlive.MaxIdleTimeout.Std(),
		},
	}
	s.ApplyDefaults()
	return s
}

// RetrySettings converts onto retry.Config with defaults applied.
func (c *Config) RetrySettings() retry.Config {
	r := retry.Config{
		MaxAttempts:        c.Retry.MaxAttempts,
		BaseDelay:          c.Retry.BaseDelay.Std(),
		ThrottleBaseDelay:  c.Retry.ThrottleBaseDelay.Std(),
		MaxDelay:           c.Retry.MaxDelay.Std(),
		Jitter:             retry.JitterMode(c.Retry.Jitter),
		ThrottleRetryRate:  c.Retry.ThrottleRetryRate,
		ThrottleRetryBurst: c.Retry.ThrottleRetryBurst,
	}
	r.ApplyDefaults()
	return r
}

// Validate rejects configurations the transport core cannot honor. It runs
// against the converted, defaulted values.
func (c *Config) Validate() error {
	r := c.RetrySettings()
	if r.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", r.MaxAttempts)
	}
	if r.MaxDelay < r.BaseDelay {
		return fmt.Errorf("retry.max_delay %s is below retry.base_delay %s", r.MaxDelay, r.BaseDelay)
	}
	switch r.Jitter {
	case retry.JitterNone, retry.JitterFull:
	default:
		return fmt.Errorf("retry.jitter must be %q or %q, got %q",
			retry.JitterNone, retry.JitterFull, r.Jitter)
	}
	if c.Timeouts.Attempt < 0 || c.Timeouts.Operation < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Load reads a YAML config file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
