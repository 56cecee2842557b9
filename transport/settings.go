package transport

import "time"

// Settings configures connector construction. Zero values are filled in by
// ApplyDefaults; set a timeout negative to disable it outright.
type Settings struct {
	// ConnectTimeout bounds establishing a TCP/TLS connection.
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	// RequestTimeout bounds one full dispatch including reading the body.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	// KeepAlive controls HTTP-level connection reuse.
	KeepAlive KeepAliveSettings `yaml:"keepalive" json:"keepalive"`
}

// KeepAliveSettings controls the connector's reuse pool.
type KeepAliveSettings struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	MaxIdleConns   int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxIdleTimeout time.Duration `yaml:"max_idle_timeout" json:"max_idle_timeout"`
}

// DefaultSettings returns Settings with every field defaulted.
func DefaultSettings() Settings {
	s := Settings{KeepAlive: KeepAliveSettings{Enabled: true}}
	s.ApplyDefaults()
	return s
}

func (s *Settings) ApplyDefaults() {
	if s.ConnectTimeout == 0 {
		s.ConnectTimeout = 10 * time.Second
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = 30 * time.Second
	}
	if s.KeepAlive.MaxIdleConns == 0 {
		s.KeepAlive.MaxIdleConns = 10
	}
	if s.KeepAlive.MaxIdleTimeout == 0 {
		s.KeepAlive.MaxIdleTimeout = 90 * time.Second
	}
}
