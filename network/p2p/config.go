package p2p

import (
	"time"
)

type Config struct {
	// ListenAddrs are the multiaddrs the host listens on.
	ListenAddrs []string `mapstructure:"listen-addrs" validate:"min=1"`
	// Bootstrap are the full multiaddrs, including /p2p/<id>, of peers dialed on startup.
	Bootstrap []string `mapstructure:"bootstrap"`
	// KeyFile holds the marshalled libp2p private key. A new key is generated
	// and written there if the file does not exist. Empty means an ephemeral key.
	KeyFile string `mapstructure:"key-file"`
	// UserAgent is announced to peers through identify.
	UserAgent string `mapstructure:"user-agent"`

	// MaxMessageSize bounds the uncompressed size of any request, response or gossip message.
	MaxMessageSize int `mapstructure:"max-message-size" validate:"gt=0"`
	// DialRetries is the number of additional attempts to open a stream.
	DialRetries uint64 `mapstructure:"dial-retries"`
	// DialBackoff is the base of the exponential backoff between stream attempts.
	DialBackoff time.Duration `mapstructure:"dial-backoff" validate:"gt=0"`
	// ReconnectInterval is the interval at which disconnected bootstrap peers are dialed again.
	ReconnectInterval time.Duration `mapstructure:"reconnect-interval" validate:"gt=0"`

	// BreakerFailures is the number of consecutive failures after which
	// requests to a peer are suspended for BreakerTimeout.
	BreakerFailures uint32        `mapstructure:"breaker-failures" validate:"gt=0"`
	BreakerTimeout  time.Duration `mapstructure:"breaker-timeout" validate:"gt=0"`

	// ServeWorkers bounds the inbound requests served concurrently.
	ServeWorkers int `mapstructure:"serve-workers" validate:"gt=0"`
	// ServeTimeout bounds reading a request and writing its response.
	ServeTimeout time.Duration `mapstructure:"serve-timeout" validate:"gt=0"`
	// RequestRate and RequestBurst are the per peer inbound request budget.
	RequestRate  float64 `mapstructure:"request-rate" validate:"gt=0"`
	RequestBurst int     `mapstructure:"request-burst" validate:"gt=0"`
	// RateLimitedPeers bounds the number of peers with a tracked request budget.
	RateLimitedPeers int `mapstructure:"rate-limited-peers" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddrs:       []string{"/ip4/0.0.0.0/tcp/9000"},
		MaxMessageSize:    10 << 20,
		DialRetries:       2,
		DialBackoff:       200 * time.Millisecond,
		ReconnectInterval: 10 * time.Second,
		BreakerFailures:   3,
		BreakerTimeout:    30 * time.Second,
		ServeWorkers:      32,
		ServeTimeout:      10 * time.Second,
		RequestRate:       10,
		RequestBurst:      20,
		RateLimitedPeers:  1024,
	}
}

type OptionFunc func(*Config)

func WithConfig(config Config) OptionFunc {
	return func(cfg *Config) {
		*cfg = config
	}
}

// WithBreaker sets how many consecutive failures suspend a peer and for how long.
func WithBreaker(failures uint32, timeout time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.BreakerFailures = failures
		cfg.BreakerTimeout = timeout
	}
}

// WithRequestRate sets the per peer inbound request budget.
func WithRequestRate(rate float64, burst int) OptionFunc {
	return func(cfg *Config) {
		cfg.RequestRate = rate
		cfg.RequestBurst = burst
	}
}

func WithMaxMessageSize(size int) OptionFunc {
	return func(cfg *Config) {
		cfg.MaxMessageSize = size
	}
}
