package chainsync

import "time"

type Config struct {
	// RequestTimeout is how long a peer may take to answer a range request.
	RequestTimeout time.Duration `mapstructure:"request-timeout" validate:"gt=0"`
	// MaxAttempts bounds the requests made for one job before its queue stalls.
	MaxAttempts uint `mapstructure:"max-attempts" validate:"gt=0"`
	// RangeSize is the maximum number of blocks asked for in one range request.
	RangeSize uint64 `mapstructure:"range-size" validate:"gt=0"`
	// StallRetryInterval is how long a stalled queue waits before its job is retried.
	StallRetryInterval time.Duration `mapstructure:"stall-retry-interval" validate:"gt=0"`
	// MaxQueues bounds the number of open job queues.
	MaxQueues int `mapstructure:"max-queues" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout:     10 * time.Second,
		MaxAttempts:        5,
		RangeSize:          64,
		StallRetryInterval: 30 * time.Second,
		MaxQueues:          16,
	}
}

type OptionFunc func(*Config)

func WithRequestTimeout(timeout time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.RequestTimeout = timeout
	}
}

func WithMaxAttempts(attempts uint) OptionFunc {
	return func(cfg *Config) {
		cfg.MaxAttempts = attempts
	}
}

func WithRangeSize(size uint64) OptionFunc {
	return func(cfg *Config) {
		cfg.RangeSize = size
	}
}

func WithStallRetryInterval(interval time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.StallRetryInterval = interval
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(config Config) OptionFunc {
	return func(cfg *Config) {
		*cfg = config
	}
}
