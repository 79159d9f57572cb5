package synchronization

import (
	"time"
)

type Config struct {
	// PollInterval is the interval at which peers are asked for their status.
	PollInterval time.Duration `mapstructure:"poll-interval" validate:"gt=0"`
	// ScanInterval is the interval at which jobs are assigned and timeouts checked.
	ScanInterval time.Duration `mapstructure:"scan-interval" validate:"gt=0"`
	// StatusTimeout bounds a single status request.
	StatusTimeout time.Duration `mapstructure:"status-timeout" validate:"gt=0"`
	// StatusConcurrency bounds the status requests in flight during a poll.
	StatusConcurrency int `mapstructure:"status-concurrency" validate:"gt=0"`
	// RequestWorkers bounds the range requests in flight.
	RequestWorkers int `mapstructure:"request-workers" validate:"gt=0"`
	// MaxWantedRoots bounds the blocks awaiting a by-root request for held votes.
	MaxWantedRoots int `mapstructure:"max-wanted-roots" validate:"gt=0,lte=1024"`
}

func DefaultConfig() Config {
	return Config{
		PollInterval:      8 * time.Second,
		ScanInterval:      time.Second,
		StatusTimeout:     5 * time.Second,
		StatusConcurrency: 8,
		RequestWorkers:    16,
		MaxWantedRoots:    64,
	}
}

type OptionFunc func(*Config)

// WithPollInterval sets a custom interval at which peers are polled for their status.
func WithPollInterval(interval time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.PollInterval = interval
	}
}

// WithScanInterval sets a custom interval at which we scan for pending jobs
// and time out stale requests.
func WithScanInterval(interval time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.ScanInterval = interval
	}
}

func WithConfig(config Config) OptionFunc {
	return func(cfg *Config) {
		*cfg = config
	}
}
