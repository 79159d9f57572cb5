package ingestion

import "time"

// Config is the configuration of the ingestion engine.
type Config struct {
	// QueueCapacity bounds the inbound queue. Items submitted to a full queue are dropped.
	QueueCapacity int `mapstructure:"queue-capacity" validate:"gt=0"`
	// BacklogCapacity bounds the number of items held for a missing dependency.
	BacklogCapacity int `mapstructure:"backlog-capacity" validate:"gt=0"`
	// MaxHoldDuration is how long an item may wait for its dependency before
	// the gap is reported to the sync engine.
	MaxHoldDuration time.Duration `mapstructure:"max-hold-duration" validate:"gt=0"`
	// BacklogScanInterval is the period of the backlog scan.
	BacklogScanInterval time.Duration `mapstructure:"backlog-scan-interval" validate:"gt=0"`
	// SubmitRetryInterval is the wait between attempts of SubmitWait.
	SubmitRetryInterval time.Duration `mapstructure:"submit-retry-interval" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		QueueCapacity:       10_000,
		BacklogCapacity:     1024,
		MaxHoldDuration:     8 * time.Second,
		BacklogScanInterval: time.Second,
		SubmitRetryInterval: 50 * time.Millisecond,
	}
}

type OptionFunc func(*Config)

func WithQueueCapacity(capacity int) OptionFunc {
	return func(cfg *Config) {
		cfg.QueueCapacity = capacity
	}
}

func WithBacklogCapacity(capacity int) OptionFunc {
	return func(cfg *Config) {
		cfg.BacklogCapacity = capacity
	}
}

func WithMaxHoldDuration(d time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.MaxHoldDuration = d
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(config Config) OptionFunc {
	return func(cfg *Config) {
		*cfg = config
	}
}
