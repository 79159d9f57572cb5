package validation

// Config is the configuration of the validation gate.
type Config struct {
	// SeenCacheSize bounds the number of recently accepted roots and vote IDs
	// remembered to drop duplicates.
	SeenCacheSize int `mapstructure:"seen-cache-size" validate:"gt=0"`
	// MaxBodySize is the largest block body accepted, in bytes.
	MaxBodySize int `mapstructure:"max-body-size" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		SeenCacheSize: 8192,
		MaxBodySize:   1 << 20,
	}
}

type OptionFunc func(*Config)

func WithSeenCacheSize(size int) OptionFunc {
	return func(cfg *Config) {
		cfg.SeenCacheSize = size
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(config Config) OptionFunc {
	return func(cfg *Config) {
		*cfg = config
	}
}
