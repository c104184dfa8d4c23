package session

import (
	"time"
)

// Config holds session store configuration.
type Config struct {
	// TTL is the idle lifetime of a session; every write extends it.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	// Dir is the directory used by the file store.
	Dir string `env:"SESSION_DIR" envDefault:""`
}

// defaultConfig returns default configuration.
func defaultConfig() *Config {
	return &Config{
		TTL: 24 * time.Hour,
	}
}

// Option is a functional option for configuring session stores.
type Option func(*Config)

// WithTTL sets the session time-to-live.
// A non-positive TTL disables expiration.
func WithTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.TTL = ttl
	}
}
