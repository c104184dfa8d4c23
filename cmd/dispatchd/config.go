package main

import (
	"time"

	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/core/server"
	"github.com/dmitrymomot/dispatch/core/session"
)

// Config is the dispatchd configuration. Backend-specific settings
// (redis.Config, pg.Config, s3.Config) are loaded only for the selected backend.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"dispatchd"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// SessionBackend is one of memory, file, redis, postgres.
	SessionBackend  string        `env:"SESSION_BACKEND" envDefault:"memory"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`

	// SpoolBackend is one of local, s3.
	SpoolBackend string `env:"SPOOL_BACKEND" envDefault:"local"`

	// DownloadFile is served by GET /download.
	DownloadFile string `env:"DOWNLOAD_FILE" envDefault:"README.md"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	Session  session.Config
	Dispatch dispatch.Config
	Server   server.Config
}
