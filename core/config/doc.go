// Package config loads typed configuration from environment variables.
//
// Each configuration type is parsed once and cached. A .env file is loaded on
// first use via joho/godotenv and struct fields are filled by caarlos0/env:
//
//	type AppConfig struct {
//		Env  string `env:"APP_ENV" envDefault:"development"`
//		Addr string `env:"SERVER_ADDR" envDefault:":8080"`
//	}
//
//	var cfg AppConfig
//	config.MustLoad(&cfg)
//
// Every package with runtime settings exposes such a struct (dispatch.Config,
// server.Config, redis.Config, pg.Config, s3.Config) so applications can load
// them the same way.
package config
