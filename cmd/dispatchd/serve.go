package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dispatch/core/config"
	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/core/server"
	"github.com/dmitrymomot/dispatch/core/session"
	"github.com/dmitrymomot/dispatch/core/storage"
	"github.com/dmitrymomot/dispatch/integration/database/pg"
	"github.com/dmitrymomot/dispatch/integration/database/redis"
	"github.com/dmitrymomot/dispatch/integration/storage/s3"
	"github.com/dmitrymomot/dispatch/pkg/metrics"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg Config
			if err := config.Load(&cfg); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SERVER_ADDR)")

	return cmd
}

func newLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{logger.WithLevel(logger.ParseLevel(cfg.LogLevel))}
	switch cfg.AppEnv {
	case "production":
		opts = append(opts, logger.WithProduction(cfg.AppName))
	case "staging":
		opts = append(opts, logger.WithStaging(cfg.AppName))
	default:
		opts = append(opts, logger.WithDevelopment(cfg.AppName))
	}
	return logger.New(opts...)
}

func serve(ctx context.Context, cfg Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(cfg)
	logger.SetAsDefault(log)

	var (
		opts   []dispatch.Option
		checks []func(context.Context) error
	)

	store, storeChecks, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	opts = append(opts, dispatch.WithStore(store))
	checks = append(checks, storeChecks...)

	spool, err := openSpool(ctx, cfg)
	if err != nil {
		log.Error("Failed to create body spool", logger.Component("spool"), logger.Error(err))
		return err
	}
	if spool != nil {
		opts = append(opts, dispatch.WithSpool(spool))
	}

	reg := prometheus.NewRegistry()
	if cfg.MetricsEnabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, dispatch.WithObserver(metrics.New(metrics.WithRegistry(reg))))
	}

	d := newApp(cfg, log, checks, opts...)
	if err := d.Seal(); err != nil {
		log.Error("Invalid dispatcher configuration", logger.Component("dispatch"), logger.Error(err))
		return err
	}

	mux := http.NewServeMux()
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", metrics.Handler(reg))
	}
	mux.Handle("/", d)

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		log.Error("Failed to create server", logger.Component("server"), logger.Error(err))
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(srv.Run(ctx, mux))

	if cleaner, ok := store.(session.Cleaner); ok && cfg.CleanupInterval > 0 {
		eg.Go(cleanupLoop(ctx, cleaner, cfg.CleanupInterval, log))
	}

	if err := eg.Wait(); err != nil {
		log.Error("Failed to run server", logger.Component("server"), logger.Error(err))
		return err
	}

	log.Info("Application stopped")
	return nil
}

// openStore builds the configured session store and its readiness checks.
func openStore(ctx context.Context, cfg Config, log *slog.Logger) (session.Store, []func(context.Context) error, func(), error) {
	noop := func() {}

	switch cfg.SessionBackend {
	case "", "memory":
		return session.NewMemoryStore(session.WithTTL(cfg.Session.TTL)), nil, noop, nil

	case "file":
		dir := cfg.Session.Dir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), cfg.AppName+"-sessions")
		}
		store, err := session.NewFileStore(dir, session.WithTTL(cfg.Session.TTL))
		if err != nil {
			log.Error("Failed to create file session store", logger.Component("session"), logger.Error(err))
			return nil, nil, noop, err
		}
		return store, nil, noop, nil

	case "redis":
		var rcfg redis.Config
		if err := config.Load(&rcfg); err != nil {
			return nil, nil, noop, fmt.Errorf("load redis config: %w", err)
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			log.Error("Failed to connect to redis", logger.Component("redis"), logger.Error(err))
			return nil, nil, noop, err
		}
		store := redis.NewSessionStoreFromConfig(client, rcfg)
		return store, []func(context.Context) error{redis.Healthcheck(client)}, func() { _ = client.Close() }, nil

	case "postgres":
		var pcfg pg.Config
		if err := config.Load(&pcfg); err != nil {
			return nil, nil, noop, fmt.Errorf("load postgres config: %w", err)
		}
		pool, err := pg.Connect(ctx, pcfg)
		if err != nil {
			log.Error("Failed to connect to database", logger.Component("database"), logger.Error(err))
			return nil, nil, noop, err
		}
		if err := pg.MigrateSessions(ctx, pool); err != nil {
			pool.Close()
			log.Error("Failed to migrate database", logger.Component("database.migration"), logger.Error(err))
			return nil, nil, noop, err
		}
		return pg.NewSessionStore(pool, pcfg.SessionTTL), []func(context.Context) error{pg.Healthcheck(pool)}, pool.Close, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// openSpool builds the configured body spool. A nil spool keeps the dispatcher default.
func openSpool(ctx context.Context, cfg Config) (storage.Spool, error) {
	switch cfg.SpoolBackend {
	case "", "local":
		return nil, nil
	case "s3":
		var scfg s3.Config
		if err := config.Load(&scfg); err != nil {
			return nil, fmt.Errorf("load s3 config: %w", err)
		}
		return s3.New(ctx, scfg, s3.WithTempDir(cfg.Dispatch.BodyDir))
	default:
		return nil, fmt.Errorf("unknown spool backend %q", cfg.SpoolBackend)
	}
}

// cleanupLoop removes expired sessions every interval until ctx is done.
func cleanupLoop(ctx context.Context, cleaner session.Cleaner, interval time.Duration, log *slog.Logger) func() error {
	return func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := cleaner.DeleteExpired(ctx)
				if err != nil {
					log.WarnContext(ctx, "Failed to delete expired sessions", logger.Component("session"), logger.Error(err))
					continue
				}
				if n > 0 {
					log.DebugContext(ctx, "Deleted expired sessions", logger.Component("session"), slog.Int64("count", n))
				}
			}
		}
	}
}
