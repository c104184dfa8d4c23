package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/core/logger"
)

// Readiness verifies all service dependencies are functioning.
// Responds "READY" if all checks pass, 503 Service Unavailable if any fail.
//
// Example:
//
//	d.Get("/health/ready", health.Readiness(
//		log,
//		pg.Healthcheck(pool),
//		redis.Healthcheck(client),
//	))
func Readiness(log *slog.Logger, fn ...func(context.Context) error) dispatch.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(c *dispatch.Context, _ ...any) error {
		ctx := c.Context()
		for _, f := range fn {
			if err := f(ctx); err != nil {
				log.ErrorContext(ctx, "Readiness check failed", logger.Error(err))
				c.Error(http.StatusServiceUnavailable)
				return nil
			}
		}

		c.Text("READY")
		return nil
	}
}
