package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/core/health"
)

func serve(t *testing.T, h dispatch.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	cfg := dispatch.DefaultConfig()
	cfg.BodyDir = t.TempDir()
	d := dispatch.New(cfg)
	d.Get("/health", h)

	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	return w
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	w := serve(t, health.Liveness)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ALIVE", w.Body.String())
}

func TestNoContent(t *testing.T) {
	t.Parallel()

	w := serve(t, health.NoContent)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()

		w := serve(t, health.Readiness(nil, ok, ok))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "READY", w.Body.String())
	})

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()

		w := serve(t, health.Readiness(nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("failing check", func(t *testing.T) {
		t.Parallel()

		called := false
		after := func(context.Context) error {
			called = true
			return nil
		}

		w := serve(t, health.Readiness(nil, ok, failing, after))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "service unavailable", w.Body.String())
		assert.False(t, called)
	})
}
