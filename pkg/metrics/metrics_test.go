package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/pkg/metrics"
)

// counterValue returns the value of the counter name with exactly the given labels.
func counterValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := g.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			if len(m.GetLabel()) != len(labels) {
				continue
			}
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestCollectorObserveDispatch(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.New(metrics.WithRegistry(reg), metrics.WithNamespace("test"))

	c.ObserveDispatch(dispatch.Outcome{Method: "GET", Route: "GET /items/:id", Status: 200, Duration: time.Millisecond})
	c.ObserveDispatch(dispatch.Outcome{Method: "GET", Route: "GET /items/:id", Status: 200, Duration: time.Millisecond})
	c.ObserveDispatch(dispatch.Outcome{Method: "GET", Status: 404})
	c.ObserveDispatch(dispatch.Outcome{Method: "POST", Route: "POST /items", Status: 500, Err: errors.New("db down")})

	assert.Equal(t, 2.0, counterValue(t, reg, "test_requests_total",
		map[string]string{"method": "GET", "route": "GET /items/:id", "status": "200"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "test_requests_total",
		map[string]string{"method": "GET", "route": "unmatched", "status": "404"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "test_failures_total",
		map[string]string{"route": "POST /items", "kind": "error"}))
	assert.Zero(t, counterValue(t, reg, "test_failures_total",
		map[string]string{"route": "GET /items/:id", "kind": "error"}))
}

func TestCollectorWithDispatcher(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.New(metrics.WithRegistry(reg))

	cfg := dispatch.DefaultConfig()
	cfg.BodyDir = t.TempDir()
	d := dispatch.New(cfg, dispatch.WithObserver(c))
	d.Get("/boom", func(*dispatch.Context, ...any) error { panic("boom") })

	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	assert.Equal(t, 1.0, counterValue(t, reg, "dispatch_failures_total",
		map[string]string{"route": "GET /boom", "kind": "panic"}))

	mw := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, mw.Code)
	assert.Contains(t, mw.Body.String(), "dispatch_request_duration_seconds")
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics.New(metrics.WithRegistry(reg))
	assert.Panics(t, func() { metrics.New(metrics.WithRegistry(reg)) })
}
