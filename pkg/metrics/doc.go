// Package metrics exports dispatcher outcomes as Prometheus metrics.
//
// A Collector is a dispatch.Observer:
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.New(metrics.WithRegistry(reg))
//	d := dispatch.New(cfg, dispatch.WithObserver(collector))
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", metrics.Handler(reg))
//	mux.Handle("/", d)
//
// Metrics (namespace "dispatch" by default):
//   - requests_total{method,route,status}
//   - request_duration_seconds{method,route}
//   - failures_total{route,kind}, kind being "panic" or "error"
//
// Requests that match no route use the route label "unmatched".
package metrics
