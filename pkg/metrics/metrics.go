// Package metrics exposes the Prometheus registry used by the exporter.
// Metrics are defined next to the code that records them (client, cache,
// pagination, resolver); this package documents them and can serve them.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry. All metrics are registered
// via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the /metrics HTTP handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled. It returns the
// bound address once listening, so ":0" can be used in tests.
func Serve(ctx context.Context, addr string) (string, error) {
	logger := logging.NewLogger("metrics")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return ln.Addr().String(), nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - warera_requests_total{procedure, status} (Counter): requests by procedure and HTTP status
//   - warera_request_duration_seconds{procedure} (Histogram): request duration
//   - warera_errors_total{class} (Counter): failures by class (client, server, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - warera_pages_fetched_total (Counter): pages appended by cursor walks
//   - warera_pagination_halts_total (Counter): walks stopped by a non-success status
//
// Lookup Metrics (internal/resolver):
//   - warera_lookups_total{kind, outcome} (Counter): name lookups by kind (user, country)
//     and outcome (resolved, fallback)
//
// Cache Metrics (pkg/cache):
//   - warera_cache_hits_total / warera_cache_misses_total (Counter)
//   - warera_cache_size_bytes (Gauge): bytes written this run
//   - warera_cache_errors_total{operation} (Counter)
//
// Example Prometheus Queries:
//
//	# Share of lookups that fell back to the raw ID
//	sum(warera_lookups_total{outcome="fallback"}) / sum(warera_lookups_total)
//
//	# P95 lookup latency
//	histogram_quantile(0.95, rate(warera_request_duration_seconds_bucket{procedure="user.getUserLite"}[5m]))
