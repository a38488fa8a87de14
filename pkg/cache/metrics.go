package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts lookups served from Redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warera_cache_hits_total",
		Help: "Total number of response cache hits",
	})

	// CacheMisses counts lookups that had to go to the API.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warera_cache_misses_total",
		Help: "Total number of response cache misses",
	})

	// CacheSize tracks bytes written to the cache.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "warera_cache_size_bytes",
		Help: "Bytes written to the response cache during this run",
	})

	// CacheErrors counts failed cache operations.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warera_cache_errors_total",
		Help: "Total number of response cache operation errors",
	}, []string{"operation"}) // "get", "set", "delete"
)
