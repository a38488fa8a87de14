// Package cache stores decoded-ready tRPC responses in Redis so that
// repeated lookups of the same user or country across runs can skip the
// network.
//
// The in-process name caches of the resolver are independent of this
// package: they are rebuilt on every run. This layer only short-circuits the
// HTTP call behind a lookup, and only when a Redis address is configured.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, 24*time.Hour)
//
//	key := cache.CacheKey{
//		Procedure: "user.getUserLite",
//		Input:     map[string]string{"userId": "6813b6d5"},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then
//		_ = manager.Set(ctx, key, cache.NewEntry(http.StatusOK, body, manager.TTL()))
//	}
//
// # Metrics
//
//   - warera_cache_hits_total - Cache hits
//   - warera_cache_misses_total - Cache misses
//   - warera_cache_size_bytes - Bytes written to the cache
//   - warera_cache_errors_total{operation} - Cache operation errors
package cache
