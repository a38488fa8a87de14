package resolver

import (
	"context"

	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of concurrent lookups per pool.
const DefaultWorkers = 10

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warera_lookups_total",
	Help: "Total name lookups by kind and outcome",
}, []string{"kind", "outcome"})

// Pool runs lookups of one kind with bounded concurrency.
type Pool struct {
	kind    string
	lookup  Lookup
	workers int
	logger  zerolog.Logger
}

// NewPool creates a pool. kind labels logs and metrics ("user", "country").
// Non-positive workers use DefaultWorkers.
func NewPool(kind string, lookup Lookup, workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{
		kind:    kind,
		lookup:  lookup,
		workers: workers,
		logger:  logging.NewLogger("resolver").With().Str("kind", kind).Logger(),
	}
}

// ResolveInto resolves every non-empty id not yet in cache and stores the
// results. Lookups run concurrently; cache is written only after all of them
// finished. Afterwards every non-empty id has an entry. The returned slice
// holds the results of this call, in input order.
func (p *Pool) ResolveInto(ctx context.Context, cache *Cache, ids []string) []Result {
	pending := cache.Missing(ids)
	if len(pending) == 0 {
		return nil
	}

	results := make([]Result, len(pending))
	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for i, id := range pending {
		g.Go(func() error {
			results[i] = Resolve(ctx, p.lookup, id)
			return nil
		})
	}
	_ = g.Wait()

	fallbacks := 0
	for _, r := range results {
		cache.Store(r)
		lookupsTotal.WithLabelValues(p.kind, r.Outcome.String()).Inc()
		if r.Outcome == Fallback {
			fallbacks++
			p.logger.Warn().Err(r.Err).Str("id", r.ID).Msg("Lookup failed, using ID as name")
			continue
		}
		p.logger.Debug().Str("id", r.ID).Str("name", r.Name).Msg("Resolved")
	}

	p.logger.Info().
		Int("resolved", len(results)-fallbacks).
		Int("fallbacks", fallbacks).
		Msg("Lookups finished")
	return results
}
