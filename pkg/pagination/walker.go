package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/warera-trades/pkg/client"
	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	pagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warera_pages_fetched_total",
		Help: "Total number of pages fetched by cursor walks",
	})

	haltsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warera_pagination_halts_total",
		Help: "Total number of cursor walks halted by a non-success status",
	})
)

// Config holds walker configuration.
type Config struct {
	// Delay is the pause between a response and the next page request.
	Delay time.Duration

	// MaxPages stops the walk after this many pages. Zero means unbounded.
	MaxPages int
}

// DefaultConfig returns the spacing used against the public API.
func DefaultConfig() Config {
	return Config{
		Delay: 500 * time.Millisecond,
	}
}

// Page is one page of items plus the cursor of the next page.
// An empty NextCursor marks the last page.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// PageFetcher fetches the page starting at cursor ("" for the first page).
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, cursor string) (Page[T], error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// FetchPage calls f.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, cursor string) (Page[T], error) {
	return f(ctx, cursor)
}

// Result is the outcome of a walk.
type Result[T any] struct {
	// Items from every successful page, in cursor order.
	Items []T

	// Pages is the number of pages appended to Items.
	Pages int

	// Halted is the status error that stopped the walk early, if any.
	Halted error
}

// Walker performs sequential cursor walks.
type Walker[T any] struct {
	fetcher PageFetcher[T]
	config  Config
	logger  zerolog.Logger
}

// NewWalker creates a walker.
func NewWalker[T any](fetcher PageFetcher[T], config Config) *Walker[T] {
	if config.Delay < 0 {
		config.Delay = 0
	}
	return &Walker[T]{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("pagination"),
	}
}

// Walk fetches pages until the cursor runs out.
//
// A non-success status stops the walk and is reported in Result.Halted with
// a nil error. Transport failures, decoding failures and context
// cancellation return the error; the partial Result is still returned.
func (w *Walker[T]) Walk(ctx context.Context) (Result[T], error) {
	start := time.Now()

	var result Result[T]
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("fetch page %d: %w", result.Pages+1, err)
		}

		page, err := w.fetcher.FetchPage(ctx, cursor)
		if err != nil {
			if client.IsStatusError(err) {
				haltsTotal.Inc()
				w.logger.Error().
					Err(err).
					Int("pages", result.Pages).
					Int("items", len(result.Items)).
					Msg("Pagination halted, keeping partial results")
				result.Halted = err
				return result, nil
			}
			return result, fmt.Errorf("fetch page %d: %w", result.Pages+1, err)
		}

		result.Items = append(result.Items, page.Items...)
		result.Pages++
		pagesTotal.Inc()

		w.logger.Debug().
			Int("page", result.Pages).
			Int("page_items", len(page.Items)).
			Int("total_items", len(result.Items)).
			Str("next_cursor", page.NextCursor).
			Msg("Page fetched")

		if page.NextCursor == "" {
			break
		}
		if w.config.MaxPages > 0 && result.Pages >= w.config.MaxPages {
			w.logger.Warn().Int("max_pages", w.config.MaxPages).Msg("Page limit reached")
			break
		}
		cursor = page.NextCursor

		if err := w.pause(ctx); err != nil {
			return result, fmt.Errorf("wait for page %d: %w", result.Pages+1, err)
		}
	}

	w.logger.Info().
		Int("pages", result.Pages).
		Int("items", len(result.Items)).
		Dur("duration", time.Since(start)).
		Msg("Walk complete")

	return result, nil
}

// pause blocks for Delay, counted from the moment the previous response
// arrived. A new limiter starts with a full bucket; taking that token leaves
// the next one a whole Delay away.
func (w *Walker[T]) pause(ctx context.Context) error {
	if w.config.Delay <= 0 {
		return ctx.Err()
	}
	limiter := rate.NewLimiter(rate.Every(w.config.Delay), 1)
	limiter.Allow()
	return limiter.Wait(ctx)
}
