// Package pipeline runs the export end to end:
// fetch, resolve names, transform and export, cleanup.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/warera-trades/internal/config"
	"github.com/Sternrassler/warera-trades/internal/export"
	"github.com/Sternrassler/warera-trades/internal/resolver"
	"github.com/Sternrassler/warera-trades/internal/transactions"
	"github.com/Sternrassler/warera-trades/pkg/client"
	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/Sternrassler/warera-trades/pkg/pagination"
	"github.com/rs/zerolog"
)

// Querier performs one tRPC query. *client.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, procedure string, input client.Input, out any) error
}

// Summary describes a finished run.
type Summary struct {
	Transactions     int
	Users            int
	Countries        int
	UserFallbacks    int
	CountryFallbacks int
	Rows             int
	Duration         time.Duration
}

// Pipeline runs one export.
type Pipeline struct {
	cfg     *config.Config
	querier Querier
	logger  zerolog.Logger
}

// New creates a pipeline that queries the API through q.
func New(cfg *config.Config, q Querier) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		querier: q,
		logger:  logging.NewLogger("pipeline"),
	}
}

// NewClient builds the API client described by cfg. rc may be nil; when set
// it caches the name lookup procedures.
func NewClient(cfg *config.Config, rc client.ResponseCache) (*client.Client, error) {
	ccfg := client.Config{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
	}
	if rc != nil {
		ccfg.Cache = rc
		ccfg.CachedProcedures = []string{config.ProcedureUser, config.ProcedureCountry}
	}
	return client.New(ccfg)
}

// Paths returns the export file locations.
func (p *Pipeline) Paths() export.Paths {
	return export.Paths{CSV: p.cfg.CSVPath(), XLSX: p.cfg.XLSXPath()}
}

// Run executes every phase in order and stops at the first fatal error.
// A fetch cut short by a non-success status is not fatal.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary

	p.logger.Info().
		Str("country_id", p.cfg.API.CountryID).
		Str("type", p.cfg.API.TransactionType).
		Msg("Fetching transactions")

	fetcher := transactions.NewFetcher(p.querier, transactions.Params{
		Limit:           p.cfg.API.PageSize,
		CountryID:       p.cfg.API.CountryID,
		TransactionType: p.cfg.API.TransactionType,
	}, pagination.Config{
		Delay:    p.cfg.API.PageDelay,
		MaxPages: p.cfg.API.MaxPages,
	})
	txs, err := fetcher.FetchAll(ctx)
	if err != nil {
		return sum, err
	}
	sum.Transactions = len(txs)
	p.logger.Info().Int("transactions", len(txs)).Msg("Fetch finished")

	p.logger.Info().Msg("Resolving names")
	res := resolver.NewFromQuerier(p.querier, p.cfg.API.Workers)
	res.ResolveCollection(ctx, txs)
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("resolve names: %w", err)
	}
	sum.Users = res.Users().Len()
	sum.Countries = res.Countries().Len()
	sum.UserFallbacks = res.Users().Fallbacks()
	sum.CountryFallbacks = res.Countries().Fallbacks()
	p.logger.Info().
		Int("users", sum.Users).
		Int("countries", sum.Countries).
		Int("fallbacks", sum.UserFallbacks+sum.CountryFallbacks).
		Msg("Names resolved")

	p.logger.Info().Msg("Exporting")
	paths := p.Paths()
	rows, err := export.CleanAndExport(paths, txs, res.Users(), res.Countries())
	if err != nil {
		return sum, fmt.Errorf("export: %w", err)
	}
	sum.Rows = rows

	p.logger.Info().Msg("Cleaning up export files")
	if err := export.Cleanup(paths); err != nil {
		return sum, fmt.Errorf("cleanup: %w", err)
	}

	sum.Duration = time.Since(start)
	p.logger.Info().
		Int("rows", sum.Rows).
		Dur("duration", sum.Duration).
		Msg("Export complete")
	return sum, nil
}
