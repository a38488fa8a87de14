// Command warera-export downloads the trading transactions of one country
// from the warera API, resolves user and country names and writes
// warera_transactions_final.csv and .xlsx.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/warera-trades/internal/config"
	"github.com/Sternrassler/warera-trades/internal/pipeline"
	"github.com/Sternrassler/warera-trades/pkg/cache"
	"github.com/Sternrassler/warera-trades/pkg/client"
	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/Sternrassler/warera-trades/pkg/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warera-export: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
		RunID:  uuid.NewString(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Export failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.Metrics.Addr != "" {
		if _, err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	rc, closeCache, err := newResponseCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	c, err := pipeline.NewClient(cfg, rc)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	sum, err := pipeline.New(cfg, c).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Int("transactions", sum.Transactions).
		Int("users", sum.Users).
		Int("countries", sum.Countries).
		Str("csv", cfg.CSVPath()).
		Str("xlsx", cfg.XLSXPath()).
		Msg("Done")
	return nil
}

// newResponseCache connects to Redis when an address is configured. Without
// one it returns a nil cache.
func newResponseCache(ctx context.Context, cfg *config.Config) (client.ResponseCache, func(), error) {
	if cfg.Cache.RedisAddr == "" {
		return nil, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
		DB:   cfg.Cache.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
	}

	logger := logging.NewLogger("cache")
	logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Connected to Redis")
	return cache.NewManager(redisClient, cfg.Cache.TTL), func() { redisClient.Close() }, nil
}
