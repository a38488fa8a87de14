// Package config loads exporter settings from the environment.
//
// Every setting has a default equal to the fixed constant the exporter was
// built around, so running with an empty environment targets the public API,
// Chile, 100 items per page, 10 lookup workers and a 500ms page delay.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/warera-trades/internal/export"
	"github.com/Sternrassler/warera-trades/internal/resolver"
	"github.com/Sternrassler/warera-trades/internal/transactions"
	"github.com/Sternrassler/warera-trades/pkg/cache"
	"github.com/Sternrassler/warera-trades/pkg/client"
	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/Sternrassler/warera-trades/pkg/pagination"
	"github.com/kelseyhightower/envconfig"
)

// Prefix for all environment variables. Nested sections add their own
// segment: WARERA_API_BASE_URL, WARERA_LOGGING_LOG_LEVEL, WARERA_CACHE_REDIS_ADDR.
const Prefix = "WARERA"

// Procedure names on the tRPC API.
const (
	ProcedureTransactions = transactions.Procedure
	ProcedureUser         = resolver.UserProcedure
	ProcedureCountry      = resolver.CountryProcedure
)

// Config is the complete exporter configuration.
type Config struct {
	API     APIConfig
	Export  ExportConfig
	Logging LoggingConfig
	Cache   CacheConfig
	Metrics MetricsConfig
}

// APIConfig controls what is fetched and how fast.
type APIConfig struct {
	BaseURL         string        `envconfig:"BASE_URL"`
	CountryID       string        `envconfig:"COUNTRY_ID"`
	TransactionType string        `envconfig:"TRANSACTION_TYPE"`
	PageSize        int           `envconfig:"PAGE_SIZE"`
	PageDelay       time.Duration `envconfig:"PAGE_DELAY"`
	MaxPages        int           `envconfig:"MAX_PAGES"`
	Workers         int           `envconfig:"WORKERS"`
	UserAgent       string        `envconfig:"USER_AGENT"`
	Timeout         time.Duration `envconfig:"HTTP_TIMEOUT"`
}

// ExportConfig names the output files.
type ExportConfig struct {
	Dir      string `envconfig:"OUTPUT_DIR"`
	CSVFile  string `envconfig:"CSV_FILE"`
	XLSXFile string `envconfig:"XLSX_FILE"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `envconfig:"LOG_LEVEL"`
	Pretty bool   `envconfig:"LOG_PRETTY"`
}

// CacheConfig enables the Redis response cache for name lookups.
// An empty address disables it.
type CacheConfig struct {
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	RedisDB   int           `envconfig:"REDIS_DB"`
	TTL       time.Duration `envconfig:"CACHE_TTL"`
}

// MetricsConfig enables the Prometheus endpoint. Empty disables it.
type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR"`
}

// Load starts from Default, applies the environment and validates the result.
// Unset variables keep their default.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration of an empty environment. The values come
// from the packages that own them.
func Default() *Config {
	params := transactions.DefaultParams()
	api := client.DefaultConfig()
	logs := logging.DefaultConfig()

	return &Config{
		API: APIConfig{
			BaseURL:         api.BaseURL,
			CountryID:       params.CountryID,
			TransactionType: params.TransactionType,
			PageSize:        params.Limit,
			PageDelay:       pagination.DefaultConfig().Delay,
			Workers:         resolver.DefaultWorkers,
			UserAgent:       api.UserAgent,
			Timeout:         api.Timeout,
		},
		Export: ExportConfig{
			Dir:      ".",
			CSVFile:  export.DefaultCSVFile,
			XLSXFile: export.DefaultXLSXFile,
		},
		Logging: LoggingConfig{Level: string(logs.Level), Pretty: logs.Pretty},
		Cache:   CacheConfig{TTL: cache.DefaultTTL},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("base url cannot be empty")
	}
	if c.API.CountryID == "" {
		return fmt.Errorf("country id cannot be empty")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.API.PageSize)
	}
	if c.API.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.API.Workers)
	}
	if c.API.PageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if c.API.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Export.CSVFile == "" || c.Export.XLSXFile == "" {
		return fmt.Errorf("output file names cannot be empty")
	}
	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive when redis is enabled")
	}
	return nil
}

// CSVPath is the full path of the CSV export.
func (c *Config) CSVPath() string {
	return filepath.Join(c.Export.Dir, c.Export.CSVFile)
}

// XLSXPath is the full path of the spreadsheet export.
func (c *Config) XLSXPath() string {
	return filepath.Join(c.Export.Dir, c.Export.XLSXFile)
}
