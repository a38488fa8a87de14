// Command warera-cleanup rewrites existing export files: the CSV loses its
// byte order mark and the XLSX is copied into a fresh workbook.
package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/warera-trades/internal/config"
	"github.com/Sternrassler/warera-trades/internal/export"
	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warera-cleanup: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
		RunID:  uuid.NewString(),
	})

	if err := run(cfg); err != nil {
		logger.Error().Err(err).Msg("Cleanup failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	return export.Cleanup(export.Paths{CSV: cfg.CSVPath(), XLSX: cfg.XLSXPath()})
}
