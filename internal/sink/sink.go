// Package sink delivers completed records to the configured output.
package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// Config selects and parametrizes the record sink.
type Config struct {
	Provider    string `mapstructure:"provider"`
	CSVPath     string `mapstructure:"csv_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// New builds the RecordSink named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (enrich.RecordSink, error) {
	switch cfg.Provider {
	case "csv":
		if cfg.CSVPath == "" {
			return nil, fmt.Errorf("sink provider is 'csv' but sink.csv_path is not set")
		}
		return NewCSV(cfg.CSVPath)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("sink provider is 'postgres' but sink.postgres_dsn is not set")
		}
		return NewPostgres(ctx, cfg.PostgresDSN, logger)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown sink provider: %s", cfg.Provider)
	}
}
