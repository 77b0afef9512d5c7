// Package source loads the ordered organization seed list.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// Provider returns the ordered seed list the pipeline consumes.
type Provider interface {
	List(ctx context.Context) ([]enrich.Organization, error)
}

// Config selects and parametrizes the seed provider.
type Config struct {
	Provider       string `mapstructure:"provider"`
	FilePath       string `mapstructure:"file_path"`
	CatalogURL     string `mapstructure:"catalog_url"`
	Orientation    string `mapstructure:"orientation"`
	PerPage        int    `mapstructure:"per_page"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// New builds the Provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("source provider is 'file' but source.file_path is not set")
		}
		return NewFile(cfg.FilePath), nil
	case "catalog":
		if cfg.CatalogURL == "" {
			return nil, fmt.Errorf("source provider is 'catalog' but source.catalog_url is not set")
		}
		return NewCatalog(CatalogConfig{
			BaseURL:     cfg.CatalogURL,
			Orientation: cfg.Orientation,
			PerPage:     cfg.PerPage,
			Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown source provider: %s", cfg.Provider)
	}
}
