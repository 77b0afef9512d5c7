// Package archive stores raw homepage snapshots so reruns are diffable
// without refetching.
package archive

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// Config selects and parametrizes the snapshot store.
type Config struct {
	Provider  string `mapstructure:"provider"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// New builds the SnapshotStore named by cfg.Provider.
func New(ctx context.Context, cfg Config) (enrich.SnapshotStore, error) {
	switch cfg.Provider {
	case "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("archive provider is 'local' but archive.local_dir is not set")
		}
		return NewLocal(cfg.LocalDir)
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("archive provider is 'gcs' but archive.gcs_bucket is not set")
		}
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		return NewGCS(client, cfg.GCSBucket)
	case "memory":
		return NewMemory(), nil
	case "noop":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", cfg.Provider)
	}
}

// Noop discards snapshots.
type Noop struct{}

// Put discards the data and returns an empty URI.
func (Noop) Put(context.Context, string, string, []byte) (string, error) {
	return "", nil
}
