// Package publisher emits record-completed events for downstream
// consumers.
package publisher

import (
	"context"
	"fmt"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// Config selects and parametrizes the event publisher.
type Config struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// New builds the Publisher named by cfg.Provider.
func New(ctx context.Context, cfg Config) (enrich.Publisher, error) {
	switch cfg.Provider {
	case "pubsub":
		if cfg.ProjectID == "" || cfg.Topic == "" {
			return nil, fmt.Errorf("publisher provider is 'pubsub' but project_id or topic is not set")
		}
		return NewPubSub(ctx, cfg.ProjectID)
	case "memory":
		return NewMemory(), nil
	case "noop":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown publisher provider: %s", cfg.Provider)
	}
}

// Noop discards events.
type Noop struct{}

// Publish discards the payload.
func (Noop) Publish(context.Context, string, any) (string, error) {
	return "", nil
}
