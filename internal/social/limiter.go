package social

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
	"github.com/kruzhok-data/org-enricher/internal/metrics"
)

// LimiterConfig holds rate limiter configuration.
type LimiterConfig struct {
	DefaultRPS   float64
	DefaultBurst int
	// PlatformRPS overrides the default rate per platform.
	PlatformRPS map[string]float64
}

// Limiter enforces a per-platform request rate shared by every
// concurrently enriched organization.
type Limiter struct {
	mu      sync.Mutex
	buckets map[enrich.SocialPlatform]*rate.Limiter
	cfg     LimiterConfig
}

// NewLimiter creates a Limiter.
func NewLimiter(cfg LimiterConfig) *Limiter {
	if cfg.DefaultBurst <= 0 {
		cfg.DefaultBurst = 1
	}
	return &Limiter{
		buckets: make(map[enrich.SocialPlatform]*rate.Limiter),
		cfg:     cfg,
	}
}

// Wait blocks until a token is available for the platform, respecting the
// context.
func (l *Limiter) Wait(ctx context.Context, platform enrich.SocialPlatform) error {
	l.mu.Lock()
	bucket, exists := l.buckets[platform]
	if !exists {
		bucket = rate.NewLimiter(l.rateFor(platform), l.cfg.DefaultBurst)
		l.buckets[platform] = bucket
	}
	l.mu.Unlock()

	start := time.Now()
	if err := bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(string(platform), waited)
	}
	return nil
}

func (l *Limiter) rateFor(platform enrich.SocialPlatform) rate.Limit {
	if rps, ok := l.cfg.PlatformRPS[string(platform)]; ok && rps > 0 {
		return rate.Limit(rps)
	}
	if l.cfg.DefaultRPS <= 0 {
		return rate.Inf
	}
	return rate.Limit(l.cfg.DefaultRPS)
}
