package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

func TestLimiterUnconfiguredDoesNotBlock(t *testing.T) {
	l := NewLimiter(LimiterConfig{})
	start := time.Now()
	for range 50 {
		require.NoError(t, l.Wait(context.Background(), enrich.PlatformVK))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiterThrottlesPerPlatform(t *testing.T) {
	l := NewLimiter(LimiterConfig{DefaultRPS: 20, DefaultBurst: 1})

	start := time.Now()
	for range 3 {
		require.NoError(t, l.Wait(context.Background(), enrich.PlatformFacebook))
	}
	// Burst of one plus two refills at 20 rps is roughly 100ms.
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	// A different platform has its own bucket and is not starved.
	quick := time.Now()
	require.NoError(t, l.Wait(context.Background(), enrich.PlatformVK))
	require.Less(t, time.Since(quick), 50*time.Millisecond)
}

func TestLimiterPlatformOverride(t *testing.T) {
	l := NewLimiter(LimiterConfig{
		DefaultRPS:  1,
		PlatformRPS: map[string]float64{"twitter": 1000},
	})

	start := time.Now()
	for range 5 {
		require.NoError(t, l.Wait(context.Background(), enrich.PlatformTwitter))
	}
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestLimiterHonorsCancellation(t *testing.T) {
	l := NewLimiter(LimiterConfig{DefaultRPS: 0.1, DefaultBurst: 1})

	// Drain the burst token first.
	require.NoError(t, l.Wait(context.Background(), enrich.PlatformInstagram))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, enrich.PlatformInstagram)
	require.Error(t, err)
}
