package fetcher

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// RetryPolicy decides which fetch outcomes are worth another attempt and
// how long to wait between attempts.
type RetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryPolicy builds a policy. Non-positive delays fall back to sane
// defaults; maxRetries < 0 is treated as 0.
func NewRetryPolicy(maxRetries int, baseDelay, maxDelay time.Duration) *RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 250 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	return &RetryPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// ShouldRetry reports whether a fetch that ended with class is worth
// retrying after the given zero-based attempt. Transient classes
// (timeout, connection failure, 5xx) are retryable; 4xx and TLS or
// redirect trouble never are.
func (p *RetryPolicy) ShouldRetry(ctx context.Context, class enrich.FetchClass, attempt int) bool {
	if ctx.Err() != nil {
		return false
	}
	if attempt >= p.maxRetries {
		return false
	}
	switch class {
	case enrich.FetchTimeout, enrich.FetchNetworkFailure, enrich.FetchServerError:
		return true
	default:
		return false
	}
}

// Backoff returns the jittered wait before the next attempt.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := p.randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func (p *RetryPolicy) randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
