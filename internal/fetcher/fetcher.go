// Package fetcher implements the retried, failure-classified HTTP fetch
// every other probe builds on.
package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
	"github.com/kruzhok-data/org-enricher/internal/metrics"
)

// Config controls client behavior.
type Config struct {
	Timeout      time.Duration
	MaxRetries   int
	MaxRedirects int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	UserAgent    string
}

// Client fetches URLs with bounded timeouts and jittered retries. It
// implements enrich.Fetcher.
type Client struct {
	rest   *resty.Client
	policy *RetryPolicy
	logger *zap.Logger
}

// New builds a Client. The timeout must be positive; that is the one
// programmer-error input the fetcher refuses instead of classifying.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("fetch timeout must be > 0, got %s", cfg.Timeout)
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "kruzhok-enricher/0.1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rest := resty.New().
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects)).
		SetHeader("User-Agent", cfg.UserAgent).
		// Force English pages so the follower-count patterns match.
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetRetryCount(0)

	return &Client{
		rest:   rest,
		policy: NewRetryPolicy(cfg.MaxRetries, cfg.BackoffBase, cfg.BackoffMax),
		logger: logger,
	}, nil
}

// Fetch performs a GET against rawURL, retrying transient failures, and
// returns a classified result. Only an unusable URL produces an error.
func (c *Client) Fetch(ctx context.Context, rawURL string) (enrich.FetchResult, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return enrich.FetchResult{}, err
	}

	start := time.Now()
	var result enrich.FetchResult
	for attempt := 0; ; attempt++ {
		result = c.attempt(ctx, target)
		result.Attempts = attempt + 1
		metrics.ObserveFetch(target, string(result.Class))
		if result.Class == enrich.FetchSuccess || result.Class == enrich.FetchClientError {
			break
		}
		if !c.policy.ShouldRetry(ctx, result.Class, attempt) {
			break
		}
		wait := c.policy.Backoff(attempt)
		c.logger.Debug("retrying fetch",
			zap.String("url", target),
			zap.String("class", string(result.Class)),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
		)
		if err := sleep(ctx, wait); err != nil {
			break
		}
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (c *Client) attempt(ctx context.Context, target string) enrich.FetchResult {
	resp, err := c.rest.R().SetContext(ctx).Get(target)
	if err != nil {
		return enrich.FetchResult{
			Class:    classifyError(ctx, err),
			FinalURL: target,
		}
	}

	result := enrich.FetchResult{
		StatusCode: resp.StatusCode(),
		FinalURL:   finalURL(resp, target),
	}
	switch {
	case resp.StatusCode() >= 500:
		result.Class = enrich.FetchServerError
	case resp.StatusCode() >= 400:
		result.Class = enrich.FetchClientError
	default:
		result.Class = enrich.FetchSuccess
		result.Body = append([]byte(nil), resp.Body()...)
	}
	return result
}

// NormalizeURL prepends a scheme to schemeless input (seed lists routinely
// carry bare hostnames) and rejects anything that is not plain HTTP(S).
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

func classifyError(ctx context.Context, err error) enrich.FetchClass {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return enrich.FetchTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return enrich.FetchTimeout
	}
	if isTLSError(err) {
		return enrich.FetchTLSFailure
	}
	if strings.Contains(err.Error(), "redirect") {
		return enrich.FetchRedirectLoop
	}
	return enrich.FetchNetworkFailure
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:")
}

func finalURL(resp *resty.Response, fallback string) string {
	raw := resp.RawResponse
	if raw != nil && raw.Request != nil && raw.Request.URL != nil {
		return raw.Request.URL.String()
	}
	return fallback
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
