package social

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
	"github.com/kruzhok-data/org-enricher/internal/metrics"
)

// ResolverConfig carries the shared and per-platform resolver settings.
// Credentials are optional: an adapter that requires one fails at
// construction, which disables that adapter only, never the pipeline.
type ResolverConfig struct {
	Timeout   time.Duration
	UserAgent string

	// InstagramSessionID, when set, is sent as the sessionid cookie;
	// anonymous profile JSON is frequently behind a login wall.
	InstagramSessionID string
	// TwitterBearerToken switches the twitter adapter from the public
	// syndication endpoint to the official v2 API.
	TwitterBearerToken string
}

// NewResolvers builds one adapter per supported platform.
func NewResolvers(cfg ResolverConfig, limiter *Limiter, logger *zap.Logger) map[enrich.SocialPlatform]enrich.Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	rest := newRestClient(cfg)
	return map[enrich.SocialPlatform]enrich.Resolver{
		enrich.PlatformVK:        newVKResolver(rest, limiter, logger),
		enrich.PlatformInstagram: newInstagramResolver(rest, limiter, logger, cfg.InstagramSessionID),
		enrich.PlatformFacebook:  newFacebookResolver(rest, limiter, logger),
		enrich.PlatformTwitter:   newTwitterResolver(rest, limiter, logger, cfg.TwitterBearerToken),
	}
}

func newRestClient(cfg ResolverConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "kruzhok-enricher/0.1"
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		// English pages keep the follower-count phrasing stable.
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetRetryCount(0)
}

// parseCount turns a formatted counter ("1,532", "12 407") into an int64.
func parseCount(raw string) (int64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func observeResolution(platform enrich.SocialPlatform, count *int64, err error) {
	outcome := "resolved"
	switch {
	case err != nil:
		outcome = "error"
	case count == nil:
		outcome = "missing"
	}
	metrics.ObserveResolution(string(platform), outcome)
}
