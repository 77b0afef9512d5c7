package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

const (
	twitterSyndicationURL = "https://cdn.syndication.twimg.com/widgets/followbutton/info.json"
	twitterAPIBaseURL     = "https://api.twitter.com"
)

// twitterResolver uses the follow-button syndication endpoint, or the
// official v2 API when a bearer token is configured.
type twitterResolver struct {
	rest           *resty.Client
	limiter        *Limiter
	logger         *zap.Logger
	bearerToken    string
	syndicationURL string
	apiBaseURL     string
}

func newTwitterResolver(rest *resty.Client, limiter *Limiter, logger *zap.Logger, bearerToken string) *twitterResolver {
	return &twitterResolver{
		rest:           rest,
		limiter:        limiter,
		logger:         logger,
		bearerToken:    bearerToken,
		syndicationURL: twitterSyndicationURL,
		apiBaseURL:     twitterAPIBaseURL,
	}
}

func (r *twitterResolver) Platform() enrich.SocialPlatform { return enrich.PlatformTwitter }

// Resolve looks up the follower count for the profile's screen name.
func (r *twitterResolver) Resolve(ctx context.Context, profile enrich.SocialProfile) (count *int64, err error) {
	defer func() { observeResolution(enrich.PlatformTwitter, count, err) }()

	if err = r.limiter.Wait(ctx, enrich.PlatformTwitter); err != nil {
		return nil, err
	}
	if r.bearerToken != "" {
		return r.resolveAPI(ctx, profile.Handle)
	}
	return r.resolveSyndication(ctx, profile.Handle)
}

func (r *twitterResolver) resolveSyndication(ctx context.Context, screenName string) (*int64, error) {
	resp, err := r.rest.R().
		SetContext(ctx).
		SetQueryParam("screen_names", screenName).
		Get(r.syndicationURL)
	if err != nil {
		return nil, fmt.Errorf("twitter syndication fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("twitter syndication returned status %d", resp.StatusCode())
	}
	var payload []struct {
		FollowersCount *int64 `json:"followers_count"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		r.logger.Debug("twitter syndication payload not json", zap.String("handle", screenName), zap.Error(err))
		return nil, nil
	}
	if len(payload) == 0 || payload[0].FollowersCount == nil || *payload[0].FollowersCount < 0 {
		return nil, nil
	}
	return payload[0].FollowersCount, nil
}

func (r *twitterResolver) resolveAPI(ctx context.Context, screenName string) (*int64, error) {
	resp, err := r.rest.R().
		SetContext(ctx).
		SetAuthToken(r.bearerToken).
		SetQueryParam("user.fields", "public_metrics").
		Get(r.apiBaseURL + "/2/users/by/username/" + screenName)
	if err != nil {
		return nil, fmt.Errorf("twitter api fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("twitter api returned status %d", resp.StatusCode())
	}
	var payload struct {
		Data struct {
			PublicMetrics struct {
				FollowersCount *int64 `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		r.logger.Debug("twitter api payload not json", zap.String("handle", screenName), zap.Error(err))
		return nil, nil
	}
	c := payload.Data.PublicMetrics.FollowersCount
	if c == nil || *c < 0 {
		return nil, nil
	}
	return c, nil
}
