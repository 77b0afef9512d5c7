package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// instagramResolver queries the profile JSON endpoint (?__a=1).
type instagramResolver struct {
	rest      *resty.Client
	limiter   *Limiter
	logger    *zap.Logger
	sessionID string
}

func newInstagramResolver(rest *resty.Client, limiter *Limiter, logger *zap.Logger, sessionID string) *instagramResolver {
	return &instagramResolver{rest: rest, limiter: limiter, logger: logger, sessionID: sessionID}
}

func (r *instagramResolver) Platform() enrich.SocialPlatform { return enrich.PlatformInstagram }

type instagramProfilePayload struct {
	Graphql struct {
		User struct {
			EdgeFollowedBy struct {
				Count *int64 `json:"count"`
			} `json:"edge_followed_by"`
		} `json:"user"`
	} `json:"graphql"`
}

// Resolve requests the profile's JSON representation and reads the
// follower edge count. Any shape mismatch (login wall, removed profile)
// resolves to nil.
func (r *instagramResolver) Resolve(ctx context.Context, profile enrich.SocialProfile) (count *int64, err error) {
	defer func() { observeResolution(enrich.PlatformInstagram, count, err) }()

	if err = r.limiter.Wait(ctx, enrich.PlatformInstagram); err != nil {
		return nil, err
	}
	req := r.rest.R().SetContext(ctx).SetQueryParam("__a", "1")
	if r.sessionID != "" {
		req.SetCookie(&http.Cookie{Name: "sessionid", Value: r.sessionID})
	}
	resp, err := req.Get(strings.TrimSuffix(profile.URL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("instagram profile fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("instagram profile returned status %d", resp.StatusCode())
	}
	var payload instagramProfilePayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		r.logger.Debug("instagram payload not json", zap.String("handle", profile.Handle), zap.Error(err))
		return nil, nil
	}
	c := payload.Graphql.User.EdgeFollowedBy.Count
	if c == nil || *c < 0 {
		return nil, nil
	}
	return c, nil
}
