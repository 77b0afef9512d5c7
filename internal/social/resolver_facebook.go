package social

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// facebookFollowPattern matches the follower blurb on the English page
// rendering; the fetch forces Accept-Language accordingly.
var facebookFollowPattern = regexp.MustCompile(`([\d,]+) people follow this`)

// facebookResolver scrapes the public page rendering.
type facebookResolver struct {
	rest    *resty.Client
	limiter *Limiter
	logger  *zap.Logger
}

func newFacebookResolver(rest *resty.Client, limiter *Limiter, logger *zap.Logger) *facebookResolver {
	return &facebookResolver{rest: rest, limiter: limiter, logger: logger}
}

func (r *facebookResolver) Platform() enrich.SocialPlatform { return enrich.PlatformFacebook }

// Resolve fetches the page and extracts the follower blurb. Pages behind
// a login wall or without the blurb resolve to nil.
func (r *facebookResolver) Resolve(ctx context.Context, profile enrich.SocialProfile) (count *int64, err error) {
	defer func() { observeResolution(enrich.PlatformFacebook, count, err) }()

	if err = r.limiter.Wait(ctx, enrich.PlatformFacebook); err != nil {
		return nil, err
	}
	resp, err := r.rest.R().SetContext(ctx).Get(profile.URL)
	if err != nil {
		return nil, fmt.Errorf("facebook page fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("facebook page returned status %d", resp.StatusCode())
	}
	match := facebookFollowPattern.FindSubmatch(resp.Body())
	if match == nil {
		return nil, nil
	}
	n, ok := parseCount(string(match[1]))
	if !ok {
		return nil, nil
	}
	return &n, nil
}
