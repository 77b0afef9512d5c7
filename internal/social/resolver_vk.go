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

// vkCounterPattern matches the member counter embedded in a VK community
// page. The count may carry thousands separators.
var vkCounterPattern = regexp.MustCompile(`<em class="pm_counter">([\d,\s\x{00a0}]+)</em>`)

// vkResolver scrapes community pages; VK exposes no anonymous counter API.
type vkResolver struct {
	rest    *resty.Client
	limiter *Limiter
	logger  *zap.Logger
}

func newVKResolver(rest *resty.Client, limiter *Limiter, logger *zap.Logger) *vkResolver {
	return &vkResolver{rest: rest, limiter: limiter, logger: logger}
}

func (r *vkResolver) Platform() enrich.SocialPlatform { return enrich.PlatformVK }

// Resolve fetches the profile page and extracts the member counter. A page
// without the counter (private or renamed community) resolves to nil.
func (r *vkResolver) Resolve(ctx context.Context, profile enrich.SocialProfile) (count *int64, err error) {
	defer func() { observeResolution(enrich.PlatformVK, count, err) }()

	if err = r.limiter.Wait(ctx, enrich.PlatformVK); err != nil {
		return nil, err
	}
	resp, err := r.rest.R().SetContext(ctx).Get(profile.URL)
	if err != nil {
		return nil, fmt.Errorf("vk page fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("vk page returned status %d", resp.StatusCode())
	}
	match := vkCounterPattern.FindSubmatch(resp.Body())
	if match == nil {
		return nil, nil
	}
	n, ok := parseCount(string(match[1]))
	if !ok {
		return nil, nil
	}
	return &n, nil
}
