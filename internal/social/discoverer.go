package social

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// DiscovererConfig bounds the site scan.
type DiscovererConfig struct {
	// MaxPages is the total page budget per site, homepage included.
	MaxPages  int
	Timeout   time.Duration
	UserAgent string
}

// Discoverer scans a site for links to the supported platforms. The
// homepage body is scanned as-is; when the page budget allows, same-host
// pages linked from it are crawled too. Implements enrich.Discoverer.
type Discoverer struct {
	cfg    DiscovererConfig
	logger *zap.Logger
}

// NewDiscoverer builds a Discoverer.
func NewDiscoverer(cfg DiscovererConfig, logger *zap.Logger) *Discoverer {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "kruzhok-enricher/0.1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{cfg: cfg, logger: logger}
}

type profileKey struct {
	platform enrich.SocialPlatform
	handle   string
}

// Discover returns the deduplicated social profiles linked from the site.
func (d *Discoverer) Discover(ctx context.Context, html []byte, baseURL string) ([]enrich.SocialProfile, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	found := make(map[profileKey]enrich.SocialProfile)
	internal := d.scanDocument(html, base, found)

	if d.cfg.MaxPages > 1 && len(internal) > 0 {
		d.crawlSite(ctx, base, internal, found)
	}

	return orderProfiles(found), nil
}

// scanDocument collects platform links from one HTML document and returns
// the same-host links found alongside them.
func (d *Discoverer) scanDocument(html []byte, base *url.URL, found map[profileKey]enrich.SocialProfile) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		d.logger.Debug("homepage parse failed", zap.String("base", base.String()), zap.Error(err))
		return nil
	}

	var internal []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if d.recordLink(resolved, found) {
			return
		}
		if sameHost(base, resolved) && !seen[resolved.String()] {
			seen[resolved.String()] = true
			internal = append(internal, resolved.String())
		}
	})
	return internal
}

// crawlSite visits same-host pages within the remaining budget, scanning
// each for further platform links.
func (d *Discoverer) crawlSite(ctx context.Context, base *url.URL, links []string, found map[profileKey]enrich.SocialProfile) {
	host := strings.ToLower(base.Hostname())
	bare := strings.TrimPrefix(host, "www.")
	collector := colly.NewCollector(
		colly.AllowedDomains(host, bare, "www."+bare),
		colly.MaxDepth(1),
		colly.UserAgent(d.cfg.UserAgent),
	)
	collector.SetRequestTimeout(d.cfg.Timeout)

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		abs := e.Request.AbsoluteURL(e.Attr("href"))
		if abs == "" {
			return
		}
		u, err := url.Parse(abs)
		if err != nil {
			return
		}
		d.recordLink(u, found)
	})

	budget := d.cfg.MaxPages - 1
	for _, link := range links {
		if budget <= 0 || ctx.Err() != nil {
			return
		}
		if err := collector.Visit(link); err != nil {
			d.logger.Debug("site page visit failed", zap.String("url", link), zap.Error(err))
			continue
		}
		budget--
	}
}

// recordLink stores the link when it names a platform profile, reporting
// whether it matched a platform host at all.
func (d *Discoverer) recordLink(u *url.URL, found map[profileKey]enrich.SocialProfile) bool {
	platform, ok := DetectPlatform(u.Hostname())
	if !ok {
		return false
	}
	profile, ok := CanonicalProfile(platform, u)
	if !ok {
		return true
	}
	key := profileKey{platform: profile.Platform, handle: profile.Handle}
	if _, exists := found[key]; !exists {
		found[key] = profile
	}
	return true
}

func orderProfiles(found map[profileKey]enrich.SocialProfile) []enrich.SocialProfile {
	profiles := make([]enrich.SocialProfile, 0, len(found))
	for _, p := range found {
		profiles = append(profiles, p)
	}
	rank := make(map[enrich.SocialPlatform]int, len(enrich.Platforms()))
	for i, p := range enrich.Platforms() {
		rank[p] = i
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Platform != profiles[j].Platform {
			return rank[profiles[i].Platform] < rank[profiles[j].Platform]
		}
		return profiles[i].Handle < profiles[j].Handle
	})
	return profiles
}

func sameHost(a, b *url.URL) bool {
	return strings.EqualFold(a.Hostname(), b.Hostname())
}
