// Package social discovers social profile links on organization sites and
// resolves follower counts through per-platform adapters.
package social

import (
	"net/url"
	"strings"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// platformHosts maps each platform to the hostnames it is linked under.
var platformHosts = map[enrich.SocialPlatform][]string{
	enrich.PlatformVK:        {"vk.com"},
	enrich.PlatformInstagram: {"instagram.com"},
	enrich.PlatformFacebook:  {"facebook.com", "fb.com", "fb.me"},
	enrich.PlatformTwitter:   {"twitter.com", "x.com"},
}

// primaryHost is the hostname used when rebuilding a canonical profile URL.
var primaryHost = map[enrich.SocialPlatform]string{
	enrich.PlatformVK:        "vk.com",
	enrich.PlatformInstagram: "instagram.com",
	enrich.PlatformFacebook:  "facebook.com",
	enrich.PlatformTwitter:   "twitter.com",
}

// nonProfileSegments are first path segments that never name a profile.
var nonProfileSegments = map[string]bool{
	"share":       true,
	"sharer":      true,
	"sharer.php":  true,
	"intent":      true,
	"search":      true,
	"hashtag":     true,
	"login":       true,
	"signup":      true,
	"home":        true,
	"help":        true,
	"policies":    true,
	"privacy":     true,
	"terms":       true,
	"about":       true,
	"legal":       true,
	"explore":     true,
	"settings":    true,
	"plugins":     true,
	"dialog":      true,
	"i":           true,
	"accounts":    true,
	"p":           true,
	"reel":        true,
	"stories":     true,
	"feed":        true,
	"video":       true,
	"watch":       true,
	"events":      true,
	"groups":      false, // vk group pages are profiles; facebook groups are handled below
}

// DetectPlatform reports which platform, if any, the host belongs to.
func DetectPlatform(host string) (enrich.SocialPlatform, bool) {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	host = strings.TrimPrefix(host, "m.")
	for _, platform := range enrich.Platforms() {
		for _, candidate := range platformHosts[platform] {
			if host == candidate || strings.HasSuffix(host, "."+candidate) {
				return platform, true
			}
		}
	}
	return "", false
}

// CanonicalProfile normalizes a platform link to its canonical handle and
// profile URL: scheme, query, fragment, and trailing slashes are stripped
// and the handle is lowercased. Links that cannot name a profile (share
// widgets, search pages) report ok=false.
func CanonicalProfile(platform enrich.SocialPlatform, u *url.URL) (enrich.SocialProfile, bool) {
	path := strings.Trim(u.EscapedPath(), "/")
	if path == "" {
		return enrich.SocialProfile{}, false
	}
	segments := strings.Split(path, "/")
	first := strings.ToLower(segments[0])

	// facebook.com/profile.php?id=N is the one profile shape that lives
	// in the query string.
	if platform == enrich.PlatformFacebook && first == "profile.php" {
		id := u.Query().Get("id")
		if id == "" {
			return enrich.SocialProfile{}, false
		}
		return enrich.SocialProfile{
			Platform: platform,
			Handle:   "id" + id,
			URL:      "https://" + primaryHost[platform] + "/profile.php?id=" + id,
		}, true
	}

	if blocked, listed := nonProfileSegments[first]; listed && blocked {
		return enrich.SocialProfile{}, false
	}

	handle := strings.TrimPrefix(first, "@")
	if handle == "" {
		return enrich.SocialProfile{}, false
	}

	// facebook.com/pages/Name/123 and facebook.com/groups/name carry the
	// identity in a later segment. The handle is the identity alone, but
	// the rebuilt URL must keep the namespace: facebook.com/<id> and
	// facebook.com/groups/<id> are different surfaces.
	if platform == enrich.PlatformFacebook && (first == "pages" || first == "groups") && len(segments) > 1 {
		handle = strings.ToLower(strings.Trim(segments[len(segments)-1], "/"))
		if handle == "" {
			return enrich.SocialProfile{}, false
		}
		return enrich.SocialProfile{
			Platform: platform,
			Handle:   handle,
			URL:      "https://" + primaryHost[platform] + "/" + path,
		}, true
	}

	return enrich.SocialProfile{
		Platform: platform,
		Handle:   handle,
		URL:      "https://" + primaryHost[platform] + "/" + handle,
	}, true
}
