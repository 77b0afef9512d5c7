// Package enrich defines core types shared across subsystems.
package enrich

import (
	"time"
)

// SocialPlatform identifies one of the supported social networks.
type SocialPlatform string

// Supported platforms, in the order profiles appear on a record.
const (
	PlatformVK        SocialPlatform = "vk"
	PlatformInstagram SocialPlatform = "instagram"
	PlatformFacebook  SocialPlatform = "facebook"
	PlatformTwitter   SocialPlatform = "twitter"
)

// Platforms returns the supported platforms in canonical order.
func Platforms() []SocialPlatform {
	return []SocialPlatform{PlatformVK, PlatformInstagram, PlatformFacebook, PlatformTwitter}
}

// Valid reports whether p is one of the supported platforms.
func (p SocialPlatform) Valid() bool {
	switch p {
	case PlatformVK, PlatformInstagram, PlatformFacebook, PlatformTwitter:
		return true
	}
	return false
}

// FetchClass categorizes the outcome of an HTTP fetch.
type FetchClass string

// Fetch outcome classes recorded on every FetchResult.
const (
	FetchSuccess        FetchClass = "success"
	FetchClientError    FetchClass = "client_error"
	FetchServerError    FetchClass = "server_error"
	FetchNetworkFailure FetchClass = "network_failure"
	FetchTimeout        FetchClass = "timeout"
	FetchTLSFailure     FetchClass = "tls_failure"
	FetchRedirectLoop   FetchClass = "redirect_loop"
)

// FetchResult is the outcome of one fetch, including retries.
// Ordinary failures are represented by Class, never by an error.
type FetchResult struct {
	Class      FetchClass
	StatusCode int
	Body       []byte
	FinalURL   string
	Duration   time.Duration
	Attempts   int
}

// OK reports whether the fetch produced a usable body.
func (r FetchResult) OK() bool {
	return r.Class == FetchSuccess
}

// AvailabilityStatus classifies whether an organization website answers.
type AvailabilityStatus string

// Availability values. Unknown is a legitimate classification, not a
// failure: it covers TLS errors, blocked requests, and redirect loops
// that must not be conflated with a dead site.
const (
	AvailabilityReachable   AvailabilityStatus = "reachable"
	AvailabilityUnreachable AvailabilityStatus = "unreachable"
	AvailabilityUnknown     AvailabilityStatus = "unknown"
)

// Organization is one immutable input entry from the seed list.
type Organization struct {
	ID      string `json:"id" mapstructure:"id"`
	Name    string `json:"name" mapstructure:"name"`
	SiteURL string `json:"site_url" mapstructure:"site_url"`
}

// PageMetadata holds the metadata extracted from a homepage. Every field
// is optional; absence is valid, not an error.
type PageMetadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Empty reports whether nothing was extracted.
func (m PageMetadata) Empty() bool {
	return m.Title == "" && m.Description == "" && len(m.Keywords) == 0
}

// SocialProfile is one discovered social account. Followers is nil when
// the count could not be resolved, which is distinct from a resolved 0.
type SocialProfile struct {
	Platform  SocialPlatform `json:"platform"`
	Handle    string         `json:"handle"`
	URL       string         `json:"url"`
	Followers *int64         `json:"followers,omitempty"`
}

// OrganizationRecord is the unit handed to the output sink: one per input
// organization, always emitted, possibly with null fields. Errors maps a
// stage name to the message that degraded it.
type OrganizationRecord struct {
	RunID        string             `json:"run_id"`
	Organization Organization       `json:"organization"`
	Availability AvailabilityStatus `json:"availability"`
	Metadata     PageMetadata       `json:"metadata"`
	Profiles     []SocialProfile    `json:"profiles,omitempty"`
	SnapshotURI  string             `json:"snapshot_uri,omitempty"`
	FetchMs      int64              `json:"fetch_ms,omitempty"`
	EnrichedAt   time.Time          `json:"enriched_at"`
	Errors       map[string]string  `json:"errors,omitempty"`
}

// Profile returns the record's profile for the given platform, if any.
func (r OrganizationRecord) Profile(platform SocialPlatform) (SocialProfile, bool) {
	for _, p := range r.Profiles {
		if p.Platform == platform {
			return p, true
		}
	}
	return SocialProfile{}, false
}

// RunProgress is a point-in-time snapshot of a pipeline run, served by
// the status API.
type RunProgress struct {
	RunID       string    `json:"run_id"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Reachable   int       `json:"reachable"`
	Unreachable int       `json:"unreachable"`
	Unknown     int       `json:"unknown"`
	Profiles    int       `json:"profiles"`
	StartedAt   time.Time `json:"started_at"`
}
