package enrich

import (
	"context"
	"time"
)

// Fetcher performs one bounded, retried HTTP GET. Ordinary failures come
// back as a classified FetchResult; an error means the input itself was
// unusable (empty URL, unsupported scheme).
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// Classifier maps a FetchResult onto an AvailabilityStatus.
type Classifier interface {
	Classify(result FetchResult) AvailabilityStatus
}

// Extractor pulls page metadata out of fetched HTML, best effort.
type Extractor interface {
	Extract(html []byte) PageMetadata
}

// Discoverer finds social profile links in fetched HTML, resolving
// relative targets against baseURL and deduplicating by platform+handle.
type Discoverer interface {
	Discover(ctx context.Context, html []byte, baseURL string) ([]SocialProfile, error)
}

// Resolver obtains a follower count for one platform's profiles. A nil
// count with a nil error means the platform answered but the count is
// genuinely unavailable.
type Resolver interface {
	Platform() SocialPlatform
	Resolve(ctx context.Context, profile SocialProfile) (*int64, error)
}

// RecordSink receives completed records, exactly once, in input order.
type RecordSink interface {
	Write(ctx context.Context, record OrganizationRecord) error
	Close() error
}

// SnapshotStore archives raw homepage bodies and returns a URI.
type SnapshotStore interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes record-completed events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
