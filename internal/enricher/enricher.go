// Package enricher orchestrates the per-organization probes and merges
// their partial results into one record.
package enricher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
	"github.com/kruzhok-data/org-enricher/internal/metrics"
)

// Config controls Enricher behavior.
type Config struct {
	// Timeout bounds the total enrichment time per organization; on
	// expiry, whatever was gathered is merged and emitted.
	Timeout             time.Duration
	SnapshotPrefix      string
	SnapshotContentType string
}

// Enricher runs the probe stages for one organization: fetch the
// homepage, then classify availability, extract metadata, and discover
// social links off the fetched body, then resolve follower counts
// concurrently. No stage's failure aborts another; failures degrade the
// affected field and are annotated on the record.
type Enricher struct {
	fetcher    enrich.Fetcher
	classifier enrich.Classifier
	extractor  enrich.Extractor
	discoverer enrich.Discoverer
	resolvers  map[enrich.SocialPlatform]enrich.Resolver
	snapshots  enrich.SnapshotStore
	clock      enrich.Clock
	cfg        Config
	logger     *zap.Logger
}

// New constructs an Enricher. snapshots may be nil to skip archiving.
func New(
	fetcher enrich.Fetcher,
	classifier enrich.Classifier,
	extractor enrich.Extractor,
	discoverer enrich.Discoverer,
	resolvers map[enrich.SocialPlatform]enrich.Resolver,
	snapshots enrich.SnapshotStore,
	clock enrich.Clock,
	cfg Config,
	logger *zap.Logger,
) *Enricher {
	if clock == nil {
		clock = enrich.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SnapshotContentType == "" {
		cfg.SnapshotContentType = "text/html; charset=utf-8"
	}
	return &Enricher{
		fetcher:    fetcher,
		classifier: classifier,
		extractor:  extractor,
		discoverer: discoverer,
		resolvers:  resolvers,
		snapshots:  snapshots,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Enrich produces exactly one record for the organization, however badly
// the probes go.
func (e *Enricher) Enrich(ctx context.Context, runID string, org enrich.Organization) enrich.OrganizationRecord {
	start := time.Now()
	metrics.IncActiveEnrichments()
	defer func() {
		metrics.DecActiveEnrichments()
		metrics.ObserveEnrichment(time.Since(start))
	}()

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	record := enrich.OrganizationRecord{
		RunID:        runID,
		Organization: org,
		Availability: enrich.AvailabilityUnknown,
		EnrichedAt:   e.clock.Now(),
		Errors:       make(map[string]string),
	}

	if strings.TrimSpace(org.SiteURL) == "" {
		record.Errors["site_url"] = "no website url in seed list"
		metrics.ObserveOrganization(string(record.Availability))
		return record
	}

	result, err := e.fetcher.Fetch(ctx, org.SiteURL)
	if err != nil {
		record.Errors["fetch"] = err.Error()
		metrics.ObserveOrganization(string(record.Availability))
		return record
	}
	record.FetchMs = result.Duration.Milliseconds()
	record.Availability = e.classifier.Classify(result)

	if result.OK() && len(result.Body) > 0 {
		record.Metadata = e.extractor.Extract(result.Body)
		e.discoverProfiles(ctx, &record, result)
		e.archiveSnapshot(ctx, &record, result)
		e.resolveFollowers(ctx, &record)
	}

	metrics.ObserveOrganization(string(record.Availability))
	e.logger.Debug("organization enriched",
		zap.String("org_id", org.ID),
		zap.String("availability", string(record.Availability)),
		zap.Int("profiles", len(record.Profiles)),
		zap.Int("degraded_fields", len(record.Errors)),
	)
	return record
}

func (e *Enricher) discoverProfiles(ctx context.Context, record *enrich.OrganizationRecord, result enrich.FetchResult) {
	profiles, err := e.discoverer.Discover(ctx, result.Body, result.FinalURL)
	if err != nil {
		record.Errors["social.discover"] = err.Error()
		return
	}
	record.Profiles = uniquePerPlatform(profiles)
}

// resolveFollowers fans out across the platforms present on the record.
// Adapter failures degrade that one profile's count to nil and never
// block the other platforms.
func (e *Enricher) resolveFollowers(ctx context.Context, record *enrich.OrganizationRecord) {
	if len(record.Profiles) == 0 {
		return
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i := range record.Profiles {
		profile := &record.Profiles[i]
		g.Go(func() error {
			resolver, ok := e.resolvers[profile.Platform]
			if !ok {
				mu.Lock()
				record.Errors["social."+string(profile.Platform)] = "no resolver configured"
				mu.Unlock()
				return nil
			}
			count, err := resolver.Resolve(gctx, *profile)
			if err != nil {
				mu.Lock()
				record.Errors["social."+string(profile.Platform)] = err.Error()
				mu.Unlock()
				return nil
			}
			profile.Followers = count
			return nil
		})
	}
	// Errors are absorbed per platform above.
	_ = g.Wait()
}

func (e *Enricher) archiveSnapshot(ctx context.Context, record *enrich.OrganizationRecord, result enrich.FetchResult) {
	if e.snapshots == nil {
		return
	}
	path := snapshotPath(e.cfg.SnapshotPrefix, record.Organization.ID, result.FinalURL)
	uri, err := e.snapshots.Put(ctx, path, e.cfg.SnapshotContentType, result.Body)
	if err != nil {
		record.Errors["snapshot"] = err.Error()
		return
	}
	record.SnapshotURI = uri
}

// uniquePerPlatform keeps the first profile per platform so a record
// never carries two entries for the same platform.
func uniquePerPlatform(profiles []enrich.SocialProfile) []enrich.SocialProfile {
	if len(profiles) == 0 {
		return nil
	}
	seen := make(map[enrich.SocialPlatform]bool, len(profiles))
	kept := make([]enrich.SocialProfile, 0, len(profiles))
	for _, p := range profiles {
		if seen[p.Platform] {
			continue
		}
		seen[p.Platform] = true
		kept = append(kept, p)
	}
	return kept
}

func snapshotPath(prefix, orgID, finalURL string) string {
	sum := sha256.Sum256([]byte(finalURL))
	name := hex.EncodeToString(sum[:])[:16]
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.html", orgID, name)
	}
	return fmt.Sprintf("%s/%s/%s.html", prefix, orgID, name)
}
