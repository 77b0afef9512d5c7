// Package pipeline drives enrichment over the seed list and delivers
// records to the sink in input order.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// Enricher produces one record per organization, never failing.
type Enricher interface {
	Enrich(ctx context.Context, runID string, org enrich.Organization) enrich.OrganizationRecord
}

// Config controls Driver behavior.
type Config struct {
	Concurrency int
	// Topic names the record-event topic; empty disables publishing.
	Topic string
}

// Driver fans organizations out to a bounded worker pool and fans the
// records back in, restoring input order at the sink boundary. One
// organization's crash degrades its own record only.
type Driver struct {
	enricher  Enricher
	sink      enrich.RecordSink
	publisher enrich.Publisher
	clock     enrich.Clock
	cfg       Config
	logger    *zap.Logger

	mu       sync.Mutex
	progress enrich.RunProgress
}

// New constructs a Driver. publisher may be nil.
func New(
	enricher Enricher,
	sink enrich.RecordSink,
	publisher enrich.Publisher,
	clock enrich.Clock,
	cfg Config,
	logger *zap.Logger,
) *Driver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if clock == nil {
		clock = enrich.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		enricher:  enricher,
		sink:      sink,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Summary aggregates one finished run.
type Summary struct {
	RunID       string
	Total       int
	Reachable   int
	Unreachable int
	Unknown     int
	Profiles    int
}

type indexedRecord struct {
	index  int
	record enrich.OrganizationRecord
}

// Run enriches every organization and writes exactly one record each, in
// input order, to the sink. Only sink failures and cancellation are
// fatal; everything else degrades individual records.
func (d *Driver) Run(ctx context.Context, orgs []enrich.Organization) (Summary, error) {
	runID := uuid.NewString()
	d.mu.Lock()
	d.progress = enrich.RunProgress{
		RunID:     runID,
		Total:     len(orgs),
		StartedAt: d.clock.Now(),
	}
	d.mu.Unlock()

	summary := Summary{RunID: runID, Total: len(orgs)}
	if len(orgs) == 0 {
		return summary, nil
	}

	// An early return (sink failure) must also release the feeder and
	// workers, not just external cancellation.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan indexedRecord)
	results := make(chan indexedRecord, d.cfg.Concurrency)

	var wg sync.WaitGroup
	for range d.cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				record := indexedRecord{
					index:  job.index,
					record: d.enrichSafely(ctx, runID, job.record.Organization),
				}
				select {
				case results <- record:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, org := range orgs {
			select {
			case <-ctx.Done():
				return
			case jobs <- indexedRecord{index: i, record: enrich.OrganizationRecord{Organization: org}}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Records complete out of order; buffer them until the next input
	// index is ready so the sink sees input order.
	pending := make(map[int]enrich.OrganizationRecord)
	next := 0
	for res := range results {
		pending[res.index] = res.record
		for {
			record, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := d.deliver(ctx, record, &summary); err != nil {
				return summary, err
			}
			next++
		}
	}

	if err := ctx.Err(); err != nil && next < len(orgs) {
		return summary, fmt.Errorf("run canceled after %d of %d records: %w", next, len(orgs), err)
	}
	return summary, nil
}

// Progress returns a snapshot of the current run for the status API.
func (d *Driver) Progress() enrich.RunProgress {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progress
}

func (d *Driver) enrichSafely(ctx context.Context, runID string, org enrich.Organization) (record enrich.OrganizationRecord) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("enrichment panicked",
				zap.String("org_id", org.ID),
				zap.Any("panic", r),
			)
			record = enrich.OrganizationRecord{
				RunID:        runID,
				Organization: org,
				Availability: enrich.AvailabilityUnknown,
				EnrichedAt:   d.clock.Now(),
				Errors:       map[string]string{"enrich": fmt.Sprintf("panic: %v", r)},
			}
		}
	}()
	return d.enricher.Enrich(ctx, runID, org)
}

func (d *Driver) deliver(ctx context.Context, record enrich.OrganizationRecord, summary *Summary) error {
	if err := d.sink.Write(ctx, record); err != nil {
		return fmt.Errorf("sink write for %s: %w", record.Organization.ID, err)
	}
	d.publish(ctx, record)

	switch record.Availability {
	case enrich.AvailabilityReachable:
		summary.Reachable++
	case enrich.AvailabilityUnreachable:
		summary.Unreachable++
	default:
		summary.Unknown++
	}
	summary.Profiles += len(record.Profiles)

	d.mu.Lock()
	d.progress.Processed++
	d.progress.Profiles += len(record.Profiles)
	switch record.Availability {
	case enrich.AvailabilityReachable:
		d.progress.Reachable++
	case enrich.AvailabilityUnreachable:
		d.progress.Unreachable++
	default:
		d.progress.Unknown++
	}
	d.mu.Unlock()
	return nil
}

// publish is best effort: losing an event never fails the run.
func (d *Driver) publish(ctx context.Context, record enrich.OrganizationRecord) {
	if d.publisher == nil || d.cfg.Topic == "" {
		return
	}
	payload := map[string]any{
		"run_id":       record.RunID,
		"org_id":       record.Organization.ID,
		"availability": string(record.Availability),
		"profiles":     len(record.Profiles),
		"snapshot_uri": record.SnapshotURI,
	}
	if _, err := d.publisher.Publish(ctx, d.cfg.Topic, payload); err != nil {
		d.logger.Warn("record event publish failed",
			zap.String("org_id", record.Organization.ID),
			zap.Error(err),
		)
	}
}
