package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
	"github.com/kruzhok-data/org-enricher/internal/publisher"
	"github.com/kruzhok-data/org-enricher/internal/sink"
)

// fakeEnricher emits a canned record per organization, optionally after a
// random delay so completion order differs from input order.
type fakeEnricher struct {
	jitter  time.Duration
	panicOn string
}

func (f *fakeEnricher) Enrich(_ context.Context, runID string, org enrich.Organization) enrich.OrganizationRecord {
	if org.ID == f.panicOn {
		panic("boom: " + org.ID)
	}
	if f.jitter > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(f.jitter))))
	}
	availability := enrich.AvailabilityReachable
	if org.SiteURL == "" {
		availability = enrich.AvailabilityUnknown
	}
	return enrich.OrganizationRecord{
		RunID:        runID,
		Organization: org,
		Availability: availability,
		Errors:       map[string]string{},
	}
}

type failingSink struct {
	failOn string
	wrote  []string
}

func (s *failingSink) Write(_ context.Context, record enrich.OrganizationRecord) error {
	if record.Organization.ID == s.failOn {
		return errors.New("disk full")
	}
	s.wrote = append(s.wrote, record.Organization.ID)
	return nil
}

func (s *failingSink) Close() error { return nil }

func makeOrgs(n int) []enrich.Organization {
	orgs := make([]enrich.Organization, n)
	for i := range orgs {
		orgs[i] = enrich.Organization{
			ID:      fmt.Sprintf("org-%03d", i),
			Name:    fmt.Sprintf("Club %d", i),
			SiteURL: fmt.Sprintf("http://club-%d.example/", i),
		}
	}
	return orgs
}

func TestRunEmitsOneRecordPerInputInOrder(t *testing.T) {
	orgs := makeOrgs(40)
	memory := sink.NewMemory()
	driver := New(&fakeEnricher{jitter: 5 * time.Millisecond}, memory, nil, nil, Config{Concurrency: 8}, nil)

	summary, err := driver.Run(context.Background(), orgs)
	require.NoError(t, err)
	require.Equal(t, len(orgs), summary.Total)
	require.Equal(t, len(orgs), summary.Reachable)

	records := memory.Records()
	require.Len(t, records, len(orgs))
	for i, record := range records {
		require.Equal(t, orgs[i].ID, record.Organization.ID, "record %d out of order", i)
		require.Equal(t, summary.RunID, record.RunID)
	}
}

func TestRunPanicDegradesOnlyThatRecord(t *testing.T) {
	orgs := makeOrgs(10)
	memory := sink.NewMemory()
	driver := New(&fakeEnricher{panicOn: "org-004"}, memory, nil, nil, Config{Concurrency: 4}, nil)

	summary, err := driver.Run(context.Background(), orgs)
	require.NoError(t, err)
	require.Equal(t, 10, summary.Total)
	require.Equal(t, 9, summary.Reachable)
	require.Equal(t, 1, summary.Unknown)

	records := memory.Records()
	require.Len(t, records, 10)
	crashed := records[4]
	require.Equal(t, "org-004", crashed.Organization.ID)
	require.Equal(t, enrich.AvailabilityUnknown, crashed.Availability)
	require.Contains(t, crashed.Errors["enrich"], "panic")
}

func TestRunSinkFailureIsFatal(t *testing.T) {
	orgs := makeOrgs(6)
	badSink := &failingSink{failOn: "org-003"}
	driver := New(&fakeEnricher{}, badSink, nil, nil, Config{Concurrency: 2}, nil)

	_, err := driver.Run(context.Background(), orgs)
	require.Error(t, err)
	require.Contains(t, err.Error(), "org-003")
	// Everything before the failure was already delivered in order.
	require.Equal(t, []string{"org-000", "org-001", "org-002"}, badSink.wrote)
}

func TestRunSinkFailureReleasesWorkers(t *testing.T) {
	before := runtime.NumGoroutine()

	badSink := &failingSink{failOn: "org-000"}
	driver := New(&fakeEnricher{}, badSink, nil, nil, Config{Concurrency: 8}, nil)

	_, err := driver.Run(context.Background(), makeOrgs(100))
	require.Error(t, err)

	// The feeder, the workers, and the results closer must all exit once
	// Run has returned the sink error.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunEmptyInput(t *testing.T) {
	driver := New(&fakeEnricher{}, sink.NewMemory(), nil, nil, Config{Concurrency: 4}, nil)
	summary, err := driver.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, summary.Total)
	require.NotEmpty(t, summary.RunID)
}

func TestRunCancellationReportsPartialProgress(t *testing.T) {
	orgs := makeOrgs(50)
	memory := sink.NewMemory()
	driver := New(&fakeEnricher{jitter: 20 * time.Millisecond}, memory, nil, nil, Config{Concurrency: 2}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := driver.Run(ctx, orgs)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, len(memory.Records()), len(orgs))
}

func TestRunPublishesRecordEvents(t *testing.T) {
	orgs := makeOrgs(5)
	events := publisher.NewMemory()
	driver := New(&fakeEnricher{}, sink.NewMemory(), events, nil, Config{Concurrency: 2, Topic: "records"}, nil)

	_, err := driver.Run(context.Background(), orgs)
	require.NoError(t, err)
	require.Len(t, events.Messages(), 5)
}

func TestProgressTracksTheRun(t *testing.T) {
	orgs := makeOrgs(12)
	driver := New(&fakeEnricher{}, sink.NewMemory(), nil, nil, Config{Concurrency: 3}, nil)

	summary, err := driver.Run(context.Background(), orgs)
	require.NoError(t, err)

	progress := driver.Progress()
	require.Equal(t, summary.RunID, progress.RunID)
	require.Equal(t, 12, progress.Total)
	require.Equal(t, 12, progress.Processed)
	require.Equal(t, 12, progress.Reachable)
	require.False(t, progress.StartedAt.IsZero())
}
