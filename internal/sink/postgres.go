package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// pgxPool is the slice of pgxpool.Pool the sink needs; pgxmock satisfies
// it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS organization_records (
	run_id       TEXT NOT NULL,
	org_id       TEXT NOT NULL,
	name         TEXT NOT NULL,
	site_url     TEXT,
	availability TEXT NOT NULL,
	title        TEXT,
	description  TEXT,
	keywords     TEXT[],
	profiles     JSONB,
	snapshot_uri TEXT,
	fetch_ms     BIGINT,
	errors       JSONB,
	enriched_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, org_id)
)`

const insertRecord = `
INSERT INTO organization_records
	(run_id, org_id, name, site_url, availability, title, description,
	 keywords, profiles, snapshot_uri, fetch_ms, errors, enriched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (run_id, org_id) DO UPDATE SET
	availability = EXCLUDED.availability,
	title        = EXCLUDED.title,
	description  = EXCLUDED.description,
	keywords     = EXCLUDED.keywords,
	profiles     = EXCLUDED.profiles,
	snapshot_uri = EXCLUDED.snapshot_uri,
	fetch_ms     = EXCLUDED.fetch_ms,
	errors       = EXCLUDED.errors,
	enriched_at  = EXCLUDED.enriched_at`

// PostgresSink upserts records keyed by (run_id, org_id), which keeps
// reruns idempotent.
type PostgresSink struct {
	pool   pgxPool
	logger *zap.Logger
}

// NewPostgres connects, pings, and ensures the records table exists.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresSink{pool: pool, logger: logger}
	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure records table: %w", err)
	}
	return s, nil
}

// newPostgresWithPool wires an existing pool; used by tests with pgxmock.
func newPostgresWithPool(pool pgxPool, logger *zap.Logger) *PostgresSink {
	return &PostgresSink{pool: pool, logger: logger}
}

// Write upserts one record.
func (s *PostgresSink) Write(ctx context.Context, record enrich.OrganizationRecord) error {
	profiles, err := json.Marshal(record.Profiles)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	errors, err := json.Marshal(record.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}
	_, err = s.pool.Exec(ctx, insertRecord,
		record.RunID,
		record.Organization.ID,
		record.Organization.Name,
		record.Organization.SiteURL,
		string(record.Availability),
		record.Metadata.Title,
		record.Metadata.Description,
		record.Metadata.Keywords,
		profiles,
		record.SnapshotURI,
		record.FetchMs,
		errors,
		record.EnrichedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
