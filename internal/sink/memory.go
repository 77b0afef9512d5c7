package sink

import (
	"context"
	"sync"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// MemorySink stores records for inspection in tests.
type MemorySink struct {
	mu      sync.RWMutex
	records []enrich.OrganizationRecord
}

// NewMemory returns a MemorySink.
func NewMemory() *MemorySink {
	return &MemorySink{}
}

// Write appends the record.
func (s *MemorySink) Write(_ context.Context, record enrich.OrganizationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Close is a no-op.
func (s *MemorySink) Close() error { return nil }

// Records returns the stored records in write order.
func (s *MemorySink) Records() []enrich.OrganizationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]enrich.OrganizationRecord, len(s.records))
	copy(out, s.records)
	return out
}
