package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// csvHeader is the flat-file column layout: seed columns first, then the
// site fields, one url+followers pair per platform, and bookkeeping.
var csvHeader = []string{
	"id", "name", "site_url",
	"site_availability", "site_title", "site_description", "site_keywords",
	"vk_url", "vk_followers",
	"instagram_url", "instagram_followers",
	"facebook_url", "facebook_followers",
	"twitter_url", "twitter_followers",
	"snapshot_uri", "errors",
}

// CSVSink streams records to a flat file, one row per organization. Rows
// are flushed per record so a partial run still leaves usable output.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSV creates (truncating) the output file and writes the header.
func NewCSV(path string) (*CSVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv output %s: %w", path, err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}
	return &CSVSink{file: file, writer: writer}, nil
}

// Write appends one row.
func (s *CSVSink) Write(ctx context.Context, record enrich.OrganizationRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	if err := s.writer.Write(csvRow(record)); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush csv row: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}

func csvRow(record enrich.OrganizationRecord) []string {
	row := []string{
		record.Organization.ID,
		record.Organization.Name,
		record.Organization.SiteURL,
		string(record.Availability),
		record.Metadata.Title,
		record.Metadata.Description,
		strings.Join(record.Metadata.Keywords, "; "),
	}
	for _, platform := range enrich.Platforms() {
		profile, ok := record.Profile(platform)
		if !ok {
			row = append(row, "", "")
			continue
		}
		row = append(row, profile.URL, formatFollowers(profile.Followers))
	}
	row = append(row, record.SnapshotURI, formatErrors(record.Errors))
	return row
}

// formatFollowers keeps the null/zero distinction: an unresolved count is
// an empty cell, a resolved zero is "0".
func formatFollowers(count *int64) string {
	if count == nil {
		return ""
	}
	return strconv.FormatInt(*count, 10)
}

func formatErrors(errs map[string]string) string {
	if len(errs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	// Deterministic cell contents regardless of map order.
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+errs[k])
	}
	return strings.Join(parts, "; ")
}
