package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// File reads the seed list from a JSON array on disk.
type File struct {
	path string
}

// NewFile returns a File provider.
func NewFile(path string) *File {
	return &File{path: path}
}

// List decodes the seed file, preserving its order.
func (f *File) List(ctx context.Context) ([]enrich.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled: %w", err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", f.path, err)
	}
	var orgs []enrich.Organization
	if err := json.Unmarshal(data, &orgs); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", f.path, err)
	}
	return orgs, nil
}
