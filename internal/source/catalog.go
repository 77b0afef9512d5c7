package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// CatalogConfig parametrizes the organization catalog query.
type CatalogConfig struct {
	BaseURL string
	// Orientation filters the catalog by organization profile; the
	// upstream registry encodes technical and natural-science clubs as
	// "3,6".
	Orientation string
	PerPage     int
	Timeout     time.Duration
}

// Catalog fetches the seed list from an organization registry endpoint.
type Catalog struct {
	cfg  CatalogConfig
	rest *resty.Client
}

// NewCatalog builds a Catalog provider.
func NewCatalog(cfg CatalogConfig) *Catalog {
	if cfg.Orientation == "" {
		cfg.Orientation = "3,6"
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 5000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Catalog{
		cfg:  cfg,
		rest: resty.New().SetTimeout(cfg.Timeout).SetRetryCount(0),
	}
}

type catalogEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		List []catalogOrganization `json:"list"`
	} `json:"data"`
}

type catalogOrganization struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	SiteURL string      `json:"site_url"`
}

// List queries the registry and returns the organizations in registry
// order. An unsuccessful envelope is a driver-fatal error: with no seed
// list there is nothing to enrich.
func (c *Catalog) List(ctx context.Context) ([]enrich.Organization, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("orientation", c.cfg.Orientation).
		SetQueryParam("perPage", strconv.Itoa(c.cfg.PerPage)).
		Get(c.cfg.BaseURL + "/organization/list")
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode())
	}
	var envelope catalogEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("catalog reported failure")
	}

	orgs := make([]enrich.Organization, 0, len(envelope.Data.List))
	for _, item := range envelope.Data.List {
		orgs = append(orgs, enrich.Organization{
			ID:      item.ID.String(),
			Name:    item.Name,
			SiteURL: item.SiteURL,
		})
	}
	return orgs, nil
}
