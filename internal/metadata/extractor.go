// Package metadata extracts title, description, and keywords from HTML.
package metadata

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

// Extractor parses homepage HTML, best effort. It implements
// enrich.Extractor.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract pulls <title>, meta description, and meta keywords out of html.
// Missing tags yield empty fields; malformed markup degrades to whatever
// the parser can salvage instead of failing.
func (e *Extractor) Extract(html []byte) enrich.PageMetadata {
	var meta enrich.PageMetadata
	if len(html) == 0 {
		return meta
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return meta
	}

	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())

	// Seed pages use inconsistent casing (Keywords vs keywords), so the
	// name attribute is matched case-insensitively.
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok {
			return
		}
		content, ok := sel.Attr("content")
		if !ok {
			return
		}
		switch {
		case strings.EqualFold(name, "description"):
			if meta.Description == "" {
				meta.Description = strings.TrimSpace(content)
			}
		case strings.EqualFold(name, "keywords"):
			if meta.Keywords == nil {
				meta.Keywords = splitKeywords(content)
			}
		}
	})

	return meta
}

func splitKeywords(content string) []string {
	parts := strings.Split(content, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			keywords = append(keywords, part)
		}
	}
	if len(keywords) == 0 {
		return nil
	}
	return keywords
}
