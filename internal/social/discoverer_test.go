package social

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

func TestDiscoverFindsProfilesOnHomepage(t *testing.T) {
	html := []byte(`<html><body>
<a href="https://vk.com/roboclub">VK</a>
<a href="https://vk.com/roboclub?from=footer">VK again</a>
<a href="https://www.instagram.com/roboclub/">Insta</a>
<a href="https://facebook.com/sharer/sharer.php?u=x">Share</a>
<a href="https://example.org/partner">Partner</a>
<a href="mailto:info@club.example">Mail</a>
<a href="/contacts">Contacts</a>
</body></html>`)

	d := NewDiscoverer(DiscovererConfig{MaxPages: 1}, nil)
	profiles, err := d.Discover(context.Background(), html, "http://club.example/")
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	require.Equal(t, enrich.PlatformVK, profiles[0].Platform)
	require.Equal(t, "roboclub", profiles[0].Handle)
	require.Equal(t, enrich.PlatformInstagram, profiles[1].Platform)
}

func TestDiscoverOrdersProfilesByPlatform(t *testing.T) {
	html := []byte(`<html><body>
<a href="https://twitter.com/zclub">t</a>
<a href="https://facebook.com/zclub">f</a>
<a href="https://instagram.com/zclub">i</a>
<a href="https://vk.com/zclub">v</a>
</body></html>`)

	d := NewDiscoverer(DiscovererConfig{MaxPages: 1}, nil)
	profiles, err := d.Discover(context.Background(), html, "http://club.example/")
	require.NoError(t, err)
	require.Len(t, profiles, 4)
	var platforms []enrich.SocialPlatform
	for _, p := range profiles {
		platforms = append(platforms, p.Platform)
	}
	require.Equal(t, enrich.Platforms(), platforms)
}

func TestDiscoverRelativeLinksUseBase(t *testing.T) {
	// Relative links stay internal; only absolute platform links count.
	html := []byte(`<html><body><a href="vk.com/roboclub">broken</a></body></html>`)
	d := NewDiscoverer(DiscovererConfig{MaxPages: 1}, nil)
	profiles, err := d.Discover(context.Background(), html, "http://club.example/")
	require.NoError(t, err)
	require.Empty(t, profiles)
}

func TestDiscoverEmptyDocument(t *testing.T) {
	d := NewDiscoverer(DiscovererConfig{MaxPages: 1}, nil)
	profiles, err := d.Discover(context.Background(), nil, "http://club.example/")
	require.NoError(t, err)
	require.Empty(t, profiles)
}

func TestDiscoverRejectsUnparsableBase(t *testing.T) {
	d := NewDiscoverer(DiscovererConfig{MaxPages: 1}, nil)
	_, err := d.Discover(context.Background(), nil, "http://[::1")
	require.Error(t, err)
}

func TestDiscoverCrawlsLinkedPagesWithinBudget(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/contacts", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><a href="https://twitter.com/roboclub">tw</a></body></html>`)
	})
	mux.HandleFunc("/news", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><a href="https://instagram.com/never_visited">ig</a></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	homepage := []byte(fmt.Sprintf(`<html><body>
<a href="https://vk.com/roboclub">vk</a>
<a href="%s/contacts">contacts</a>
<a href="%s/news">news</a>
</body></html>`, server.URL, server.URL))

	// Budget of two pages: the homepage plus one crawled page.
	d := NewDiscoverer(DiscovererConfig{MaxPages: 2}, nil)
	profiles, err := d.Discover(context.Background(), homepage, server.URL+"/")
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	require.Equal(t, enrich.PlatformVK, profiles[0].Platform)
	require.Equal(t, enrich.PlatformTwitter, profiles[1].Platform)
}

func TestDiscoverSkipsCrawlWhenBudgetIsOne(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		fmt.Fprint(w, `<html><body><a href="https://twitter.com/roboclub">tw</a></body></html>`)
	}))
	defer server.Close()

	homepage := []byte(fmt.Sprintf(`<html><body><a href="%s/contacts">contacts</a></body></html>`, server.URL))

	d := NewDiscoverer(DiscovererConfig{MaxPages: 1}, nil)
	profiles, err := d.Discover(context.Background(), homepage, server.URL+"/")
	require.NoError(t, err)
	require.Empty(t, profiles)
	require.Zero(t, hits)
}
