package social

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

func testLimiter() *Limiter {
	// No configured rate means no throttling; resolver tests should not wait.
	return NewLimiter(LimiterConfig{})
}

func testRestClient() ResolverConfig {
	return ResolverConfig{Timeout: 2 * time.Second}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{in: "1532", want: 1532, ok: true},
		{in: "1,532", want: 1532, ok: true},
		{in: "12 407", want: 12407, ok: true},
		{in: " 7 ", want: 7, ok: true},
		{in: "0", want: 0, ok: true},
		{in: "", ok: false},
		{in: "abc", ok: false},
		{in: "-5", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := parseCount(tc.in)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestVKResolverExtractsCounter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<div><em class="pm_counter">1,532</em> members</div>`)
	}))
	defer server.Close()

	r := newVKResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop())
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{
		Platform: enrich.PlatformVK,
		Handle:   "roboclub",
		URL:      server.URL + "/roboclub",
	})
	require.NoError(t, err)
	require.NotNil(t, count)
	require.EqualValues(t, 1532, *count)
}

func TestVKResolverMissingCounterIsNilNotZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<div>private community</div>`)
	}))
	defer server.Close()

	r := newVKResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop())
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{URL: server.URL + "/club"})
	require.NoError(t, err)
	require.Nil(t, count)
}

func TestVKResolverErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	r := newVKResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop())
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{URL: server.URL + "/club"})
	require.Error(t, err)
	require.Nil(t, count)
}

func TestInstagramResolverReadsFollowerEdge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("__a"))
		fmt.Fprint(w, `{"graphql":{"user":{"edge_followed_by":{"count":940}}}}`)
	}))
	defer server.Close()

	r := newInstagramResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop(), "")
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{URL: server.URL + "/roboclub"})
	require.NoError(t, err)
	require.NotNil(t, count)
	require.EqualValues(t, 940, *count)
}

func TestInstagramResolverZeroFollowersIsZeroNotNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"graphql":{"user":{"edge_followed_by":{"count":0}}}}`)
	}))
	defer server.Close()

	r := newInstagramResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop(), "")
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{URL: server.URL + "/newclub"})
	require.NoError(t, err)
	require.NotNil(t, count)
	require.Zero(t, *count)
}

func TestInstagramResolverLoginWallHTMLIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>Log in to continue</body></html>`)
	}))
	defer server.Close()

	r := newInstagramResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop(), "")
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{URL: server.URL + "/club"})
	require.NoError(t, err)
	require.Nil(t, count)
}

func TestInstagramResolverSendsSessionCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("sessionid")
		require.NoError(t, err)
		require.Equal(t, "sess-42", cookie.Value)
		fmt.Fprint(w, `{"graphql":{"user":{"edge_followed_by":{"count":5}}}}`)
	}))
	defer server.Close()

	r := newInstagramResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop(), "sess-42")
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{URL: server.URL + "/club"})
	require.NoError(t, err)
	require.NotNil(t, count)
	require.EqualValues(t, 5, *count)
}

func TestFacebookResolverExtractsFollowBlurb(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<div>12,034 people follow this</div>`)
	}))
	defer server.Close()

	r := newFacebookResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop())
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{URL: server.URL + "/roboclub"})
	require.NoError(t, err)
	require.NotNil(t, count)
	require.EqualValues(t, 12034, *count)
}

func TestFacebookResolverMissingBlurbIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<div>You must log in first</div>`)
	}))
	defer server.Close()

	r := newFacebookResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop())
	count, err := r.Resolve(context.Background(), enrich.SocialProfile{URL: server.URL + "/club"})
	require.NoError(t, err)
	require.Nil(t, count)
}

func TestTwitterResolverSyndication(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "roboclub", r.URL.Query().Get("screen_names"))
		fmt.Fprint(w, `[{"followers_count":8841}]`)
	}))
	defer server.Close()

	r := newTwitterResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop(), "")
	r.syndicationURL = server.URL

	count, err := r.Resolve(context.Background(), enrich.SocialProfile{Handle: "roboclub"})
	require.NoError(t, err)
	require.NotNil(t, count)
	require.EqualValues(t, 8841, *count)
}

func TestTwitterResolverSyndicationEmptyPayloadIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	r := newTwitterResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop(), "")
	r.syndicationURL = server.URL

	count, err := r.Resolve(context.Background(), enrich.SocialProfile{Handle: "gone"})
	require.NoError(t, err)
	require.Nil(t, count)
}

func TestTwitterResolverUsesAPIWithBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/users/by/username/roboclub", r.URL.Path)
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		require.Equal(t, "public_metrics", r.URL.Query().Get("user.fields"))
		fmt.Fprint(w, `{"data":{"public_metrics":{"followers_count":991}}}`)
	}))
	defer server.Close()

	r := newTwitterResolver(newRestClient(testRestClient()), testLimiter(), zap.NewNop(), "token-123")
	r.apiBaseURL = server.URL

	count, err := r.Resolve(context.Background(), enrich.SocialProfile{Handle: "roboclub"})
	require.NoError(t, err)
	require.NotNil(t, count)
	require.EqualValues(t, 991, *count)
}

func TestNewResolversCoversEveryPlatform(t *testing.T) {
	resolvers := NewResolvers(testRestClient(), testLimiter(), zap.NewNop())
	require.Len(t, resolvers, len(enrich.Platforms()))
	for _, platform := range enrich.Platforms() {
		r, ok := resolvers[platform]
		require.True(t, ok, "no resolver for %s", platform)
		require.Equal(t, platform, r.Platform())
	}
}
