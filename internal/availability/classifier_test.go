package availability

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kruzhok-data/org-enricher/internal/enrich"
)

func TestDefaultTableCoversEveryFetchClass(t *testing.T) {
	table := DefaultTable()
	classes := []enrich.FetchClass{
		enrich.FetchSuccess,
		enrich.FetchClientError,
		enrich.FetchServerError,
		enrich.FetchNetworkFailure,
		enrich.FetchTimeout,
		enrich.FetchTLSFailure,
		enrich.FetchRedirectLoop,
	}
	for _, class := range classes {
		_, ok := table[class]
		require.True(t, ok, "class %s has no default status", class)
	}
}

func TestClassifyDefaults(t *testing.T) {
	classifier, err := New(nil)
	require.NoError(t, err)

	tests := []struct {
		class enrich.FetchClass
		want  enrich.AvailabilityStatus
	}{
		{enrich.FetchSuccess, enrich.AvailabilityReachable},
		{enrich.FetchClientError, enrich.AvailabilityUnreachable},
		{enrich.FetchServerError, enrich.AvailabilityUnreachable},
		{enrich.FetchNetworkFailure, enrich.AvailabilityUnreachable},
		{enrich.FetchTimeout, enrich.AvailabilityUnreachable},
		{enrich.FetchTLSFailure, enrich.AvailabilityUnknown},
		{enrich.FetchRedirectLoop, enrich.AvailabilityUnknown},
	}
	for _, tc := range tests {
		t.Run(string(tc.class), func(t *testing.T) {
			got := classifier.Classify(enrich.FetchResult{Class: tc.class})
			require.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyUnknownClassFallsBackToUnknown(t *testing.T) {
	classifier, err := New(nil)
	require.NoError(t, err)
	got := classifier.Classify(enrich.FetchResult{Class: enrich.FetchClass("martian")})
	require.Equal(t, enrich.AvailabilityUnknown, got)
}

func TestClassifyOverrides(t *testing.T) {
	classifier, err := New(map[string]string{
		"tls_failure": "unreachable",
		"timeout":     "unknown",
	})
	require.NoError(t, err)

	require.Equal(t, enrich.AvailabilityUnreachable,
		classifier.Classify(enrich.FetchResult{Class: enrich.FetchTLSFailure}))
	require.Equal(t, enrich.AvailabilityUnknown,
		classifier.Classify(enrich.FetchResult{Class: enrich.FetchTimeout}))
	// Untouched rules keep their defaults.
	require.Equal(t, enrich.AvailabilityReachable,
		classifier.Classify(enrich.FetchResult{Class: enrich.FetchSuccess}))
}

func TestNewRejectsBadOverrides(t *testing.T) {
	_, err := New(map[string]string{"no_such_class": "reachable"})
	require.Error(t, err)

	_, err = New(map[string]string{"timeout": "no_such_status"})
	require.Error(t, err)
}
