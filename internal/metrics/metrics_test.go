package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "http://Example.com/page", want: "example.com"},
		{in: "https://club.example:8080/", want: "club.example"},
		{in: "bare-host.example", want: "bare-host.example"},
		{in: "http://", want: "unknown"},
		{in: "", want: "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, SanitizeSite(tc.in))
		})
	}
}

func TestObserveHelpersDoNotPanic(t *testing.T) {
	// Each helper self-initializes; repeated Init calls are no-ops.
	Init()
	Init()

	require.NotPanics(t, func() {
		ObserveOrganization("reachable")
		ObserveFetch("http://club.example/", "success")
		ObserveResolution("vk", "resolved")
		ObserveRateLimitDelay("vk", 10*time.Millisecond)
		ObserveEnrichment(time.Second)
		IncActiveEnrichments()
		DecActiveEnrichments()
	})
}
