package fetch

import (
	"testing"
	"time"

	"github.com/onnwee/boot/config"
	"github.com/onnwee/boot/testutil"
)

// newTestFetcher points every provider endpoint at the mock server.
func newTestFetcher(t *testing.T) (*Fetcher, *testutil.MockProviderServer) {
	t.Helper()
	srv := testutil.NewMockProviderServer(t)
	cfg := &config.Config{
		OpenWeatherKey: "testkey",
		GeocodeURL:     srv.URL + "/search",
		WeatherURL:     srv.URL + "/weather",
		CoinsURL:       srv.URL,
		LastfmURL:      srv.URL,
		FetchTimeout:   5 * time.Second,
		MaxRedirects:   10,
		UserAgent:      "boot-test/1.0",
	}
	return New(cfg), srv
}
