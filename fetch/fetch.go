// Package fetch contains the external-I/O operations the dispatcher awaits:
// page-title extraction, geocoding, weather, coin prices, and last.fm scraping.
//
// All fetchers share one configured http.Client (fixed timeout, bounded
// redirects, stable user agent) so per-call option structs never creep back in.
// Every operation is cancellation-safe via context and resolves to a value or
// an error; callers decide whether a failure is user-visible.
package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/onnwee/boot/config"
)

// ErrNoResult signals the provider answered but had nothing for the query.
// Distinct from transport errors so callers can tell "not found" from
// "service unavailable" when logging and counting failures.
var ErrNoResult = errors.New("no result")

// Fetcher bundles the shared HTTP client with provider endpoints.
type Fetcher struct {
	client *http.Client

	userAgent  string
	geocodeURL string
	weatherURL string
	weatherKey string
	coinsURL   string
	lastfmURL  string
}

// New builds the one configured client used by all fetchers.
func New(cfg *config.Config) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		geocodeURL: cfg.GeocodeURL,
		weatherURL: cfg.WeatherURL,
		weatherKey: cfg.OpenWeatherKey,
		coinsURL:   cfg.CoinsURL,
		lastfmURL:  cfg.LastfmURL,
	}
}

// get issues a GET with the configured user agent.
func (f *Fetcher) get(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", f.userAgent)
	return f.client.Do(req)
}

// failureClass maps an error to a metrics label.
func failureClass(err error) string {
	if errors.Is(err, ErrNoResult) {
		return "no_result"
	}
	return "transport"
}
