// Package testutil provides the shared test database helper and mock HTTP
// servers standing in for the external data providers.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockProviderServer is a test server that mocks the external providers the
// fetchers talk to (geocoding, weather, coins, last.fm). Register handlers
// per path; unregistered paths 404.
type MockProviderServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockProviderServer creates a new mock provider server.
func NewMockProviderServer(t *testing.T) *MockProviderServer {
	t.Helper()
	m := &MockProviderServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockGeocodeResponse registers a Nominatim-style search result at /search.
// Pass no results to mock a "no match" answer.
func (m *MockProviderServer) MockGeocodeResponse(results ...map[string]any) {
	m.Handlers["/search"] = func(w http.ResponseWriter, r *http.Request) {
		if results == nil {
			results = []map[string]any{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results) //nolint:errcheck // test mock response
	}
}

// GeocodeResult builds one Nominatim-style result row.
func GeocodeResult(lat, lon, city, country string) map[string]any {
	return map[string]any{
		"lat": lat,
		"lon": lon,
		"address": map[string]string{
			"city":    city,
			"country": country,
		},
	}
}

// MockWeatherResponse registers an OpenWeatherMap-style current-conditions
// payload at /weather.
func (m *MockProviderServer) MockWeatherResponse(payload map[string]any) {
	m.Handlers["/weather"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload) //nolint:errcheck // test mock response
	}
}

// MockCoinResponses registers OHLC candles and a spot price for a coin id.
// Candles are rows of [ts_ms, open, high, low, close].
func (m *MockProviderServer) MockCoinResponses(id string, candles [][]float64, spot float64) {
	m.Handlers[fmt.Sprintf("/coins/%s/ohlc", id)] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candles) //nolint:errcheck // test mock response
	}
	m.Handlers["/simple/price"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]map[string]float64{ //nolint:errcheck // test mock response
			id: {"usd": spot},
		})
	}
}

// MockLastfmPage registers raw profile HTML for a last.fm user.
func (m *MockProviderServer) MockLastfmPage(user, html string) {
	m.Handlers["/"+user] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}
}

// MockTitlePage registers raw HTML at an arbitrary path for title extraction.
func (m *MockProviderServer) MockTitlePage(path, html string) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}
}
