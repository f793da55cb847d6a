package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/boot/db"
	"github.com/onnwee/boot/telemetry"
)

// nominatimResult mirrors the fields we use from a Nominatim search response.
// lat/lon arrive as strings.
type nominatimResult struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

// Geocode resolves free text to coordinates via a Nominatim-style provider.
// Returns ErrNoResult when the provider has no match for the query.
func (f *Fetcher) Geocode(ctx context.Context, query string) (*db.LocationRecord, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "fetch", "fetch.Geocode", attribute.String("query", query))
	defer span.End()
	defer telemetry.ObserveFetch("geocode", start)

	u, err := url.Parse(f.geocodeURL)
	if err != nil {
		return nil, fmt.Errorf("geocode url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.get(req)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountFetchFailure("geocode", "transport")
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		telemetry.CountFetchFailure("geocode", "transport")
		return nil, fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountFetchFailure("geocode", "transport")
		return nil, fmt.Errorf("geocode decode: %w", err)
	}
	if len(results) == 0 {
		telemetry.CountFetchFailure("geocode", "no_result")
		return nil, ErrNoResult
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode lon %q: %w", r.Lon, err)
	}
	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}
	return &db.LocationRecord{Lat: lat, Lon: lon, City: city, Country: r.Address.Country}, nil
}
