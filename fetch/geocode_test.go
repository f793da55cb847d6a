package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/onnwee/boot/testutil"
)

func TestGeocode(t *testing.T) {
	f, srv := newTestFetcher(t)
	srv.MockGeocodeResponse(testutil.GeocodeResult("52.5170365", "13.3888599", "Berlin", "Germany"))

	rec, err := f.Geocode(context.Background(), "berlin")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if rec.Lat != 52.5170365 || rec.Lon != 13.3888599 {
		t.Errorf("coords = %v, %v", rec.Lat, rec.Lon)
	}
	if rec.City != "Berlin" || rec.Country != "Germany" {
		t.Errorf("place = %q, %q", rec.City, rec.Country)
	}
}

func TestGeocodeTownFallback(t *testing.T) {
	f, srv := newTestFetcher(t)
	srv.Handlers["/search"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"51.75","lon":"-1.26","address":{"town":"Oxford","country":"United Kingdom"}}]`))
	}

	rec, err := f.Geocode(context.Background(), "oxford")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if rec.City != "Oxford" {
		t.Errorf("City = %q, want town fallback", rec.City)
	}
}

func TestGeocodeNoResult(t *testing.T) {
	f, srv := newTestFetcher(t)
	srv.MockGeocodeResponse()

	_, err := f.Geocode(context.Background(), "atlantis")
	if !errors.Is(err, ErrNoResult) {
		t.Errorf("err = %v, want ErrNoResult", err)
	}
}

func TestGeocodeServerErrorIsNotNoResult(t *testing.T) {
	f, srv := newTestFetcher(t)
	srv.Handlers["/search"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	_, err := f.Geocode(context.Background(), "berlin")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNoResult) {
		t.Errorf("500 must be a transport error, got ErrNoResult")
	}
}
