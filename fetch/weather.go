package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/boot/telemetry"
)

// WeatherReport is the subset of an OpenWeatherMap current-conditions
// response the bot formats. Temperatures are metric at fetch time.
type WeatherReport struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	// Timezone is the UTC offset of the location in seconds.
	Timezone int `json:"timezone"`
}

// Weather performs a single current-conditions lookup for the coordinates.
func (f *Fetcher) Weather(ctx context.Context, lat, lon float64) (*WeatherReport, error) {
	if f.weatherKey == "" {
		return nil, errors.New("weather api key not configured")
	}
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "fetch", "fetch.Weather")
	defer span.End()
	defer telemetry.ObserveFetch("weather", start)

	u, err := url.Parse(f.weatherURL)
	if err != nil {
		return nil, fmt.Errorf("weather url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("appid", f.weatherKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.get(req)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountFetchFailure("weather", "transport")
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		telemetry.CountFetchFailure("weather", "transport")
		return nil, fmt.Errorf("weather status %d", resp.StatusCode)
	}

	var report WeatherReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		telemetry.RecordError(span, err)
		telemetry.CountFetchFailure("weather", "transport")
		return nil, fmt.Errorf("weather decode: %w", err)
	}
	return &report, nil
}

// FormatWeather renders a report as a single reply line. Pure presentation;
// separate from the fetch so it can be tested without the network.
func FormatWeather(r *WeatherReport) string {
	var b strings.Builder

	place := r.Name
	if r.Sys.Country != "" {
		place += ", " + r.Sys.Country
	}
	fmt.Fprintf(&b, "Weather for %s: ", place)

	condID := 0
	if len(r.Weather) > 0 {
		condID = r.Weather[0].ID
		fmt.Fprintf(&b, "%s, ", r.Weather[0].Description)
	}

	tempC := r.Main.Temp
	tempF := tempC*9/5 + 32
	fmt.Fprintf(&b, "%.1f°C (%.1f°F), humidity %d%%", tempC, tempF, r.Main.Humidity)

	fmt.Fprintf(&b, ", wind %.1fm/s (%.1fmph)", r.Wind.Speed, msToMph(r.Wind.Speed))
	if r.Wind.Gust > r.Wind.Speed {
		fmt.Fprintf(&b, " gusting %.1fm/s (%.1fmph)", r.Wind.Gust, msToMph(r.Wind.Gust))
	}

	// Cloud coverage only means something for the cloudy condition codes.
	if condID >= 801 && condID <= 804 {
		fmt.Fprintf(&b, ", clouds %d%%", r.Clouds.All)
	}

	loc := time.FixedZone("local", r.Timezone)
	sunrise := time.Unix(r.Sys.Sunrise, 0).In(loc)
	sunset := time.Unix(r.Sys.Sunset, 0).In(loc)
	fmt.Fprintf(&b, ", sunrise %s, sunset %s", sunrise.Format("15:04"), sunset.Format("15:04"))

	return b.String()
}

func msToMph(ms float64) float64 { return ms * 2.236936 }
