package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/upstream"
)

// DefaultEarthBaseURL is NASA's Earth imagery assets endpoint.
const DefaultEarthBaseURL = "https://api.nasa.gov/planetary/earth/assets"

// DemoKey is NASA's public evaluation key, used when no key is configured.
// It works with tight rate limits.
const DemoKey = "DEMO_KEY"

// assetDim is the queried tile width in degrees.
const assetDim = "0.15"

// assetWindowDays is how far back the assets API searches from the date
// parameter for the closest scene.
const assetWindowDays = 30

// NASAEarth implements climate.ImagerySource against the NASA Earth assets
// API. The API looks back up to 30 days for the closest Landsat scene.
type NASAEarth struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg upstream.Config
	circuit *gobreaker.CircuitBreaker
}

// NewNASAEarth builds the adapter. An empty apiKey falls back to the public
// demo key, an empty baseURL to the hosted endpoint.
func NewNASAEarth(client *http.Client, baseURL, apiKey string) *NASAEarth {
	if baseURL == "" {
		baseURL = DefaultEarthBaseURL
	}
	if apiKey == "" {
		apiKey = DemoKey
	}
	return &NASAEarth{
		name:    "nasa-earth",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: upstream.Config{Client: client},
		circuit: upstream.NewBreaker("nasa-earth"),
	}
}

func (p *NASAEarth) Name() string {
	return p.name
}

// Fetch returns the most recent scene covering the location. A 404 means
// the archive has nothing for the trailing window; that maps to
// climate.ErrNoData rather than a transport failure.
func (p *NASAEarth) Fetch(ctx context.Context, loc climate.Location) (*climate.EarthObservationSample, error) {
	windowStart := time.Now().UTC().AddDate(0, 0, -assetWindowDays)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%.4f", loc.Lat))
		values.Set("lon", fmt.Sprintf("%.4f", loc.Lon))
		values.Set("date", windowStart.Format("2006-01-02"))
		values.Set("dim", assetDim)
		values.Set("api_key", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: no recent imagery for location", climate.ErrNoData)
		}
		return nil, err
	}

	var payload struct {
		ID   string `json:"id"`
		Date string `json:"date"`
		URL  string `json:"url"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: asset id missing", upstream.ErrMalformedResponse)
	}

	return &climate.EarthObservationSample{
		ID:      payload.ID,
		Date:    parseAssetDate(payload.Date),
		TileURL: payload.URL,
	}, nil
}

// parseAssetDate copes with the handful of timestamp shapes the assets API
// has shipped over the years.
func parseAssetDate(value string) time.Time {
	for _, layout := range []string{
		"2006-01-02T15:04:05.000000",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006-01-02",
	} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
