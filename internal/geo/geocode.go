package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/citypulse-labs/bengaluru-climate/internal/upstream"
)

// DefaultGeocodeBaseURL is the hosted Open-Meteo geocoding endpoint.
const DefaultGeocodeBaseURL = "https://geocoding-api.open-meteo.com/v1/search"

// ErrNotFound reports that a city name matched nothing.
var ErrNotFound = errors.New("geo: place not found")

// Place is a resolved city.
type Place struct {
	Name     string  `json:"name"`
	Admin1   string  `json:"admin1,omitempty"`
	Country  string  `json:"country,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone,omitempty"`
}

// Geocoder resolves city names to coordinates via the Open-Meteo geocoding
// API. No key required.
type Geocoder struct {
	baseURL string
	httpCfg upstream.Config
	circuit *gobreaker.CircuitBreaker
}

// NewGeocoder builds a geocoder. An empty baseURL selects the hosted
// endpoint.
func NewGeocoder(client *http.Client, baseURL string) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodeBaseURL
	}
	return &Geocoder{
		baseURL: baseURL,
		httpCfg: upstream.Config{Client: client},
		circuit: upstream.NewBreaker("open-meteo-geocode"),
	}
}

// Lookup resolves a city name to the best-matching place.
func (g *Geocoder) Lookup(ctx context.Context, city string) (*Place, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", city)
		values.Set("count", "1")
		values.Set("language", "en")
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := upstream.Do(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Admin1    string  `json:"admin1"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Timezone  string  `json:"timezone"`
		} `json:"results"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, city)
	}

	best := payload.Results[0]
	return &Place{
		Name:     best.Name,
		Admin1:   best.Admin1,
		Country:  best.Country,
		Lat:      best.Latitude,
		Lon:      best.Longitude,
		Timezone: best.Timezone,
	}, nil
}
