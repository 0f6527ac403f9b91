package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/upstream"
)

// DefaultAirQualityBaseURL is the hosted Open-Meteo air quality endpoint.
const DefaultAirQualityBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

// OpenMeteoAirQuality implements climate.AirQualitySource against the
// Open-Meteo air quality API. No key required.
type OpenMeteoAirQuality struct {
	name    string
	baseURL string
	httpCfg upstream.Config
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoAirQuality builds the adapter. An empty baseURL selects the
// hosted endpoint.
func NewOpenMeteoAirQuality(client *http.Client, baseURL string) *OpenMeteoAirQuality {
	if baseURL == "" {
		baseURL = DefaultAirQualityBaseURL
	}
	return &OpenMeteoAirQuality{
		name:    "open-meteo-air",
		baseURL: baseURL,
		httpCfg: upstream.Config{Client: client},
		circuit: upstream.NewBreaker("open-meteo-air"),
	}
}

func (p *OpenMeteoAirQuality) Name() string {
	return p.name
}

// Fetch returns current pollutant concentrations for the location.
func (p *OpenMeteoAirQuality) Fetch(ctx context.Context, loc climate.Location) (*climate.AirQualityReading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
		values.Set("current", "pm2_5,pm10,nitrogen_dioxide,sulphur_dioxide,ozone,carbon_monoxide,uv_index")
		values.Set("timezone", timezoneOrAuto(loc))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Timezone string `json:"timezone"`
		Current  struct {
			Time    string  `json:"time"`
			PM25    float64 `json:"pm2_5"`
			PM10    float64 `json:"pm10"`
			NO2     float64 `json:"nitrogen_dioxide"`
			SO2     float64 `json:"sulphur_dioxide"`
			Ozone   float64 `json:"ozone"`
			CO      float64 `json:"carbon_monoxide"`
			UVIndex float64 `json:"uv_index"`
		} `json:"current"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return nil, err
	}

	return &climate.AirQualityReading{
		Timestamp: parseLocalTime(payload.Current.Time, payload.Timezone),
		PM25:      payload.Current.PM25,
		PM10:      payload.Current.PM10,
		NO2:       payload.Current.NO2,
		SO2:       payload.Current.SO2,
		Ozone:     payload.Current.Ozone,
		CO:        payload.Current.CO,
		UVIndex:   payload.Current.UVIndex,
	}, nil
}
