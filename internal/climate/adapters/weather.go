package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/upstream"
)

// DefaultWeatherBaseURL is the hosted Open-Meteo forecast endpoint.
const DefaultWeatherBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoWeather implements climate.WeatherSource against the Open-Meteo
// forecast API. The API needs no key; timestamps come back localized to the
// requested timezone.
type OpenMeteoWeather struct {
	name    string
	baseURL string
	httpCfg upstream.Config
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoWeather builds the adapter. An empty baseURL selects the
// hosted endpoint.
func NewOpenMeteoWeather(client *http.Client, baseURL string) *OpenMeteoWeather {
	if baseURL == "" {
		baseURL = DefaultWeatherBaseURL
	}
	return &OpenMeteoWeather{
		name:    "open-meteo-weather",
		baseURL: baseURL,
		httpCfg: upstream.Config{Client: client},
		circuit: upstream.NewBreaker("open-meteo-weather"),
	}
}

func (p *OpenMeteoWeather) Name() string {
	return p.name
}

// Fetch returns current conditions and a daily forecast for the location.
// One request covers both; a single attempt, classified on failure.
func (p *OpenMeteoWeather) Fetch(ctx context.Context, loc climate.Location, days int) (*climate.WeatherReading, []climate.ForecastDay, error) {
	if days < 1 {
		days = 1
	}
	if days > climate.MaxForecastDays {
		days = climate.MaxForecastDays
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
		values.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,wind_direction_10m,precipitation,pressure_msl,cloud_cover,weather_code")
		values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max,weather_code")
		values.Set("forecast_days", strconv.Itoa(days))
		values.Set("timezone", timezoneOrAuto(loc))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, nil, err
	}

	var payload struct {
		Timezone string `json:"timezone"`
		Current  struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Apparent      float64 `json:"apparent_temperature"`
			Humidity      float64 `json:"relative_humidity_2m"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDir       float64 `json:"wind_direction_10m"`
			Precipitation float64 `json:"precipitation"`
			Pressure      float64 `json:"pressure_msl"`
			CloudCover    float64 `json:"cloud_cover"`
			WeatherCode   int     `json:"weather_code"`
		} `json:"current"`
		Daily struct {
			Time        []string  `json:"time"`
			TempMax     []float64 `json:"temperature_2m_max"`
			TempMin     []float64 `json:"temperature_2m_min"`
			PrecipSum   []float64 `json:"precipitation_sum"`
			PrecipProb  []float64 `json:"precipitation_probability_max"`
			WindMax     []float64 `json:"wind_speed_10m_max"`
			WeatherCode []int     `json:"weather_code"`
		} `json:"daily"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return nil, nil, err
	}

	reading := &climate.WeatherReading{
		Timestamp:     parseLocalTime(payload.Current.Time, payload.Timezone),
		TemperatureC:  payload.Current.Temperature,
		ApparentC:     payload.Current.Apparent,
		HumidityPct:   payload.Current.Humidity,
		WindSpeedKmh:  payload.Current.WindSpeed,
		WindDirDeg:    payload.Current.WindDir,
		PressureHpa:   payload.Current.Pressure,
		PrecipMm:      payload.Current.Precipitation,
		CloudCoverPct: payload.Current.CloudCover,
		WeatherCode:   payload.Current.WeatherCode,
		Condition:     ConditionForCode(payload.Current.WeatherCode),
	}

	// Daily arrays are positional; guard each one so a short array cannot
	// panic the fetch.
	forecast := make([]climate.ForecastDay, 0, len(payload.Daily.Time))
	for i, date := range payload.Daily.Time {
		day := climate.ForecastDay{Date: date, Condition: climate.ConditionUnknown}
		if i < len(payload.Daily.TempMax) {
			day.TempMaxC = payload.Daily.TempMax[i]
		}
		if i < len(payload.Daily.TempMin) {
			day.TempMinC = payload.Daily.TempMin[i]
		}
		if i < len(payload.Daily.PrecipSum) {
			day.PrecipMm = payload.Daily.PrecipSum[i]
		}
		if i < len(payload.Daily.PrecipProb) {
			day.PrecipProbPct = payload.Daily.PrecipProb[i]
		}
		if i < len(payload.Daily.WindMax) {
			day.WindMaxKmh = payload.Daily.WindMax[i]
		}
		if i < len(payload.Daily.WeatherCode) {
			day.WeatherCode = payload.Daily.WeatherCode[i]
			day.Condition = ConditionForCode(day.WeatherCode)
		}
		forecast = append(forecast, day)
	}

	return reading, forecast, nil
}
