package climate

import (
	"errors"
	"time"
)

// ErrNoData marks an upstream answer that was well-formed but empty, and a
// snapshot with nothing in it.
var ErrNoData = errors.New("no data available")

// MaxForecastDays is the longest span the forecast source supports.
const MaxForecastDays = 16

// Condition is a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionDrizzle Condition = "drizzle"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// Location is the place a snapshot describes. Coordinates are decimal
// degrees. Timezone is an IANA name used to localize upstream timestamps;
// "auto" lets the weather API resolve it from the coordinates.
type Location struct {
	City     string  `json:"city"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
}

// Bengaluru is the location served when a request names no other.
func Bengaluru() Location {
	return Location{City: "Bengaluru", Lat: 12.972, Lon: 77.594, Timezone: "Asia/Kolkata"}
}

// WeatherReading is the normalized current-conditions view.
type WeatherReading struct {
	Timestamp     time.Time `json:"timestamp"`
	TemperatureC  float64   `json:"temperatureC"`
	ApparentC     float64   `json:"apparentC"`
	HumidityPct   float64   `json:"humidityPercent"`
	WindSpeedKmh  float64   `json:"windSpeedKmh"`
	WindDirDeg    float64   `json:"windDirectionDeg"`
	PressureHpa   float64   `json:"pressureHpa"`
	PrecipMm      float64   `json:"precipMm"`
	CloudCoverPct float64   `json:"cloudCoverPercent"`
	WeatherCode   int       `json:"weatherCode"`
	Condition     Condition `json:"condition"`
}

// ForecastDay is one day of the daily forecast. Date is a local calendar
// date in YYYY-MM-DD form.
type ForecastDay struct {
	Date          string    `json:"date"`
	TempMinC      float64   `json:"tempMinC"`
	TempMaxC      float64   `json:"tempMaxC"`
	PrecipMm      float64   `json:"precipMm"`
	PrecipProbPct float64   `json:"precipProbPercent"`
	WindMaxKmh    float64   `json:"windMaxKmh"`
	WeatherCode   int       `json:"weatherCode"`
	Condition     Condition `json:"condition"`
}

// AirQualityReading holds current pollutant concentrations in micrograms
// per cubic metre.
type AirQualityReading struct {
	Timestamp time.Time `json:"timestamp"`
	PM25      float64   `json:"pm25"`
	PM10      float64   `json:"pm10"`
	NO2       float64   `json:"no2"`
	SO2       float64   `json:"so2"`
	Ozone     float64   `json:"ozone"`
	CO        float64   `json:"co"`
	UVIndex   float64   `json:"uvIndex"`
}

// EarthObservationSample references the most recent satellite scene near a
// location.
type EarthObservationSample struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	TileURL string    `json:"tileUrl"`
}

// SourceStatus records the outcome of one upstream fetch inside a snapshot.
type SourceStatus struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// Snapshot is the full dashboard view at a point in time. Any of the three
// source readings may be nil; Sources records why.
type Snapshot struct {
	Location   Location                `json:"location"`
	FetchedAt  time.Time               `json:"fetchedAt"` // always UTC
	Weather    *WeatherReading         `json:"weather,omitempty"`
	Forecast   []ForecastDay           `json:"forecast,omitempty"`
	AirQuality *AirQualityReading      `json:"airQuality,omitempty"`
	EarthObs   *EarthObservationSample `json:"earthObservation,omitempty"`
	Derived    *DerivedMetrics         `json:"derived,omitempty"`
	Sources    []SourceStatus          `json:"sources"`
}

// Degraded reports whether any source failed for this snapshot.
func (s *Snapshot) Degraded() bool {
	if s == nil {
		return true
	}
	for _, src := range s.Sources {
		if !src.OK {
			return true
		}
	}
	return false
}

// Empty reports whether no source produced anything.
func (s *Snapshot) Empty() bool {
	if s == nil {
		return true
	}
	return s.Weather == nil && s.AirQuality == nil && s.EarthObs == nil && len(s.Forecast) == 0
}
