package httpapi

import (
	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/geo"
)

// heavyRainMm is the daily rainfall above which drains start backing up.
const heavyRainMm = 35.0

// rainDayMm is the daily rainfall that counts as a rain day for reservoir
// planning.
const rainDayMm = 1.0

// lakeStatus is a lake with its weather-adjusted health score.
type lakeStatus struct {
	Name     string               `json:"name"`
	Lat      float64              `json:"lat"`
	Lon      float64              `json:"lon"`
	Baseline float64              `json:"baseline"`
	Score    float64              `json:"score"`
	Category climate.LakeCategory `json:"category"`
}

// scoredLakes applies current weather to every monitored lake's baseline.
func scoredLakes(snap *climate.Snapshot) []lakeStatus {
	var weather *climate.WeatherReading
	if snap != nil {
		weather = snap.Weather
	}

	lakes := geo.Lakes()
	out := make([]lakeStatus, 0, len(lakes))
	for _, lake := range lakes {
		score, category := climate.LakeScore(lake.HealthBaseline, weather)
		out = append(out, lakeStatus{
			Name:     lake.Name,
			Lat:      lake.Lat,
			Lon:      lake.Lon,
			Baseline: lake.HealthBaseline,
			Score:    score,
			Category: category,
		})
	}
	return out
}

type citizensView struct {
	Advisories   []string            `json:"advisories"`
	ComfortIndex *float64            `json:"comfortIndex,omitempty"`
	AQI          *int                `json:"aqi,omitempty"`
	AQICategory  climate.AQICategory `json:"aqiCategory,omitempty"`
	HeatIndexC   *float64            `json:"heatIndexC,omitempty"`
}

type bbmpView struct {
	Lakes         []lakeStatus `json:"lakes"`
	HeavyRainRisk bool         `json:"heavyRainRisk"`
	Advisories    []string     `json:"advisories"`
}

type bwssbView struct {
	Lakes          []lakeStatus `json:"lakes"`
	ForecastRainMm float64      `json:"forecastRainMm"`
	RainDays       int          `json:"rainDays"`
}

type bescomView struct {
	CoolingDemandPct *float64  `json:"coolingDemandPercent,omitempty"`
	HourlyDemandMW   []float64 `json:"hourlyDemandMw,omitempty"`
}

type parksView struct {
	CoolingZones []geo.CoolingZone `json:"coolingZones"`
	HeatIslands  []geo.HeatIsland  `json:"heatIslands"`
	UVIndex      *float64          `json:"uvIndex,omitempty"`
}

type researchersView struct {
	Sources []climate.SourceStatus `json:"sources"`
	Context string                 `json:"context"`
}

// stakeholderView shapes a snapshot for one audience. Unknown names get no
// view; the full snapshot is always in the response anyway.
func stakeholderView(name string, snap *climate.Snapshot, maxContextChars int) interface{} {
	switch name {
	case "citizens":
		view := citizensView{Advisories: []string{}}
		if snap != nil && snap.Derived != nil {
			d := snap.Derived
			view.ComfortIndex = d.ComfortIndex
			view.AQI = d.AQI
			view.AQICategory = d.AQICategory
			view.HeatIndexC = d.HeatIndexC
			if d.Advisories != nil {
				view.Advisories = d.Advisories
			}
		}
		return view

	case "bbmp":
		view := bbmpView{Lakes: scoredLakes(snap), Advisories: []string{}}
		if snap != nil {
			for _, day := range snap.Forecast {
				if day.PrecipMm >= heavyRainMm {
					view.HeavyRainRisk = true
					break
				}
			}
			if snap.Derived != nil && snap.Derived.Advisories != nil {
				view.Advisories = snap.Derived.Advisories
			}
		}
		return view

	case "bwssb":
		view := bwssbView{Lakes: scoredLakes(snap)}
		if snap != nil {
			for _, day := range snap.Forecast {
				view.ForecastRainMm += day.PrecipMm
				if day.PrecipMm > rainDayMm {
					view.RainDays++
				}
			}
		}
		return view

	case "bescom":
		view := bescomView{}
		if snap != nil {
			if snap.Derived != nil {
				view.CoolingDemandPct = snap.Derived.CoolingDemandPct
			}
			if snap.Weather != nil {
				view.HourlyDemandMW = climate.PowerDemandForecast(snap.Weather.TemperatureC)
			}
		}
		return view

	case "parks":
		view := parksView{
			CoolingZones: geo.CoolingZones(),
			HeatIslands:  geo.HeatIslands(),
		}
		if snap != nil && snap.AirQuality != nil && snap.AirQuality.UVIndex > 0 {
			uv := snap.AirQuality.UVIndex
			view.UVIndex = &uv
		}
		return view

	case "researchers":
		view := researchersView{Context: climate.AssembleContext(snap, maxContextChars)}
		if snap != nil {
			view.Sources = snap.Sources
		}
		return view
	}
	return nil
}
