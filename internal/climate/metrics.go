package climate

import (
	"math"

	"github.com/citypulse-labs/bengaluru-climate/internal/geo"
)

// DerivedMetrics is the computed block attached to a snapshot. Fields stay
// nil when the reading they need is absent.
type DerivedMetrics struct {
	HeatIndexC         *float64     `json:"heatIndexC,omitempty"`
	ComfortIndex       *float64     `json:"comfortIndex,omitempty"`
	AQI                *int         `json:"aqi,omitempty"`
	AQICategory        AQICategory  `json:"aqiCategory,omitempty"`
	CoolingDemandPct   *float64     `json:"coolingDemandPercent,omitempty"`
	LakeHealthScore    *float64     `json:"lakeHealthScore,omitempty"`
	LakeHealthCategory LakeCategory `json:"lakeHealthCategory,omitempty"`
	Advisories         []string     `json:"advisories,omitempty"`
}

// AQICategory labels a simplified air quality index value.
type AQICategory string

const (
	AQIGood               AQICategory = "good"
	AQIModerate           AQICategory = "moderate"
	AQIUnhealthySensitive AQICategory = "unhealthy_for_sensitive"
	AQIUnhealthy          AQICategory = "unhealthy"
	AQIVeryUnhealthy      AQICategory = "very_unhealthy"
	AQIHazardous          AQICategory = "hazardous"
)

// AQIBreakpoint maps a pollutant concentration band onto an index band.
type AQIBreakpoint struct {
	CLo, CHi float64
	ILo, IHi float64
}

// US EPA 24-hour breakpoints, in micrograms per cubic metre. Exported so a
// deployment can swap in CPCB or another national table.
var (
	PM25Breakpoints = []AQIBreakpoint{
		{0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 350.4, 301, 400},
		{350.5, 500.4, 401, 500},
	}
	PM10Breakpoints = []AQIBreakpoint{
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 504, 301, 400},
		{505, 604, 401, 500},
	}
)

func subIndex(c float64, bps []AQIBreakpoint) float64 {
	if c <= 0 {
		return 0
	}
	for _, bp := range bps {
		if c <= bp.CHi {
			if c < bp.CLo {
				c = bp.CLo
			}
			return (bp.IHi-bp.ILo)/(bp.CHi-bp.CLo)*(c-bp.CLo) + bp.ILo
		}
	}
	// Above the top of the table the index saturates.
	return bps[len(bps)-1].IHi
}

// AQIFromPollutants converts PM2.5 and PM10 concentrations into a
// simplified AQI by linear interpolation over the breakpoint tables. The
// worse pollutant wins. Concentrations are truncated the way the published
// tables expect: PM2.5 to 0.1, PM10 to whole units. Negative inputs count
// as zero.
func AQIFromPollutants(pm25, pm10 float64) (int, AQICategory) {
	p25 := math.Trunc(math.Max(pm25, 0)*10) / 10
	p10 := math.Trunc(math.Max(pm10, 0))

	idx := math.Max(subIndex(p25, PM25Breakpoints), subIndex(p10, PM10Breakpoints))
	v := int(math.Round(idx))
	return v, CategoryForAQI(v)
}

// CategoryForAQI buckets an index value into its category label.
func CategoryForAQI(v int) AQICategory {
	switch {
	case v <= 50:
		return AQIGood
	case v <= 100:
		return AQIModerate
	case v <= 150:
		return AQIUnhealthySensitive
	case v <= 200:
		return AQIUnhealthy
	case v <= 300:
		return AQIVeryUnhealthy
	default:
		return AQIHazardous
	}
}

// Below this air temperature the heat index is not meaningful and the input
// is returned unchanged.
const heatIndexMinC = 20.0

// Rothfusz regression coefficients, Fahrenheit.
var rothfusz = [9]float64{
	-42.379, 2.04901523, 10.14333127, -0.22475541,
	-6.83783e-3, -5.481717e-2, 1.22874e-3, 8.5282e-4, -1.99e-6,
}

// HeatIndex estimates apparent temperature in Celsius from air temperature
// and relative humidity. Steadman's approximation applies below 80F; above
// it the Rothfusz regression with the NWS low- and high-humidity
// adjustments. Humidity outside 0..100 is clamped.
func HeatIndex(tempC, humidityPct float64) float64 {
	if tempC < heatIndexMinC {
		return tempC
	}
	rh := clamp(humidityPct, 0, 100)
	t := tempC*9/5 + 32

	hi := 0.5 * (t + 61.0 + (t-68.0)*1.2 + rh*0.094)
	if t >= 80 {
		c := rothfusz
		hi = c[0] + c[1]*t + c[2]*rh + c[3]*t*rh +
			c[4]*t*t + c[5]*rh*rh + c[6]*t*t*rh + c[7]*t*rh*rh + c[8]*t*t*rh*rh

		if rh < 13 && t <= 112 {
			hi -= (13 - rh) / 4 * math.Sqrt((17-math.Abs(t-95))/17)
		} else if rh > 85 && t <= 87 {
			hi += (rh - 85) / 10 * ((87 - t) / 5)
		}
	}

	return (hi - 32) * 5 / 9
}

// Comfort model constants. Tuned for Bengaluru's range rather than any
// published standard; treat them as dials.
const (
	comfortIdealC      = 24.0
	comfortTempWeight  = 4.0
	comfortHumidLimit  = 60.0
	comfortHumidWeight = 0.6
	comfortDryLimit    = 30.0
	comfortDryWeight   = 0.3
	comfortBreezeMax   = 15.0
	comfortBreezeBonus = 0.4
	comfortGaleLimit   = 25.0
	comfortGaleWeight  = 0.5
)

// ComfortIndex scores how pleasant conditions feel on a 0..100 scale. A
// mild day near 24C with moderate humidity and a light breeze scores near
// 100. Inputs are clamped to physical ranges first, so the result is
// defined for any input.
func ComfortIndex(tempC, humidityPct, windKmh float64) float64 {
	t := clamp(tempC, -50, 60)
	rh := clamp(humidityPct, 0, 100)
	w := clamp(windKmh, 0, 150)

	score := 100 - comfortTempWeight*math.Abs(t-comfortIdealC)

	if rh > comfortHumidLimit {
		score -= (rh - comfortHumidLimit) * comfortHumidWeight
	} else if rh < comfortDryLimit {
		score -= (comfortDryLimit - rh) * comfortDryWeight
	}

	score += math.Min(w, comfortBreezeMax) * comfortBreezeBonus
	if w > comfortGaleLimit {
		score -= (w - comfortGaleLimit) * comfortGaleWeight
	}

	return clamp(score, 0, 100)
}

// LakeCategory labels an estimated lake health score.
type LakeCategory string

const (
	LakeExcellent LakeCategory = "excellent"
	LakeGood      LakeCategory = "good"
	LakeFair      LakeCategory = "fair"
	LakePoor      LakeCategory = "poor"
	LakeCritical  LakeCategory = "critical"
)

// Lake model constants. Warm water promotes algal growth, light rain
// flushes inflows, heavy rain washes pollutants in.
const (
	lakeBase          = 70.0
	lakeWarmWaterC    = 28.0
	lakeWarmPenalty   = 2.5
	lakeFlushMaxMm    = 40.0
	lakeFlushBonus    = 0.3
	lakeRunoffPenalty = 0.25
	lakeTurbidityCost = 0.45
)

// LakeHealthEstimate scores a hypothetical lake from weather alone. It is a
// coarse screening heuristic, not a water-quality measurement. Turbidity is
// a 0..100 proxy.
func LakeHealthEstimate(tempC, rainfallMm, turbidity float64) (float64, LakeCategory) {
	rain := math.Max(rainfallMm, 0)
	turb := clamp(turbidity, 0, 100)

	score := lakeBase
	score -= lakeWarmPenalty * math.Max(0, tempC-lakeWarmWaterC)
	if rain <= lakeFlushMaxMm {
		score += rain * lakeFlushBonus
	} else {
		score += lakeFlushMaxMm*lakeFlushBonus - (rain-lakeFlushMaxMm)*lakeRunoffPenalty
	}
	score -= turb * lakeTurbidityCost

	score = clamp(score, 0, 100)
	return score, CategoryForLake(score)
}

// LakeScore adjusts a lake's surveyed baseline with current weather. Nil
// weather returns the baseline untouched.
func LakeScore(baseline float64, w *WeatherReading) (float64, LakeCategory) {
	score := clamp(baseline, 0, 100)
	if w != nil {
		score -= lakeWarmPenalty * math.Max(0, w.TemperatureC-lakeWarmWaterC)
		if w.PrecipMm > lakeFlushMaxMm {
			score -= (w.PrecipMm - lakeFlushMaxMm) * lakeRunoffPenalty
		} else {
			score += w.PrecipMm * lakeFlushBonus
		}
		score = clamp(score, 0, 100)
	}
	return score, CategoryForLake(score)
}

// LakeOutlook condenses per-lake adjusted scores under the current weather
// into one city-wide figure.
func LakeOutlook(baselines []float64, w *WeatherReading) (float64, LakeCategory) {
	if len(baselines) == 0 {
		return 0, CategoryForLake(0)
	}
	total := 0.0
	for _, baseline := range baselines {
		score, _ := LakeScore(baseline, w)
		total += score
	}
	avg := round1(total / float64(len(baselines)))
	return avg, CategoryForLake(avg)
}

// CategoryForLake buckets a health score into its label.
func CategoryForLake(score float64) LakeCategory {
	switch {
	case score >= 80:
		return LakeExcellent
	case score >= 65:
		return LakeGood
	case score >= 50:
		return LakeFair
	case score >= 35:
		return LakePoor
	default:
		return LakeCritical
	}
}

// Cooling demand ramp: zero at or below 24C, saturating at 40C.
const (
	coolingZeroC = 24.0
	coolingFullC = 40.0
)

// CoolingDemand estimates citywide cooling load as a 0..100 percentage.
func CoolingDemand(tempC float64) float64 {
	return clamp((tempC-coolingZeroC)/(coolingFullC-coolingZeroC)*100, 0, 100)
}

// Stylized citywide load curve in megawatts, one entry per hour from
// midnight local time.
var basePowerCurveMW = [24]float64{
	1800, 1650, 1500, 1400, 1350, 1400, 1600, 1900,
	2200, 2400, 2600, 2750, 2850, 2900, 2850, 2700,
	2500, 2300, 2100, 2000, 1950, 1900, 1850, 1800,
}

// PowerDemandForecast scales the base load curve by temperature. Each
// degree above 25C adds two percent of load from cooling; cool days never
// scale below the base curve.
func PowerDemandForecast(tempC float64) []float64 {
	scale := math.Max(1.0, 1.0+0.02*(tempC-25.0))
	out := make([]float64, len(basePowerCurveMW))
	for i, mw := range basePowerCurveMW {
		out[i] = math.Round(mw*scale*10) / 10
	}
	return out
}

// Advisory thresholds.
const (
	advisoryHeatC       = 35.0
	advisoryColdC       = 15.0
	advisoryPM25        = 25.0
	advisoryHeavyRainMm = 64.5 // IMD classifies 64.5mm or more in 24h as heavy rain
)

// Advisories returns public guidance strings derived from current
// readings. Either reading may be nil.
func Advisories(w *WeatherReading, aq *AirQualityReading) []string {
	var out []string
	if w != nil {
		if w.TemperatureC > advisoryHeatC {
			out = append(out, "Heat advisory: limit outdoor activity between 12 and 4 PM and stay hydrated.")
		}
		if w.TemperatureC < advisoryColdC {
			out = append(out, "Cold advisory: unusually low temperatures for the city; cover up outdoors.")
		}
		if w.PrecipMm >= advisoryHeavyRainMm {
			out = append(out, "Heavy rain advisory: avoid low-lying roads and underpasses prone to flooding.")
		}
	}
	if aq != nil && aq.PM25 > advisoryPM25 {
		out = append(out, "Air quality advisory: PM2.5 is elevated; sensitive groups should wear masks outdoors.")
	}
	return out
}

// Derive computes the derived metric block for whatever readings are
// present. Missing inputs leave the matching fields nil; both nil yields a
// nil block.
func Derive(w *WeatherReading, aq *AirQualityReading) *DerivedMetrics {
	if w == nil && aq == nil {
		return nil
	}

	d := &DerivedMetrics{}
	if w != nil {
		hi := round1(HeatIndex(w.TemperatureC, w.HumidityPct))
		ci := round1(ComfortIndex(w.TemperatureC, w.HumidityPct, w.WindSpeedKmh))
		cd := round1(CoolingDemand(w.TemperatureC))
		d.HeatIndexC = &hi
		d.ComfortIndex = &ci
		d.CoolingDemandPct = &cd

		lake, lakeCat := LakeOutlook(lakeBaselines(), w)
		d.LakeHealthScore = &lake
		d.LakeHealthCategory = lakeCat
	}
	if aq != nil {
		v, cat := AQIFromPollutants(aq.PM25, aq.PM10)
		d.AQI = &v
		d.AQICategory = cat
	}
	d.Advisories = Advisories(w, aq)
	return d
}

func lakeBaselines() []float64 {
	lakes := geo.Lakes()
	out := make([]float64, len(lakes))
	for i, lake := range lakes {
		out[i] = lake.HealthBaseline
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
