package climate

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMaxContextChars bounds the assembled context blob so the prompt
// stays well under the model's input budget.
const DefaultMaxContextChars = 3500

// NoDataPlaceholder is injected when every source is absent so the model
// knows to answer from general knowledge instead of inventing readings.
const NoDataPlaceholder = "no data available: live weather, air quality and satellite feeds are all currently offline"

const truncationMark = "\n[truncated]"

// AssembleContext renders a snapshot into the bounded plain-text block fed
// to the assistant. Sections appear in a fixed order so identical snapshots
// always produce identical context. Absent sources are skipped; the gaps
// are listed at the end instead.
func AssembleContext(s *Snapshot, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	if s.Empty() {
		return NoDataPlaceholder
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s (%.3f, %.3f), timezone %s\n",
		s.Location.City, s.Location.Lat, s.Location.Lon, s.Location.Timezone)
	fmt.Fprintf(&b, "Fetched at: %s\n", s.FetchedAt.UTC().Format(time.RFC3339))

	if w := s.Weather; w != nil {
		b.WriteString("\nCurrent weather:\n")
		fmt.Fprintf(&b, "- temperature %.1fC (feels like %.1fC), humidity %.0f%%\n",
			w.TemperatureC, w.ApparentC, w.HumidityPct)
		fmt.Fprintf(&b, "- wind %.1f km/h, precipitation %.1f mm, cloud cover %.0f%%, condition %s\n",
			w.WindSpeedKmh, w.PrecipMm, w.CloudCoverPct, w.Condition)
	}

	if aq := s.AirQuality; aq != nil {
		b.WriteString("\nAir quality:\n")
		fmt.Fprintf(&b, "- PM2.5 %.1f, PM10 %.1f, NO2 %.1f, ozone %.1f ug/m3\n",
			aq.PM25, aq.PM10, aq.NO2, aq.Ozone)
		if aq.UVIndex > 0 {
			fmt.Fprintf(&b, "- UV index %.1f\n", aq.UVIndex)
		}
	}

	if d := s.Derived; d != nil {
		b.WriteString("\nDerived metrics:\n")
		if d.AQI != nil {
			fmt.Fprintf(&b, "- simplified AQI %d (%s)\n", *d.AQI, d.AQICategory)
		}
		if d.HeatIndexC != nil {
			fmt.Fprintf(&b, "- heat index %.1fC\n", *d.HeatIndexC)
		}
		if d.ComfortIndex != nil {
			fmt.Fprintf(&b, "- comfort index %.0f/100\n", *d.ComfortIndex)
		}
		if d.CoolingDemandPct != nil {
			fmt.Fprintf(&b, "- cooling demand %.0f%%\n", *d.CoolingDemandPct)
		}
		if d.LakeHealthScore != nil {
			fmt.Fprintf(&b, "- lake health outlook %.0f/100 (%s)\n", *d.LakeHealthScore, d.LakeHealthCategory)
		}
		for _, a := range d.Advisories {
			fmt.Fprintf(&b, "- advisory: %s\n", a)
		}
	}

	if len(s.Forecast) > 0 {
		b.WriteString("\nDaily forecast:\n")
		for _, day := range s.Forecast {
			fmt.Fprintf(&b, "- %s: %.0f to %.0fC, %.1f mm rain (%.0f%% chance), %s\n",
				day.Date, day.TempMinC, day.TempMaxC, day.PrecipMm, day.PrecipProbPct, day.Condition)
		}
	}

	if eo := s.EarthObs; eo != nil {
		b.WriteString("\nSatellite imagery:\n")
		fmt.Fprintf(&b, "- latest scene %s captured %s\n", eo.ID, eo.Date.Format("2006-01-02"))
	}

	if s.Degraded() {
		b.WriteString("\nData gaps:\n")
		for _, src := range s.Sources {
			if !src.OK {
				fmt.Fprintf(&b, "- %s unavailable\n", src.Name)
			}
		}
	}

	return truncateClean(b.String(), maxChars)
}

// truncateClean cuts text to at most max bytes, preferring a line boundary,
// and marks the cut so the model knows the context is partial.
func truncateClean(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max - len(truncationMark)
	if cut < 0 {
		cut = 0
	}
	head := text[:cut]
	if i := strings.LastIndexByte(head, '\n'); i > 0 {
		head = head[:i]
	}
	return strings.ToValidUTF8(head, "") + truncationMark
}
