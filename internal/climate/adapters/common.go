package adapters

import (
	"time"

	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
)

// timezoneOrAuto returns the location's zone for upstream timezone params,
// letting the API resolve it from coordinates when unset.
func timezoneOrAuto(loc climate.Location) string {
	if loc.Timezone != "" {
		return loc.Timezone
	}
	return "auto"
}

// parseLocalTime interprets an Open-Meteo local timestamp ("2006-01-02T15:04")
// in the given IANA zone. Zone lookup failures fall back to UTC, parse
// failures to now.
func parseLocalTime(value, tz string) time.Time {
	zone, err := time.LoadLocation(tz)
	if err != nil {
		zone = time.UTC
	}
	ts, err := time.ParseInLocation("2006-01-02T15:04", value, zone)
	if err != nil {
		return time.Now().UTC()
	}
	return ts
}

// ConditionForCode maps WMO weather interpretation codes onto the
// normalized condition set.
func ConditionForCode(code int) climate.Condition {
	switch {
	case code == 0:
		return climate.ConditionClear
	case code >= 1 && code <= 3:
		return climate.ConditionCloudy
	case code == 45 || code == 48:
		return climate.ConditionFog
	case code >= 51 && code <= 57:
		return climate.ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return climate.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return climate.ConditionSnow
	case code >= 95:
		return climate.ConditionStorm
	default:
		return climate.ConditionUnknown
	}
}
