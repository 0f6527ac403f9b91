// Package geo carries Bengaluru reference geography used by the map
// layers, from monitored lakes to planned development zones, plus a
// geocoder for resolving other cities.
package geo

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Lake is a monitored water body with a surveyed health baseline (0-100).
type Lake struct {
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	HealthBaseline float64 `json:"healthBaseline"`
}

// AirStation is a fixed monitoring station with its typical PM2.5 level.
type AirStation struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	PM25 float64 `json:"pm25"`
}

// HeatIsland is a built-up area that runs hotter than the city average.
type HeatIsland struct {
	Area   string  `json:"area"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	DeltaC float64 `json:"deltaC"`
}

// CoolingZone is green cover that runs cooler than the city average.
type CoolingZone struct {
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	DeltaC float64 `json:"deltaC"`
}

// Landmark is a point of interest rendered on the city map.
type Landmark struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Kind string  `json:"kind"`
}

// PollutionSource is a known emitter affecting nearby air readings.
type PollutionSource struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Kind string  `json:"kind"`
}

// DevelopmentZone is a planned or in-progress urban growth area.
type DevelopmentZone struct {
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Status string  `json:"status"`
}

var lakes = []Lake{
	{Name: "Bellandur Lake", Lat: 12.926, Lon: 77.675, HealthBaseline: 45},
	{Name: "Ulsoor Lake", Lat: 12.976, Lon: 77.625, HealthBaseline: 78},
	{Name: "Sankey Tank", Lat: 12.991, Lon: 77.567, HealthBaseline: 82},
	{Name: "Hebbal Lake", Lat: 13.036, Lon: 77.597, HealthBaseline: 67},
	{Name: "Madivala Lake", Lat: 12.925, Lon: 77.623, HealthBaseline: 59},
}

var airStations = []AirStation{
	{Name: "City Railway Station", Lat: 12.977, Lon: 77.571, PM25: 45},
	{Name: "BTM Layout", Lat: 12.912, Lon: 77.610, PM25: 52},
	{Name: "Whitefield", Lat: 12.970, Lon: 77.750, PM25: 38},
	{Name: "Electronic City", Lat: 12.845, Lon: 77.661, PM25: 67},
	{Name: "Jayanagar", Lat: 12.926, Lon: 77.583, PM25: 41},
}

var heatIslands = []HeatIsland{
	{Area: "Electronic City", Lat: 12.845, Lon: 77.661, DeltaC: 4.2},
	{Area: "Whitefield", Lat: 12.970, Lon: 77.750, DeltaC: 3.8},
	{Area: "Koramangala", Lat: 12.935, Lon: 77.610, DeltaC: 3.1},
	{Area: "Banashankari", Lat: 12.904, Lon: 77.600, DeltaC: 2.9},
}

var coolingZones = []CoolingZone{
	{Name: "Cubbon Park", Lat: 12.976, Lon: 77.590, DeltaC: -2.1},
	{Name: "Lalbagh Botanical Garden", Lat: 12.950, Lon: 77.584, DeltaC: -1.8},
	{Name: "Ulsoor Lake", Lat: 12.976, Lon: 77.625, DeltaC: -1.3},
}

var landmarks = []Landmark{
	{Name: "Vidhana Soudha", Lat: 12.979, Lon: 77.590, Kind: "government"},
	{Name: "Bangalore Palace", Lat: 12.998, Lon: 77.592, Kind: "heritage"},
	{Name: "UB City Mall", Lat: 12.972, Lon: 77.595, Kind: "commercial"},
	{Name: "Kempegowda International Airport", Lat: 13.199, Lon: 77.706, Kind: "transport"},
	{Name: "Majestic Bus Station", Lat: 12.977, Lon: 77.571, Kind: "transport"},
}

var pollutionSources = []PollutionSource{
	{Name: "Industrial Area - Peenya", Lat: 13.030, Lon: 77.520, Kind: "industrial"},
	{Name: "Traffic Junction - Silk Board", Lat: 12.918, Lon: 77.623, Kind: "traffic"},
	{Name: "Construction Zone - Outer Ring Road", Lat: 12.935, Lon: 77.692, Kind: "construction"},
	{Name: "Waste Processing - Mavallipura", Lat: 13.181, Lon: 77.486, Kind: "waste"},
}

var developmentZones = []DevelopmentZone{
	{Name: "Aerospace Park", Lat: 13.140, Lon: 77.560, Status: "planned"},
	{Name: "Peripheral Ring Road", Lat: 12.850, Lon: 77.450, Status: "under_construction"},
	{Name: "New Metro Extension", Lat: 12.920, Lon: 77.720, Status: "approved"},
	{Name: "IT Corridor Extension", Lat: 12.800, Lon: 77.700, Status: "proposed"},
}

// CityCenter returns the reference point used when no location is given.
func CityCenter() Point {
	return Point{Lat: 12.972, Lon: 77.594}
}

// Lakes returns the monitored lakes. The slice is a copy.
func Lakes() []Lake {
	out := make([]Lake, len(lakes))
	copy(out, lakes)
	return out
}

// AirStations returns the fixed monitoring stations. The slice is a copy.
func AirStations() []AirStation {
	out := make([]AirStation, len(airStations))
	copy(out, airStations)
	return out
}

// HeatIslands returns the known urban heat islands. The slice is a copy.
func HeatIslands() []HeatIsland {
	out := make([]HeatIsland, len(heatIslands))
	copy(out, heatIslands)
	return out
}

// CoolingZones returns the known cooling zones. The slice is a copy.
func CoolingZones() []CoolingZone {
	out := make([]CoolingZone, len(coolingZones))
	copy(out, coolingZones)
	return out
}

// Landmarks returns the mapped landmarks. The slice is a copy.
func Landmarks() []Landmark {
	out := make([]Landmark, len(landmarks))
	copy(out, landmarks)
	return out
}

// PollutionSources returns the known emitters. The slice is a copy.
func PollutionSources() []PollutionSource {
	out := make([]PollutionSource, len(pollutionSources))
	copy(out, pollutionSources)
	return out
}

// DevelopmentZones returns the urban growth areas. The slice is a copy.
func DevelopmentZones() []DevelopmentZone {
	out := make([]DevelopmentZone, len(developmentZones))
	copy(out, developmentZones)
	return out
}
