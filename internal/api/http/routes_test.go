package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse-labs/bengaluru-climate/internal/chat"
	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/geo"
	"github.com/citypulse-labs/bengaluru-climate/internal/logger"
	"github.com/citypulse-labs/bengaluru-climate/internal/session"
)

type stubWeather struct{}

func (stubWeather) Name() string { return "open-meteo-weather" }

func (stubWeather) Fetch(_ context.Context, _ climate.Location, days int) (*climate.WeatherReading, []climate.ForecastDay, error) {
	reading := &climate.WeatherReading{
		Timestamp:    time.Now().UTC(),
		TemperatureC: 31.0,
		ApparentC:    33.5,
		HumidityPct:  60,
		WindSpeedKmh: 10,
		Condition:    climate.ConditionCloudy,
	}
	forecast := make([]climate.ForecastDay, 0, days)
	for i := 0; i < days; i++ {
		forecast = append(forecast, climate.ForecastDay{
			Date:     time.Now().AddDate(0, 0, i).Format("2006-01-02"),
			TempMinC: 21, TempMaxC: 33, PrecipMm: 2.5, Condition: climate.ConditionCloudy,
		})
	}
	return reading, forecast, nil
}

type stubAir struct{}

func (stubAir) Name() string { return "open-meteo-air" }

func (stubAir) Fetch(context.Context, climate.Location) (*climate.AirQualityReading, error) {
	return &climate.AirQualityReading{Timestamp: time.Now().UTC(), PM25: 42.5, PM10: 88, UVIndex: 6.5}, nil
}

type stubImagery struct{}

func (stubImagery) Name() string { return "nasa-earth" }

func (stubImagery) Fetch(context.Context, climate.Location) (*climate.EarthObservationSample, error) {
	return &climate.EarthObservationSample{ID: "scene-1", Date: time.Now().UTC(), TileURL: "https://example.com/tile"}, nil
}

type stubLLM struct{}

func (stubLLM) Generate(_ context.Context, _ string, _ []session.Turn, message string) (string, error) {
	return "echo: " + message, nil
}

func newTestApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	RegisterRoutes(app, deps)
	return app
}

func testDeps(t *testing.T, geocodeURL string) Deps {
	t.Helper()

	log := logger.Discard()
	svc := climate.NewService(log, stubWeather{}, stubAir{}, stubImagery{}, climate.Options{})
	sessions := session.NewStore(40, time.Hour)

	return Deps{
		Log:             log,
		Climate:         svc,
		Chat:            chat.NewOrchestrator(log, stubLLM{}, svc, sessions, 0),
		Geocoder:        geo.NewGeocoder(http.DefaultClient, geocodeURL),
		Sessions:        sessions,
		MaxContextChars: climate.DefaultMaxContextChars,
		ChatRPS:         100,
		ChatBurst:       100,
	}
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v), "body: %s", raw)
}

func TestDashboardDefaultLocation(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Location climate.Location        `json:"location"`
		Weather  *climate.WeatherReading `json:"weather"`
		Forecast []climate.ForecastDay   `json:"forecast"`
		Derived  *climate.DerivedMetrics `json:"derived"`
		Sources  []climate.SourceStatus  `json:"sources"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, "Bengaluru", body.Location.City)
	require.NotNil(t, body.Weather)
	assert.InDelta(t, 31.0, body.Weather.TemperatureC, 1e-9)
	assert.Len(t, body.Forecast, 7)
	require.NotNil(t, body.Derived)
	require.NotNil(t, body.Derived.AQI)
	assert.Len(t, body.Sources, 3)
}

func TestDashboardValidation(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	for name, target := range map[string]string{
		"days too low":      "/api/v1/dashboard?days=0",
		"days too high":     "/api/v1/dashboard?days=17",
		"days not a number": "/api/v1/dashboard?days=soon",
		"lat without lon":   "/api/v1/dashboard?lat=12.9",
		"lat out of range":  "/api/v1/dashboard?lat=99&lon=77.5",
		"bad stakeholder":   "/api/v1/dashboard?stakeholder=pigeons",
		"city too short":    "/api/v1/dashboard?city=x",
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestDashboardStakeholderView(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?stakeholder=bescom", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Stakeholder string `json:"stakeholder"`
		View        struct {
			CoolingDemandPct *float64  `json:"coolingDemandPercent"`
			HourlyDemandMW   []float64 `json:"hourlyDemandMw"`
		} `json:"view"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, "bescom", body.Stakeholder)
	require.NotNil(t, body.View.CoolingDemandPct)
	assert.Len(t, body.View.HourlyDemandMW, 24)
}

func TestDashboardGeocodesCity(t *testing.T) {
	var askedFor string
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		askedFor = r.URL.Query().Get("name")
		_, _ = w.Write([]byte(`{"results": [{"name": "Mysuru", "latitude": 12.2958, "longitude": 76.6394, "timezone": "Asia/Kolkata"}]}`))
	}))
	defer geoSrv.Close()

	app := newTestApp(testDeps(t, geoSrv.URL))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?city=mysuru", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Location climate.Location `json:"location"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, "Mysuru", askedFor, "city names are title-cased before lookup")
	assert.Equal(t, "Mysuru", body.Location.City)
	assert.InDelta(t, 12.2958, body.Location.Lat, 1e-9)
}

func TestDashboardUnknownCity(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer geoSrv.Close()

	app := newTestApp(testDeps(t, geoSrv.URL))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?city=atlantis", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardGeocoderOutageFallsBack(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer geoSrv.Close()

	app := newTestApp(testDeps(t, geoSrv.URL))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?city=mysuru", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Location climate.Location `json:"location"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Bengaluru", body.Location.City, "geocoder outage serves the default location")
}

func TestContextEndpoint(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/context", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Context string `json:"context"`
		Chars   int    `json:"chars"`
	}
	decodeBody(t, resp, &body)

	assert.Contains(t, body.Context, "Bengaluru")
	assert.Contains(t, body.Context, "Current weather")
	assert.Equal(t, len(body.Context), body.Chars)
	assert.LessOrEqual(t, body.Chars, climate.DefaultMaxContextChars)
}

func postJSON(t *testing.T, app *fiber.App, target string, payload interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestChatFlowAndHistory(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp := postJSON(t, app, "/api/v1/chat", fiber.Map{"message": "How hot is it?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply chat.Reply
	decodeBody(t, resp, &reply)
	require.NotEmpty(t, reply.SessionID)
	assert.Equal(t, "echo: How hot is it?", reply.Text)
	assert.False(t, reply.Degraded)

	// Follow-up on the same session.
	resp = postJSON(t, app, "/api/v1/chat", fiber.Map{"sessionId": reply.SessionID, "message": "And tomorrow?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second chat.Reply
	decodeBody(t, resp, &second)
	assert.Equal(t, reply.SessionID, second.SessionID)

	// History shows all four turns in order.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chat/"+reply.SessionID+"/history", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history struct {
		SessionID string         `json:"sessionId"`
		State     session.State  `json:"state"`
		Turns     []session.Turn `json:"turns"`
	}
	decodeBody(t, resp, &history)
	assert.Equal(t, session.StateIdle, history.State)
	require.Len(t, history.Turns, 4)
	assert.Equal(t, session.RoleUser, history.Turns[0].Role)
	assert.Equal(t, "echo: And tomorrow?", history.Turns[3].Text)
}

func TestChatValidation(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp := postJSON(t, app, "/api/v1/chat", fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/chat", fiber.Map{"sessionId": "not-a-uuid", "message": "hi"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatHistoryUnknownSession(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chat/does-not-exist/history", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatRateLimit(t *testing.T) {
	deps := testDeps(t, "http://127.0.0.1:0")
	deps.ChatRPS = 0.001
	deps.ChatBurst = 1
	app := newTestApp(deps)

	resp := postJSON(t, app, "/api/v1/chat", fiber.Map{"message": "first"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/chat", fiber.Map{"message": "second"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMapLayers(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/map/layers", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Center geo.Point `json:"center"`
		Lakes  []struct {
			Name  string  `json:"name"`
			Score float64 `json:"score"`
		} `json:"lakes"`
		AirStations []struct {
			Name string `json:"name"`
			AQI  int    `json:"aqi"`
		} `json:"airStations"`
		HeatIslands      []geo.HeatIsland      `json:"heatIslands"`
		CoolingZones     []geo.CoolingZone     `json:"coolingZones"`
		Landmarks        []geo.Landmark        `json:"landmarks"`
		PollutionSources []geo.PollutionSource `json:"pollutionSources"`
		DevelopmentZones []geo.DevelopmentZone `json:"developmentZones"`
	}
	decodeBody(t, resp, &body)

	assert.InDelta(t, 12.972, body.Center.Lat, 1e-9)
	assert.Len(t, body.Lakes, 5)
	assert.Len(t, body.AirStations, 5)
	for _, st := range body.AirStations {
		assert.Positive(t, st.AQI, "station %s", st.Name)
	}
	assert.Len(t, body.HeatIslands, 4)
	assert.Len(t, body.CoolingZones, 3)
	assert.Len(t, body.Landmarks, 5)
	assert.Len(t, body.PollutionSources, 4)
	assert.Len(t, body.DevelopmentZones, 4)
}

func TestReportDownload(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/report.xlsx", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestReportValidatesQuery(t *testing.T) {
	app := newTestApp(testDeps(t, "http://127.0.0.1:0"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/report.xlsx?days=99", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportWithoutDataIs404(t *testing.T) {
	deps := testDeps(t, "http://127.0.0.1:0")
	deps.Climate = climate.NewService(logger.Discard(), nil, nil, nil, climate.Options{})
	app := newTestApp(deps)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/report.xlsx", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
