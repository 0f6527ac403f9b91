// Package httpapi exposes the dashboard over HTTP: the aggregated snapshot,
// the assistant chat, map layers and the Excel report.
package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/citypulse-labs/bengaluru-climate/internal/chat"
	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/geo"
	"github.com/citypulse-labs/bengaluru-climate/internal/logger"
	"github.com/citypulse-labs/bengaluru-climate/internal/report"
	"github.com/citypulse-labs/bengaluru-climate/internal/session"
)

var validate = validator.New()

// Deps carries everything the handlers need.
type Deps struct {
	Log      logger.Logger
	Climate  *climate.Service
	Chat     *chat.Orchestrator
	Geocoder *geo.Geocoder
	Sessions *session.Store

	MaxContextChars int
	ChatRPS         float64
	ChatBurst       int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", dashboardHandler(deps))
	v1.Get("/context", contextHandler(deps))
	v1.Post("/chat", RateLimit(deps.ChatRPS, deps.ChatBurst), chatHandler(deps))
	v1.Get("/chat/:session/history", historyHandler(deps))
	v1.Get("/map/layers", layersHandler(deps))
	v1.Get("/report.xlsx", reportHandler(deps))
}

// dashboardQuery holds query parameters for the dashboard endpoint.
// Coordinates win over city; city wins over the default location.
type dashboardQuery struct {
	Lat         *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon         *float64 `validate:"omitempty,gte=-180,lte=180"`
	City        string   `validate:"omitempty,min=2,max=64"`
	Days        int      `validate:"gte=1,lte=16"`
	Stakeholder string   `validate:"omitempty,oneof=citizens bbmp bwssb bescom parks researchers"`
}

func (q *dashboardQuery) bind(c *fiber.Ctx) error {
	if raw := c.Query("lat"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid lat %q", raw)
		}
		q.Lat = &v
	}
	if raw := c.Query("lon"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid lon %q", raw)
		}
		q.Lon = &v
	}
	if (q.Lat == nil) != (q.Lon == nil) {
		return errors.New("lat and lon must be provided together")
	}

	q.City = strings.TrimSpace(c.Query("city"))
	q.Stakeholder = strings.ToLower(strings.TrimSpace(c.Query("stakeholder")))

	q.Days = 7
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid days %q", raw)
		}
		q.Days = v
	}

	return validate.Struct(q)
}

// resolveLocation turns the query into a concrete location. A geocoder
// outage falls back to the default location instead of failing the request;
// an unknown city is the caller's mistake and stays a 404.
func resolveLocation(c *fiber.Ctx, deps Deps, q dashboardQuery) (climate.Location, error) {
	if q.Lat != nil && q.Lon != nil {
		city := q.City
		if city == "" {
			city = fmt.Sprintf("%.3f, %.3f", *q.Lat, *q.Lon)
		}
		return climate.Location{City: city, Lat: *q.Lat, Lon: *q.Lon}, nil
	}

	if q.City != "" {
		city := cases.Title(language.English).String(q.City)
		place, err := deps.Geocoder.Lookup(c.UserContext(), city)
		if err != nil {
			if errors.Is(err, geo.ErrNotFound) {
				return climate.Location{}, fiber.NewError(fiber.StatusNotFound, "unknown city: "+city)
			}
			deps.Log.Warnf("geocoding %q failed, using default location: %v", city, err)
			return deps.Climate.DefaultLocation(), nil
		}
		return climate.Location{
			City:     place.Name,
			Lat:      place.Lat,
			Lon:      place.Lon,
			Timezone: place.Timezone,
		}, nil
	}

	return deps.Climate.DefaultLocation(), nil
}

// dashboardResponse is the snapshot plus an optional stakeholder shaping.
type dashboardResponse struct {
	*climate.Snapshot
	Stakeholder string      `json:"stakeholder,omitempty"`
	View        interface{} `json:"view,omitempty"`
}

func dashboardHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q dashboardQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := resolveLocation(c, deps, q)
		if err != nil {
			return err
		}

		snap := deps.Climate.Snapshot(c.UserContext(), loc, q.Days)

		resp := dashboardResponse{Snapshot: snap, Stakeholder: q.Stakeholder}
		if q.Stakeholder != "" {
			resp.View = stakeholderView(q.Stakeholder, snap, deps.MaxContextChars)
		}
		return c.JSON(resp)
	}
}

func contextHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := deps.Climate.Fresh(c.UserContext())
		blob := climate.AssembleContext(snap, deps.MaxContextChars)
		return c.JSON(fiber.Map{
			"context": blob,
			"chars":   len(blob),
		})
	}
}

// chatRequest is the body of POST /chat. An omitted session id starts a
// fresh conversation.
type chatRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,uuid4"`
	Message   string `json:"message" validate:"required,min=1,max=2000"`
}

func chatHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reply, err := deps.Chat.Respond(c.UserContext(), req.SessionID, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrBusy):
				return fiber.NewError(fiber.StatusConflict, "a reply for this session is still being generated")
			case errors.Is(err, chat.ErrEmptyMessage):
				return fiber.NewError(fiber.StatusBadRequest, "message must not be blank")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "chat failed")
			}
		}
		return c.JSON(reply)
	}
}

func historyHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("session")
		turns, ok := deps.Sessions.History(id)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown or expired session")
		}
		return c.JSON(fiber.Map{
			"sessionId": id,
			"state":     deps.Sessions.State(id),
			"turns":     turns,
		})
	}
}

func layersHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := deps.Climate.Fresh(c.UserContext())

		stations := geo.AirStations()
		type stationStatus struct {
			geo.AirStation
			AQI         int                 `json:"aqi"`
			AQICategory climate.AQICategory `json:"aqiCategory"`
		}
		scored := make([]stationStatus, 0, len(stations))
		for _, st := range stations {
			aqi, category := climate.AQIFromPollutants(st.PM25, 0)
			scored = append(scored, stationStatus{AirStation: st, AQI: aqi, AQICategory: category})
		}

		return c.JSON(fiber.Map{
			"center":           geo.CityCenter(),
			"lakes":            scoredLakes(snap),
			"airStations":      scored,
			"heatIslands":      geo.HeatIslands(),
			"coolingZones":     geo.CoolingZones(),
			"landmarks":        geo.Landmarks(),
			"pollutionSources": geo.PollutionSources(),
			"developmentZones": geo.DevelopmentZones(),
		})
	}
}

// reportHandler accepts the same addressing parameters as the dashboard so
// a report can cover any location the dashboard can show.
func reportHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q dashboardQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := resolveLocation(c, deps, q)
		if err != nil {
			return err
		}

		snap := deps.Climate.Snapshot(c.UserContext(), loc, q.Days)

		buf, err := report.Workbook(snap, geo.Lakes())
		if err != nil {
			if errors.Is(err, climate.ErrNoData) {
				return fiber.NewError(fiber.StatusNotFound, "no data available for a report yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "report generation failed")
		}

		filename := "bengaluru-climate-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}
