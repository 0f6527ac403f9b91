package climate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse-labs/bengaluru-climate/internal/logger"
)

type stubWeather struct {
	reading  *WeatherReading
	forecast []ForecastDay
	err      error
	delay    time.Duration
	calls    atomic.Int64
}

func (s *stubWeather) Name() string { return "open-meteo-weather" }

func (s *stubWeather) Fetch(ctx context.Context, loc Location, days int) (*WeatherReading, []ForecastDay, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.reading, s.forecast, nil
}

type stubAir struct {
	reading *AirQualityReading
	err     error
}

func (s *stubAir) Name() string { return "open-meteo-air" }

func (s *stubAir) Fetch(ctx context.Context, loc Location) (*AirQualityReading, error) {
	return s.reading, s.err
}

type stubImagery struct {
	sample *EarthObservationSample
	err    error
}

func (s *stubImagery) Name() string { return "nasa-earth" }

func (s *stubImagery) Fetch(ctx context.Context, loc Location) (*EarthObservationSample, error) {
	return s.sample, s.err
}

func TestSnapshotAggregatesAllSources(t *testing.T) {
	svc := NewService(logger.Discard(),
		&stubWeather{
			reading:  &WeatherReading{TemperatureC: 29, HumidityPct: 55, WindSpeedKmh: 7},
			forecast: []ForecastDay{{Date: "2026-03-14"}},
		},
		&stubAir{reading: &AirQualityReading{PM25: 30, PM10: 60}},
		&stubImagery{sample: &EarthObservationSample{ID: "scene-1"}},
		Options{},
	)

	snap := svc.Snapshot(context.Background(), Bengaluru(), 3)
	require.NotNil(t, snap)

	assert.NotNil(t, snap.Weather)
	assert.NotNil(t, snap.AirQuality)
	assert.NotNil(t, snap.EarthObs)
	assert.Len(t, snap.Forecast, 1)
	require.NotNil(t, snap.Derived)
	assert.NotNil(t, snap.Derived.AQI)
	assert.False(t, snap.Degraded())

	// Statuses come back sorted by source name.
	require.Len(t, snap.Sources, 3)
	assert.Equal(t, "nasa-earth", snap.Sources[0].Name)
	assert.Equal(t, "open-meteo-air", snap.Sources[1].Name)
	assert.Equal(t, "open-meteo-weather", snap.Sources[2].Name)
}

func TestSnapshotToleratesPartialFailure(t *testing.T) {
	svc := NewService(logger.Discard(),
		&stubWeather{reading: &WeatherReading{TemperatureC: 27}},
		&stubAir{err: errors.New("upstream: rate limited")},
		&stubImagery{err: errors.New("upstream: unreachable")},
		Options{},
	)

	snap := svc.Snapshot(context.Background(), Bengaluru(), 0)

	assert.NotNil(t, snap.Weather)
	assert.Nil(t, snap.AirQuality)
	assert.Nil(t, snap.EarthObs)
	assert.True(t, snap.Degraded())
	assert.False(t, snap.Empty())

	require.NotNil(t, snap.Derived)
	assert.Nil(t, snap.Derived.AQI)
	assert.NotNil(t, snap.Derived.ComfortIndex)

	for _, src := range snap.Sources {
		if src.Name == "open-meteo-air" {
			assert.False(t, src.OK)
			assert.Contains(t, src.Error, "rate limited")
		}
	}
}

func TestSnapshotAllSourcesDown(t *testing.T) {
	svc := NewService(logger.Discard(),
		&stubWeather{err: errors.New("boom")},
		&stubAir{err: errors.New("boom")},
		&stubImagery{err: errors.New("boom")},
		Options{},
	)

	snap := svc.Snapshot(context.Background(), Bengaluru(), 0)

	assert.True(t, snap.Empty())
	assert.Nil(t, snap.Derived)
	assert.Equal(t, NoDataPlaceholder, AssembleContext(snap, 0))
}

func TestSnapshotTimesOutSlowSource(t *testing.T) {
	svc := NewService(logger.Discard(),
		&stubWeather{
			reading: &WeatherReading{TemperatureC: 27},
			delay:   200 * time.Millisecond,
		},
		&stubAir{reading: &AirQualityReading{PM25: 12}},
		nil,
		Options{FetchTimeout: 30 * time.Millisecond},
	)

	snap := svc.Snapshot(context.Background(), Bengaluru(), 0)

	// The slow source is treated as absent, the fast one still lands.
	assert.Nil(t, snap.Weather)
	assert.NotNil(t, snap.AirQuality)
	assert.True(t, snap.Degraded())
}

func TestFreshReusesYoungSnapshot(t *testing.T) {
	weather := &stubWeather{reading: &WeatherReading{TemperatureC: 25}}
	svc := NewService(logger.Discard(), weather, nil, nil, Options{MaxAge: time.Hour})

	first := svc.Fresh(context.Background())
	second := svc.Fresh(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), weather.calls.Load())
}

func TestFreshRefetchesStaleSnapshot(t *testing.T) {
	weather := &stubWeather{reading: &WeatherReading{TemperatureC: 25}}
	svc := NewService(logger.Discard(), weather, nil, nil, Options{MaxAge: time.Nanosecond})

	svc.Fresh(context.Background())
	time.Sleep(time.Millisecond)
	svc.Fresh(context.Background())

	assert.Equal(t, int64(2), weather.calls.Load())
}

func TestLatestIsNilBeforeFirstFetch(t *testing.T) {
	svc := NewService(logger.Discard(), nil, nil, nil, Options{})
	assert.Nil(t, svc.Latest())
}
