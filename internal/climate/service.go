package climate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/citypulse-labs/bengaluru-climate/internal/logger"
)

// WeatherSource yields current conditions plus a daily forecast.
type WeatherSource interface {
	Name() string
	Fetch(ctx context.Context, loc Location, days int) (*WeatherReading, []ForecastDay, error)
}

// AirQualitySource yields current pollutant concentrations.
type AirQualitySource interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (*AirQualityReading, error)
}

// ImagerySource yields the most recent satellite scene for a location.
type ImagerySource interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (*EarthObservationSample, error)
}

// Options tune the service. Zero values fall back to defaults.
type Options struct {
	Location     Location      // default location for Fresh
	ForecastDays int           // default forecast span
	FetchTimeout time.Duration // budget per source call
	MaxAge       time.Duration // snapshot freshness window for Fresh
}

const (
	defaultForecastDays = 7
	defaultFetchTimeout = 8 * time.Second
	defaultMaxAge       = 10 * time.Minute
)

// Service fans out to the three sources and keeps the latest snapshot
// around for the chat and report paths.
type Service struct {
	log     logger.Logger
	weather WeatherSource
	air     AirQualitySource
	imagery ImagerySource
	opts    Options

	mu   sync.RWMutex
	last *Snapshot
}

// NewService wires the sources together. Any source may be nil; it is then
// simply never fetched.
func NewService(log logger.Logger, weather WeatherSource, air AirQualitySource, imagery ImagerySource, opts Options) *Service {
	if opts.ForecastDays <= 0 {
		opts.ForecastDays = defaultForecastDays
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.Location.City == "" {
		opts.Location = Bengaluru()
	}
	return &Service{
		log:     log,
		weather: weather,
		air:     air,
		imagery: imagery,
		opts:    opts,
	}
}

// DefaultLocation reports the location used when requests name none.
func (s *Service) DefaultLocation() Location {
	return s.opts.Location
}

// Snapshot fetches all sources concurrently and assembles the dashboard
// view. A failing or slow source degrades the snapshot instead of failing
// it; the outcome of every fetch lands in Sources. The snapshot becomes the
// new "latest".
func (s *Service) Snapshot(ctx context.Context, loc Location, days int) *Snapshot {
	if days <= 0 {
		days = s.opts.ForecastDays
	}
	if days > MaxForecastDays {
		days = MaxForecastDays
	}

	snap := &Snapshot{Location: loc, FetchedAt: time.Now().UTC()}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	run := func(name string, fetch func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
			defer cancel()

			start := time.Now()
			err := fetch(cctx)

			status := SourceStatus{
				Name:      name,
				OK:        err == nil,
				LatencyMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				status.Error = err.Error()
				s.log.WithField("source", name).Warnf("fetch failed for %s: %v", loc.City, err)
			}

			mu.Lock()
			snap.Sources = append(snap.Sources, status)
			mu.Unlock()
		}()
	}

	if s.weather != nil {
		run(s.weather.Name(), func(cctx context.Context) error {
			w, fc, err := s.weather.Fetch(cctx, loc, days)
			if err != nil {
				return err
			}
			snap.Weather = w
			snap.Forecast = fc
			return nil
		})
	}
	if s.air != nil {
		run(s.air.Name(), func(cctx context.Context) error {
			aq, err := s.air.Fetch(cctx, loc)
			if err != nil {
				return err
			}
			snap.AirQuality = aq
			return nil
		})
	}
	if s.imagery != nil {
		run(s.imagery.Name(), func(cctx context.Context) error {
			eo, err := s.imagery.Fetch(cctx, loc)
			if err != nil {
				return err
			}
			snap.EarthObs = eo
			return nil
		})
	}

	wg.Wait()

	// Stable ordering for clients and logs.
	sort.Slice(snap.Sources, func(i, j int) bool {
		return snap.Sources[i].Name < snap.Sources[j].Name
	})

	snap.Derived = Derive(snap.Weather, snap.AirQuality)

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	return snap
}

// Latest returns the most recent snapshot, or nil before the first fetch.
func (s *Service) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Fresh returns the latest snapshot if it is young enough, fetching a new
// one for the default location otherwise.
func (s *Service) Fresh(ctx context.Context) *Snapshot {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last != nil && time.Since(last.FetchedAt) < s.opts.MaxAge {
		return last
	}
	return s.Snapshot(ctx, s.opts.Location, s.opts.ForecastDays)
}
