package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
)

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string

	// GeminiAPIKey authenticates the chat model and is the only required
	// setting.
	GeminiAPIKey string
	GeminiModel  string
	GeminiRPM    int

	// NASAAPIKey may be empty; the imagery adapter then uses NASA's public
	// demo key with its tighter limits.
	NASAAPIKey string

	// Default location served when requests name none.
	DefaultCity string
	DefaultLat  float64
	DefaultLon  float64
	Timezone    string

	ForecastDays int

	// Outbound call budgets.
	HTTPTimeout  time.Duration // transport-level timeout for the shared client
	FetchTimeout time.Duration // per-source budget inside a snapshot

	// SnapshotMaxAge is how long a snapshot stays fresh for chat and report.
	SnapshotMaxAge time.Duration

	// Chat session retention.
	SessionTTL      time.Duration
	SessionMaxTurns int
	SweepInterval   time.Duration

	// MaxContextChars bounds the context blob fed to the model.
	MaxContextChars int

	// Inbound chat throttle.
	ChatRPS   float64
	ChatBurst int

	// Base URL overrides, mainly for tests. Empty selects the hosted
	// endpoints.
	WeatherBaseURL    string
	AirQualityBaseURL string
	EarthBaseURL      string
	GeocodeBaseURL    string
	GeminiBaseURL     string
}

// Location returns the configured default location.
func (c *AppConfig) Location() climate.Location {
	return climate.Location{
		City:     c.DefaultCity,
		Lat:      c.DefaultLat,
		Lon:      c.DefaultLon,
		Timezone: c.Timezone,
	}
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Env = getenvDefault("APP_ENV", "development")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	cfg.GeminiModel = getenvDefault("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.GeminiRPM = getenvInt("GEMINI_RPM", 15)

	cfg.NASAAPIKey = os.Getenv("NASA_API_KEY")

	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", "Bengaluru")
	cfg.DefaultLat = getenvFloat("DEFAULT_LAT", 12.972)
	cfg.DefaultLon = getenvFloat("DEFAULT_LON", 77.594)
	cfg.Timezone = getenvDefault("TIMEZONE", "Asia/Kolkata")

	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 7)
	if cfg.ForecastDays < 1 || cfg.ForecastDays > climate.MaxForecastDays {
		return nil, fmt.Errorf("FORECAST_DAYS must be between 1 and %d", climate.MaxForecastDays)
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "8s"); err != nil {
		return nil, err
	}
	if cfg.SnapshotMaxAge, err = getenvDuration("SNAPSHOT_MAX_AGE", "10m"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getenvDuration("SESSION_TTL", "30m"); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getenvDuration("SWEEP_INTERVAL", "5m"); err != nil {
		return nil, err
	}

	cfg.SessionMaxTurns = getenvInt("SESSION_MAX_TURNS", 40)
	cfg.MaxContextChars = getenvInt("MAX_CONTEXT_CHARS", climate.DefaultMaxContextChars)

	cfg.ChatRPS = getenvFloat("CHAT_RPS", 1)
	cfg.ChatBurst = getenvInt("CHAT_BURST", 3)

	cfg.WeatherBaseURL = os.Getenv("WEATHER_BASE_URL")
	cfg.AirQualityBaseURL = os.Getenv("AIR_QUALITY_BASE_URL")
	cfg.EarthBaseURL = os.Getenv("EARTH_ASSETS_BASE_URL")
	cfg.GeocodeBaseURL = os.Getenv("GEOCODE_BASE_URL")
	cfg.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
