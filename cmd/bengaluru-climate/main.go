package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/citypulse-labs/bengaluru-climate/internal/api/http"
	"github.com/citypulse-labs/bengaluru-climate/internal/chat"
	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/climate/adapters"
	"github.com/citypulse-labs/bengaluru-climate/internal/config"
	"github.com/citypulse-labs/bengaluru-climate/internal/geo"
	"github.com/citypulse-labs/bengaluru-climate/internal/logger"
	"github.com/citypulse-labs/bengaluru-climate/internal/session"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog := logger.New(cfg.LogLevel, cfg.Env)

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// The three dashboard sources.
	weatherSrc := adapters.NewOpenMeteoWeather(httpClient, cfg.WeatherBaseURL)
	airSrc := adapters.NewOpenMeteoAirQuality(httpClient, cfg.AirQualityBaseURL)
	imagerySrc := adapters.NewNASAEarth(httpClient, cfg.EarthBaseURL, cfg.NASAAPIKey)

	// Core service fanning out to the sources.
	svc := climate.NewService(appLog, weatherSrc, airSrc, imagerySrc, climate.Options{
		Location:     cfg.Location(),
		ForecastDays: cfg.ForecastDays,
		FetchTimeout: cfg.FetchTimeout,
		MaxAge:       cfg.SnapshotMaxAge,
	})

	// Chat sessions with periodic expiry.
	sessions := session.NewStore(cfg.SessionMaxTurns, cfg.SessionTTL)
	sweeper := session.NewSweeper(sessions, cfg.SweepInterval, appLog)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	llm := chat.NewGeminiClient(httpClient, cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiRPM)
	orchestrator := chat.NewOrchestrator(appLog, llm, svc, sessions, cfg.MaxContextChars)

	geocoder := geo.NewGeocoder(httpClient, cfg.GeocodeBaseURL)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "bengaluru-climate",
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
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

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "bengaluru-climate",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Log:             appLog,
		Climate:         svc,
		Chat:            orchestrator,
		Geocoder:        geocoder,
		Sessions:        sessions,
		MaxContextChars: cfg.MaxContextChars,
		ChatRPS:         cfg.ChatRPS,
		ChatBurst:       cfg.ChatBurst,
	})

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLog.Errorf("fiber server stopped: %v", err)
		}
	}()
	appLog.Infof("bengaluru-climate listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.Errorf("error during shutdown: %v", err)
	}
}
