package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tavily-mcp-server/internal/infrastructure/config"
	"tavily-mcp-server/internal/infrastructure/logger"
	_ "tavily-mcp-server/internal/infrastructure/metrics" // Register Prometheus metrics
	"tavily-mcp-server/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HTTPServer
}

func init() {
	// Initialize logger with default settings
	logger.Init("info", "json")
}

func (app *Application) Start(ctx context.Context) error {
	return app.httpServer.Run()
}

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Re-initialize logger with config settings
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Int("max_concurrent_calls", cfg.MaxConcurrentCalls).
		Msg("Starting Tavily MCP service")

	// Create application with dependency injection
	application, err := CreateApplication(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	log.Info().Str("address", fmt.Sprintf(":%s", cfg.HTTPPort)).Msg("Server listening")
	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
