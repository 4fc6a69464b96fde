package infrastructure

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog/log"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/auth"
	"tavily-mcp-server/internal/infrastructure/config"
	"tavily-mcp-server/internal/infrastructure/searchcache"
	"tavily-mcp-server/internal/infrastructure/tavily"
)

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Tavily client
	ProvideTavilyClient,

	// Admission gate
	ProvideGate,

	// Result cache
	ProvideSearchCache,

	// Topic profiles
	ProvideTopicProfiles,

	// Auth validator
	ProvideAuthValidator,
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideTavilyClient provides the provider client with retry and breaker wiring
func ProvideTavilyClient(cfg *config.Config) domainsearch.Client {
	return tavily.NewClient(tavily.ClientConfig{
		APIKey:          cfg.TavilyAPIKey,
		SearchEndpoint:  cfg.TavilySearchEndpoint,
		ExtractEndpoint: cfg.TavilyExtractEndpoint,

		HTTPTimeout:     time.Duration(cfg.TavilyHTTPTimeout) * time.Second,
		MaxConnsPerHost: cfg.TavilyMaxConnsPerHost,
		MaxIdleConns:    cfg.TavilyMaxIdleConns,
		IdleConnTimeout: time.Duration(cfg.TavilyIdleConnTimeout) * time.Second,

		RetryMaxAttempts:   cfg.RetryMaxAttempts,
		RetryInitialDelay:  time.Duration(cfg.RetryInitialDelay) * time.Millisecond,
		RetryMaxDelay:      time.Duration(cfg.RetryMaxDelay) * time.Millisecond,
		RetryBackoffFactor: cfg.RetryBackoffFactor,

		CBEnabled:          cfg.CBEnabled,
		CBFailureThreshold: cfg.CBFailureThreshold,
		CBSuccessThreshold: cfg.CBSuccessThreshold,
		CBTimeout:          time.Duration(cfg.CBTimeout) * time.Second,
		CBMaxHalfOpen:      cfg.CBMaxHalfOpen,
	})
}

// ProvideGate provides the admission semaphore bounding outbound calls
func ProvideGate(cfg *config.Config) domainsearch.Gate {
	return tavily.NewGate(cfg.MaxConcurrentCalls)
}

// ProvideSearchCache provides the TTL result cache, or nil when disabled
func ProvideSearchCache(cfg *config.Config) domainsearch.Cache {
	if !cfg.CacheEnabled {
		return nil
	}
	return searchcache.NewWithTTL(time.Duration(cfg.CacheTTLSeconds) * time.Second)
}

// ProvideTopicProfiles loads the topic profile table, falling back to the
// built-in defaults when no override file is configured
func ProvideTopicProfiles(cfg *config.Config) domainsearch.TopicProfiles {
	if cfg.TopicProfilesFile == "" {
		return domainsearch.DefaultTopicProfiles()
	}
	profiles, err := domainsearch.LoadTopicProfiles(cfg.TopicProfilesFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.TopicProfilesFile).Msg("failed to load topic profiles, using defaults")
		return domainsearch.DefaultTopicProfiles()
	}
	return profiles
}

// ProvideAuthValidator provides the auth validator
func ProvideAuthValidator(ctx context.Context, cfg *config.Config) (*auth.Validator, error) {
	logger := log.Logger
	return auth.NewValidator(ctx, cfg, logger)
}
