package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the Tavily MCP service
type Config struct {
	// HTTP Server - using MCP_TAVILY_ prefix to avoid collisions
	HTTPPort  string `env:"MCP_TAVILY_HTTP_PORT" envDefault:"8093"`
	LogLevel  string `env:"MCP_TAVILY_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"MCP_TAVILY_LOG_FORMAT" envDefault:"json"` // json or console

	// Upstream provider
	TavilyAPIKey          string `env:"TAVILY_API_KEY"`
	TavilySearchEndpoint  string `env:"TAVILY_SEARCH_ENDPOINT" envDefault:"https://api.tavily.com/search"`
	TavilyExtractEndpoint string `env:"TAVILY_EXTRACT_ENDPOINT" envDefault:"https://api.tavily.com/extract"`

	// HTTP Client Performance
	TavilyHTTPTimeout     int `env:"TAVILY_HTTP_TIMEOUT" envDefault:"30"` // seconds
	TavilyMaxConnsPerHost int `env:"TAVILY_MAX_CONNS_PER_HOST" envDefault:"50"`
	TavilyMaxIdleConns    int `env:"TAVILY_MAX_IDLE_CONNS" envDefault:"100"`
	TavilyIdleConnTimeout int `env:"TAVILY_IDLE_CONN_TIMEOUT" envDefault:"90"` // seconds

	// Retry Configuration
	RetryMaxAttempts   int     `env:"TAVILY_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryInitialDelay  int     `env:"TAVILY_RETRY_INITIAL_DELAY" envDefault:"500"` // milliseconds
	RetryMaxDelay      int     `env:"TAVILY_RETRY_MAX_DELAY" envDefault:"5000"`    // milliseconds
	RetryBackoffFactor float64 `env:"TAVILY_RETRY_BACKOFF_FACTOR" envDefault:"2.0"`

	// Admission gate - bounds concurrent outbound provider calls
	MaxConcurrentCalls int `env:"TAVILY_MAX_CONCURRENT_CALLS" envDefault:"5"`

	// Circuit Breaker Configuration
	CBEnabled          bool `env:"TAVILY_CB_ENABLED" envDefault:"true"`
	CBFailureThreshold int  `env:"TAVILY_CB_FAILURE_THRESHOLD" envDefault:"15"`
	CBSuccessThreshold int  `env:"TAVILY_CB_SUCCESS_THRESHOLD" envDefault:"5"`
	CBTimeout          int  `env:"TAVILY_CB_TIMEOUT" envDefault:"45"` // seconds
	CBMaxHalfOpen      int  `env:"TAVILY_CB_MAX_HALF_OPEN" envDefault:"10"`

	// Result cache
	CacheEnabled    bool `env:"MCP_TAVILY_CACHE_ENABLED" envDefault:"true"`
	CacheTTLSeconds int  `env:"MCP_TAVILY_CACHE_TTL" envDefault:"120"`

	// Topic profiles - optional YAML file overriding the built-in table
	TopicProfilesFile string `env:"MCP_TAVILY_TOPIC_PROFILES_FILE"`

	// Comprehensive search
	MinUniqueResults int `env:"MCP_TAVILY_MIN_UNIQUE_RESULTS" envDefault:"8"`

	// Tool result size limits
	MaxSnippetChars     int `env:"MCP_TAVILY_MAX_SNIPPET_CHARS" envDefault:"300"`
	MaxExtractTextChars int `env:"MCP_TAVILY_MAX_EXTRACT_TEXT_CHARS" envDefault:"50000"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(os.Getenv("MCP_TAVILY_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("MCP_TAVILY_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}
	if strings.TrimSpace(cfg.TavilyAPIKey) == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY is required")
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}
