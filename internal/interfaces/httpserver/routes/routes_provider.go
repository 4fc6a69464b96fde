package routes

import (
	"github.com/google/wire"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/config"
	"tavily-mcp-server/internal/interfaces/httpserver/routes/mcp"
)

// RoutesProvider provides all route dependencies
var RoutesProvider = wire.NewSet(
	ProvideSearchMCP,
	mcp.NewMCPRoute,
)

// ProvideSearchMCP creates the search MCP handler from configuration
func ProvideSearchMCP(service *domainsearch.Service, cfg *config.Config) *mcp.SearchMCP {
	return mcp.NewSearchMCP(service, mcp.SearchMCPConfig{
		MaxSnippetChars:     cfg.MaxSnippetChars,
		MaxExtractTextChars: cfg.MaxExtractTextChars,
	})
}
