package domain

import (
	"github.com/google/wire"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/config"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	ProvideSearchService,
)

// ProvideSearchService wires the search service from its collaborators
func ProvideSearchService(
	client domainsearch.Client,
	gate domainsearch.Gate,
	cache domainsearch.Cache,
	profiles domainsearch.TopicProfiles,
	cfg *config.Config,
) *domainsearch.Service {
	return domainsearch.NewService(client, gate, cache, profiles, cfg.MinUniqueResults)
}
