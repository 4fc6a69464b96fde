//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"tavily-mcp-server/internal/domain"
	"tavily-mcp-server/internal/infrastructure"
	"tavily-mcp-server/internal/interfaces"
	"tavily-mcp-server/internal/interfaces/httpserver/routes"
)

func CreateApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
