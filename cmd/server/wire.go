//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/janhq/jobsuche-mcp/internal/domain"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/config"
	"github.com/janhq/jobsuche-mcp/internal/interfaces"
	"github.com/janhq/jobsuche-mcp/internal/interfaces/httpserver/routes"
)

func CreateApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
