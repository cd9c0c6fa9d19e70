package domain

import (
	"github.com/google/wire"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	jobsearch.NewService,
)
