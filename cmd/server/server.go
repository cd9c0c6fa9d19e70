package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/jobsuche-mcp/internal/infrastructure/auth"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/config"
	_ "github.com/janhq/jobsuche-mcp/internal/infrastructure/metrics" // Register Prometheus metrics
	"github.com/janhq/jobsuche-mcp/internal/interfaces/httpserver"
	mcproutes "github.com/janhq/jobsuche-mcp/internal/interfaces/httpserver/routes/mcp"
	"github.com/janhq/jobsuche-mcp/pkg/observability"
)

type Application struct {
	config        *config.Config
	httpServer    *httpserver.HTTPServer
	mcpRoute      *mcproutes.MCPRoute
	jobsearchMCP  *mcproutes.JobsearchMCP
	authValidator *auth.Validator
	obs           *observability.Provider
}

// Start serves MCP over the configured transport until ctx is cancelled.
func (app *Application) Start(ctx context.Context) error {
	switch app.config.Transport {
	case "http":
		log.Info().Str("address", fmt.Sprintf(":%s", app.config.HTTPPort)).Msg("serving MCP over streamable HTTP")
		return app.httpServer.Run(ctx)
	default:
		if app.config.MetricsPort != "" {
			go app.serveMetrics(ctx)
		}
		log.Info().Msg("serving MCP over stdio")
		err := app.mcpRoute.Server().Run(ctx, &mcp.StdioTransport{})
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	}
}

// serveMetrics exposes /metrics on its own port while stdio owns stdout.
func (app *Application) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.config.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("address", srv.Addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server failed")
	}
}

// Close releases background resources and flushes traces.
func (app *Application) Close() {
	app.authValidator.Close()
	if app.obs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.obs.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to flush traces")
	}
}
