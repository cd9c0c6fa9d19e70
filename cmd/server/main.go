package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/janhq/jobsuche-mcp/internal/infrastructure"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/config"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/logger"
)

func init() {
	// Initialize logger with default settings; stdout may belong to MCP stdio.
	logger.Init("info", "json", os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jobsuche-mcp",
	Short: "MCP server for the Bundesagentur für Arbeit job search",
	Long: `jobsuche-mcp exposes the Bundesagentur für Arbeit Jobsuche API as
Model Context Protocol tools: paged search, listing details, searches
expanded with details and batches of named searches.

Examples:
  # Serve MCP over stdio (default) or streamable HTTP
  jobsuche-mcp serve
  jobsuche-mcp serve --transport http

  # Query the API from the shell
  jobsuche-mcp search --job-title Softwareentwickler --location Berlin
  jobsuche-mcp search --job-title Pflege --with-details --max-details 3
  jobsuche-mcp details 10000-1234567890-S
  jobsuche-mcp batch searches.json
  jobsuche-mcp status`,
	Version:           infrastructure.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools",
	Long:  `Serve the MCP tools over stdio or streamable HTTP until interrupted.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(statusCmd)

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file (overrides JOBSUCHE_CONFIG_FILE)")
	serveCmd.Flags().String("transport", "", "Transport to serve: stdio or http (overrides MCP_TOOLS_TRANSPORT)")
}

// loadedConfig is read once by setup and handed to the injector.
var loadedConfig *config.Config

// setup applies flag overrides to the environment, loads the configuration
// and configures logging from it.
func setup(cmd *cobra.Command, _ []string) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("JOBSUCHE_CONFIG_FILE", path); err != nil {
			return err
		}
	}
	if cmd.Flags().Lookup("transport") != nil {
		if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
			if err := os.Setenv("MCP_TOOLS_TRANSPORT", transport); err != nil {
				return err
			}
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Only the HTTP server may log to stdout; everything else prints results there.
	out := os.Stderr
	if cmd == serveCmd && cfg.Transport == "http" {
		out = os.Stdout
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, out)
	loadedConfig = cfg
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	log.Info().
		Str("transport", app.config.Transport).
		Str("api_url", app.config.APIURL).
		Str("version", infrastructure.Version).
		Msg("Starting Jobsuche MCP service")

	return app.Start(ctx)
}

func newApplication(ctx context.Context) (*Application, error) {
	if loadedConfig == nil {
		return nil, errors.New("configuration not loaded")
	}
	app, err := CreateApplication(ctx, loadedConfig)
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}
