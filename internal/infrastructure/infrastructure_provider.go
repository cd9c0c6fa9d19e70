package infrastructure

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog/log"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/auth"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/config"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/jobsuche"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/pacer"
	"github.com/janhq/jobsuche-mcp/pkg/observability"
	"github.com/janhq/jobsuche-mcp/pkg/telemetry"
)

// ServiceName identifies the server towards MCP clients and in traces.
const ServiceName = "jobsuche-mcp"

// Version is set at build time with -ldflags "-X".
var Version = "0.3.0"

// InfrastructureProvider provides all infrastructure dependencies.
// The *config.Config is an injector argument: it is loaded once at startup.
var InfrastructureProvider = wire.NewSet(
	// Upstream client
	ProvideJobsucheClient,
	wire.Bind(new(jobsearch.SearchClient), new(*jobsuche.Client)),

	// Pacing and limits
	ProvidePacer,
	wire.Bind(new(jobsearch.Pacer), new(*pacer.Pacer)),
	ProvideLimits,
	ProvideServiceInfo,

	// Telemetry
	ProvideSanitizer,
	ProvideObservability,

	// Auth validator
	ProvideAuthValidator,
)

// ProvideJobsucheClient provides the upstream Jobsuche API client
func ProvideJobsucheClient(cfg *config.Config) *jobsuche.Client {
	return jobsuche.NewClient(jobsuche.ClientConfig{
		BaseURL:            cfg.APIURL,
		APIKey:             cfg.APIKey,
		HTTPTimeout:        cfg.HTTPTimeout,
		MaxIdleConns:       cfg.MaxIdleConns,
		MaxConnsPerHost:    cfg.MaxConnsPerHost,
		IdleConnTimeout:    cfg.IdleConnTimeout,
		RetryMaxAttempts:   cfg.RetryMaxAttempts,
		RetryInitialDelay:  cfg.RetryInitialDelay,
		RetryMaxDelay:      cfg.RetryMaxDelay,
		RetryBackoffFactor: cfg.RetryBackoffFactor,
		CBFailureThreshold: cfg.CBFailureThreshold,
		CBTimeout:          cfg.CBTimeout,
		CBMaxHalfOpen:      cfg.CBMaxHalfOpen,
	})
}

// ProvidePacer provides the process-wide pacer
func ProvidePacer(cfg *config.Config) *pacer.Pacer {
	return pacer.New(map[jobsearch.PaceClass]time.Duration{
		jobsearch.PaceDetail: cfg.DetailInterval,
		jobsearch.PaceSearch: cfg.SearchInterval,
	})
}

// ProvideLimits maps configured caps onto orchestration limits
func ProvideLimits(cfg *config.Config) jobsearch.Limits {
	return jobsearch.Limits{
		DefaultPageSize:        cfg.DefaultPageSize,
		MaxPageSize:            cfg.MaxPageSize,
		MaxRadiusKM:            cfg.MaxRadiusKM,
		MaxPublishedSinceDays:  cfg.MaxPublishedSinceDays,
		DefaultMaxDetails:      cfg.DefaultMaxDetails,
		MaxDetails:             cfg.MaxDetails,
		BatchDefaultMaxDetails: cfg.BatchDefaultMaxDetails,
		MaxBatchSearches:       cfg.MaxBatchSearches,
	}
}

// ProvideServiceInfo describes the running service for status reports
func ProvideServiceInfo(cfg *config.Config) jobsearch.ServiceInfo {
	return jobsearch.ServiceInfo{
		Name:      ServiceName,
		Version:   Version,
		APIURL:    cfg.APIURL,
		StartedAt: time.Now(),
	}
}

// ProvideSanitizer provides the PII sanitizer used before logging search terms
func ProvideSanitizer(cfg *config.Config) *telemetry.Sanitizer {
	return telemetry.NewSanitizer(telemetry.ParsePIILevel(cfg.PIILevel), ServiceName+"-"+cfg.Environment)
}

// ProvideObservability initializes tracing
func ProvideObservability(ctx context.Context, cfg *config.Config) (*observability.Provider, error) {
	obsCfg := observability.DefaultConfig(ServiceName)
	obsCfg.ServiceVersion = Version
	obsCfg.Environment = cfg.Environment
	obsCfg.TracingEnabled = cfg.OTELEnabled
	obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.OTLPInsecure
	obsCfg.SamplingRate = cfg.OTELSampleRatio

	provider, err := observability.Init(ctx, obsCfg)
	if err != nil {
		return nil, err
	}
	if cfg.OTELEnabled {
		log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("OpenTelemetry tracing enabled")
	}
	return provider, nil
}

// ProvideAuthValidator provides the auth validator
func ProvideAuthValidator(ctx context.Context, cfg *config.Config) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg)
}
