package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Jobsuche MCP service.
//
// Values are layered: built-in defaults, then the optional YAML file named by
// JOBSUCHE_CONFIG_FILE, then environment variables (a .env file in the working
// directory is loaded first and never overrides the real environment).
type Config struct {
	// Server
	Transport   string `env:"MCP_TOOLS_TRANSPORT" yaml:"transport" validate:"oneof=stdio http"`
	HTTPPort    string `env:"MCP_TOOLS_HTTP_PORT" yaml:"http_port" validate:"required,numeric"`
	MetricsPort string `env:"MCP_TOOLS_METRICS_PORT" yaml:"metrics_port" validate:"omitempty,numeric"` // stdio transport only
	LogLevel    string `env:"MCP_TOOLS_LOG_LEVEL" yaml:"log_level"`
	LogFormat   string `env:"MCP_TOOLS_LOG_FORMAT" yaml:"log_format" validate:"oneof=json console"`
	Environment string `env:"ENVIRONMENT" yaml:"environment"`

	// Upstream Jobsuche API
	APIURL          string `env:"JOBSUCHE_API_URL" yaml:"api_url" validate:"required,jobsuche_url"`
	APIKey          string `env:"JOBSUCHE_API_KEY" yaml:"api_key" validate:"required"`
	DefaultPageSize int    `env:"JOBSUCHE_DEFAULT_PAGE_SIZE" yaml:"default_page_size" validate:"min=1,ltefield=MaxPageSize"`
	MaxPageSize     int    `env:"JOBSUCHE_MAX_PAGE_SIZE" yaml:"max_page_size" validate:"min=1,max=100"`

	// HTTP client
	HTTPTimeout     time.Duration `env:"JOBSUCHE_HTTP_TIMEOUT" yaml:"http_timeout" validate:"gt=0"`
	MaxIdleConns    int           `env:"JOBSUCHE_MAX_IDLE_CONNS" yaml:"max_idle_conns" validate:"min=1"`
	MaxConnsPerHost int           `env:"JOBSUCHE_MAX_CONNS_PER_HOST" yaml:"max_conns_per_host" validate:"min=1"`
	IdleConnTimeout time.Duration `env:"JOBSUCHE_IDLE_CONN_TIMEOUT" yaml:"idle_conn_timeout"`

	// Retry
	RetryMaxAttempts   int           `env:"JOBSUCHE_RETRY_MAX_ATTEMPTS" yaml:"retry_max_attempts" validate:"min=1,max=10"`
	RetryInitialDelay  time.Duration `env:"JOBSUCHE_RETRY_INITIAL_DELAY" yaml:"retry_initial_delay"`
	RetryMaxDelay      time.Duration `env:"JOBSUCHE_RETRY_MAX_DELAY" yaml:"retry_max_delay"`
	RetryBackoffFactor float64       `env:"JOBSUCHE_RETRY_BACKOFF_FACTOR" yaml:"retry_backoff_factor" validate:"gte=1"`

	// Circuit breaker
	CBFailureThreshold uint32        `env:"JOBSUCHE_CB_FAILURE_THRESHOLD" yaml:"cb_failure_threshold" validate:"min=1"`
	CBTimeout          time.Duration `env:"JOBSUCHE_CB_TIMEOUT" yaml:"cb_timeout"`
	CBMaxHalfOpen      uint32        `env:"JOBSUCHE_CB_MAX_HALF_OPEN" yaml:"cb_max_half_open" validate:"min=1"`

	// Pacing and orchestration limits
	DetailInterval         time.Duration `env:"JOBSUCHE_DETAIL_INTERVAL" yaml:"detail_interval" validate:"gte=0"`
	SearchInterval         time.Duration `env:"JOBSUCHE_SEARCH_INTERVAL" yaml:"search_interval" validate:"gte=0"`
	DefaultMaxDetails      int           `env:"JOBSUCHE_DEFAULT_MAX_DETAILS" yaml:"default_max_details" validate:"min=0,ltefield=MaxDetails"`
	MaxDetails             int           `env:"JOBSUCHE_MAX_DETAILS" yaml:"max_details" validate:"min=0,max=50"`
	BatchDefaultMaxDetails int           `env:"JOBSUCHE_BATCH_DEFAULT_MAX_DETAILS" yaml:"batch_default_max_details" validate:"min=0,ltefield=MaxDetails"`
	MaxBatchSearches       int           `env:"JOBSUCHE_MAX_BATCH_SEARCHES" yaml:"max_batch_searches" validate:"min=1,max=20"`
	MaxRadiusKM            int           `env:"JOBSUCHE_MAX_RADIUS_KM" yaml:"max_radius_km" validate:"min=0"`
	MaxPublishedSinceDays  int           `env:"JOBSUCHE_MAX_PUBLISHED_SINCE_DAYS" yaml:"max_published_since_days" validate:"min=0"`

	// Observability
	OTELEnabled     bool    `env:"OTEL_ENABLED" yaml:"otel_enabled"`
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" yaml:"otlp_endpoint"`
	OTLPInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" yaml:"otlp_insecure"`
	OTELSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" yaml:"otel_sample_ratio" validate:"gte=0,lte=1"`
	PIILevel        string  `env:"MCP_PII_LEVEL" yaml:"pii_level" validate:"oneof=none hashed full"`

	// Authentication (http transport)
	AuthEnabled bool   `env:"AUTH_ENABLED" yaml:"auth_enabled"`
	AuthIssuer  string `env:"AUTH_ISSUER" yaml:"auth_issuer" validate:"required_if=AuthEnabled true"`
	Account     string `env:"ACCOUNT" yaml:"account" validate:"required_if=AuthEnabled true"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL" yaml:"auth_jwks_url" validate:"required_if=AuthEnabled true"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Transport:   "stdio",
		HTTPPort:    "8091",
		LogLevel:    "info",
		LogFormat:   "json",
		Environment: "development",

		APIURL:          "https://rest.arbeitsagentur.de/jobboerse/jobsuche-service",
		APIKey:          "jobboerse-jobsuche",
		DefaultPageSize: 25,
		MaxPageSize:     100,

		HTTPTimeout:     15 * time.Second,
		MaxIdleConns:    20,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 90 * time.Second,

		RetryMaxAttempts:   3,
		RetryInitialDelay:  250 * time.Millisecond,
		RetryMaxDelay:      3 * time.Second,
		RetryBackoffFactor: 2,

		CBFailureThreshold: 5,
		CBTimeout:          30 * time.Second,
		CBMaxHalfOpen:      1,

		DetailInterval:         100 * time.Millisecond,
		SearchInterval:         200 * time.Millisecond,
		DefaultMaxDetails:      5,
		MaxDetails:             10,
		BatchDefaultMaxDetails: 3,
		MaxBatchSearches:       5,
		MaxRadiusKM:            200,
		MaxPublishedSinceDays:  100,

		OTLPEndpoint:    "localhost:4318",
		OTLPInsecure:    true,
		OTELSampleRatio: 1,
		PIILevel:        "hashed",
	}
}

// LoadConfig loads configuration from JOBSUCHE_CONFIG_FILE (if set) and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Load(strings.TrimSpace(os.Getenv("JOBSUCHE_CONFIG_FILE")))
}

// Load layers the YAML file at path (optional) and the environment over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(os.Getenv("MCP_TOOLS_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("MCP_TOOLS_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("env"); name != "" {
			return name
		}
		return field.Name
	})
	if err := v.RegisterValidation("jobsuche_url", validJobsucheURL); err != nil {
		panic(fmt.Sprintf("register jobsuche_url validation: %v", err))
	}
	return v
}

// validJobsucheURL accepts absolute http and https URLs with a host.
func validJobsucheURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Validate checks field bounds and cross-field rules.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_if":
		return fmt.Sprintf("%s is required when AUTH_ENABLED is true", fe.Field())
	case "jobsuche_url":
		return fmt.Sprintf("%s must be an http or https URL, got %q", fe.Field(), fe.Value())
	case "ltefield":
		return fmt.Sprintf("%s (%v) must not exceed %s", fe.Field(), fe.Value(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (value %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
}
