package jobsuche

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/metrics"
	"github.com/janhq/jobsuche-mcp/utils/platformerrors"
)

const (
	// DefaultBaseURL is the public Bundesagentur für Arbeit endpoint.
	DefaultBaseURL = "https://rest.arbeitsagentur.de/jobboerse/jobsuche-service"
	// DefaultAPIKey is the public client id the job board accepts.
	DefaultAPIKey = "jobboerse-jobsuche"

	searchPath  = "/pc/v4/jobs"
	detailsPath = "/pc/v4/jobdetails/"

	opSearch  = "search"
	opDetails = "details"
)

// ClientConfig captures the knobs exposed to operators for the upstream client.
type ClientConfig struct {
	BaseURL string
	APIKey  string

	// HTTP Client Settings
	HTTPTimeout     time.Duration
	MaxIdleConns    int
	MaxConnsPerHost int
	IdleConnTimeout time.Duration

	// Retry Settings
	RetryMaxAttempts   int
	RetryInitialDelay  time.Duration
	RetryMaxDelay      time.Duration
	RetryBackoffFactor float64

	// Circuit Breaker Settings
	CBFailureThreshold uint32
	CBTimeout          time.Duration
	CBMaxHalfOpen      uint32
}

// Client implements jobsearch.SearchClient against the Jobsuche REST API.
type Client struct {
	cfg      ClientConfig
	http     *resty.Client
	breakers map[string]*gobreaker.CircuitBreaker
}

var (
	_ jobsearch.SearchClient    = (*Client)(nil)
	_ jobsearch.BreakerReporter = (*Client)(nil)
)

// NewClient builds a pooled HTTP client with one circuit breaker per operation.
func NewClient(cfg ClientConfig) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = DefaultAPIKey
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 20
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 1
	}
	if cfg.RetryInitialDelay <= 0 {
		cfg.RetryInitialDelay = 250 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 3 * time.Second
	}
	if cfg.RetryBackoffFactor < 1 {
		cfg.RetryBackoffFactor = 2
	}
	if cfg.CBFailureThreshold == 0 {
		cfg.CBFailureThreshold = 5
	}
	if cfg.CBTimeout <= 0 {
		cfg.CBTimeout = 30 * time.Second
	}
	if cfg.CBMaxHalfOpen == 0 {
		cfg.CBMaxHalfOpen = 1
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "Jobsuche-MCP/1.0").
		SetHeader("Accept", "application/json").
		SetHeader("X-API-Key", cfg.APIKey).
		SetTimeout(cfg.HTTPTimeout).
		SetRetryCount(0).
		SetTransport(transport)

	return &Client{
		cfg:  cfg,
		http: httpClient,
		breakers: map[string]*gobreaker.CircuitBreaker{
			opSearch:  newBreaker(opSearch, cfg),
			opDetails: newBreaker(opDetails, cfg),
		},
	}
}

func newBreaker(operation string, cfg ClientConfig) *gobreaker.CircuitBreaker {
	metrics.SetCircuitBreakerState(operation, gobreaker.StateClosed.String())
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        operation,
		MaxRequests: cfg.CBMaxHalfOpen,
		Timeout:     cfg.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CBFailureThreshold
		},
		// Caller mistakes and cancellations say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, jobsearch.ErrNotFound) ||
				errors.Is(err, jobsearch.ErrInvalidFilter) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("operation", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("jobsuche circuit breaker state changed")
			metrics.SetCircuitBreakerState(name, to.String())
		},
	})
}

// BaseURL returns the upstream endpoint in use.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// BreakerStates reports the breaker state per upstream operation.
func (c *Client) BreakerStates() map[string]string {
	states := make(map[string]string, len(c.breakers))
	for name, cb := range c.breakers {
		states[name] = cb.State().String()
	}
	return states
}

// Search requests one page of listings.
func (c *Client) Search(ctx context.Context, filter jobsearch.SearchFilter) (*jobsearch.SearchOutcome, error) {
	params := searchParams(filter)

	body, err := c.call(ctx, opSearch, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(searchPath)
	})
	if err != nil {
		return nil, err
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, upstreamError(ctx, "decode search response", err)
	}

	outcome := res.toOutcome(filter)
	log.Debug().
		Int64("total_results", outcome.TotalResults).
		Int("jobs", len(outcome.Jobs)).
		Int("page", outcome.Page).
		Msg("jobsuche search completed")
	return outcome, nil
}

// GetDetails fetches the full record of one listing.
func (c *Client) GetDetails(ctx context.Context, referenceNumber string) (*jobsearch.JobDetail, error) {
	ref := strings.TrimSpace(referenceNumber)
	encoded := base64.StdEncoding.EncodeToString([]byte(ref))

	body, err := c.call(ctx, opDetails, func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam("ref", encoded).
			Get(detailsPath + "{ref}")
	})
	if err != nil {
		return nil, err
	}

	var res detailResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, upstreamError(ctx, "decode job details response", err)
	}
	return res.toDetail(ref, body), nil
}

// call runs one logical upstream operation: breaker first, then bounded
// retries of transient failures. It returns the response body.
func (c *Client) call(ctx context.Context, operation string, do func() (*resty.Response, error)) ([]byte, error) {
	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordUpstreamRequest(operation, status, time.Since(startTime).Seconds())
	}()

	out, err := c.breakers[operation].Execute(func() (interface{}, error) {
		return backoff.RetryNotifyWithData(func() ([]byte, error) {
			resp, err := do()
			if err != nil {
				if ctx.Err() != nil {
					return nil, backoff.Permanent(ctx.Err())
				}
				return nil, &transportError{err: err}
			}
			if resp.IsError() {
				statusErr := &statusError{code: resp.StatusCode(), body: truncate(resp.String(), 300)}
				if !statusErr.retryable() {
					return nil, backoff.Permanent(statusErr)
				}
				return nil, statusErr
			}
			return resp.Body(), nil
		}, c.retryPolicy(ctx), func(err error, wait time.Duration) {
			log.Warn().
				Err(err).
				Str("operation", operation).
				Dur("retry_in", wait).
				Msg("jobsuche request failed, retrying")
		})
	})

	if err == nil {
		return out.([]byte), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		status = "cancelled"
		return nil, ctxErr
	}

	status = "error"
	mapped := c.mapError(ctx, operation, err)
	log.Error().Err(err).Str("operation", operation).Msg("jobsuche request failed")
	return nil, mapped
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.RetryInitialDelay
	exp.MaxInterval = c.cfg.RetryMaxDelay
	exp.Multiplier = c.cfg.RetryBackoffFactor
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.cfg.RetryMaxAttempts-1)), ctx)
}

func (c *Client) mapError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return upstreamError(ctx, fmt.Sprintf("jobsuche %s circuit breaker is open", operation), err)
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.code {
		case http.StatusNotFound:
			return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeNotFound,
				"job listing not found", fmt.Errorf("%w: %v", jobsearch.ErrNotFound, statusErr), "4f8a2c6e-1b3d-4e7a-9c0f-6d2b8e1a5c73")
		case http.StatusBadRequest:
			return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
				"jobsuche rejected the search parameters", fmt.Errorf("%w: %v", jobsearch.ErrInvalidFilter, statusErr), "a7d3e9b1-5c2f-4a8e-b6d0-3f1c7e9a2b54")
		}
		return upstreamError(ctx, fmt.Sprintf("jobsuche returned status %d", statusErr.code), statusErr)
	}

	return upstreamError(ctx, "jobsuche request failed", err)
}

func upstreamError(ctx context.Context, message string, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
		message, fmt.Errorf("%w: %v", jobsearch.ErrUpstream, err), "e2b6c8d4-9a1f-4c3e-8d7b-5a0f2e4c6b19")
}

func searchParams(filter jobsearch.SearchFilter) map[string]string {
	params := map[string]string{
		"page": strconv.Itoa(filter.Page),
		"size": strconv.Itoa(filter.PageSize),
	}
	if q := filter.Query(); q != "" {
		params["was"] = q
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		params["wo"] = loc
	}
	if filter.RadiusKM != nil {
		params["umkreis"] = strconv.Itoa(*filter.RadiusKM)
	}
	if codes := filter.EmploymentCodes(); len(codes) > 0 {
		params["arbeitszeit"] = strings.Join(codes, ";")
	}
	if codes := filter.ContractCodes(); len(codes) > 0 {
		params["befristung"] = strings.Join(codes, ";")
	}
	if filter.PublishedSinceDays != nil {
		params["veroeffentlichtseit"] = strconv.Itoa(*filter.PublishedSinceDays)
	}
	return params
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.code)
	}
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
