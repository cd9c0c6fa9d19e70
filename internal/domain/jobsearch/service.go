package jobsearch

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/jobsuche-mcp/pkg/telemetry"
)

const tracerName = "github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"

// SearchClient performs the raw upstream calls. Errors wrap ErrInvalidFilter,
// ErrNotFound or ErrUpstream, or the context error when ctx ends first.
type SearchClient interface {
	Search(ctx context.Context, filter SearchFilter) (*SearchOutcome, error)
	GetDetails(ctx context.Context, referenceNumber string) (*JobDetail, error)
}

// BreakerReporter is implemented by clients that guard upstream calls with
// circuit breakers.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// PaceClass names an independently spaced stream of upstream calls.
type PaceClass string

const (
	PaceDetail PaceClass = "detail"
	PaceSearch PaceClass = "search"
)

// Pacer spaces upstream calls of the same class. Wait blocks until the caller
// may proceed and returns the permitted timestamp.
type Pacer interface {
	Wait(ctx context.Context, class PaceClass) (time.Time, error)
}

// IntervalReporter is implemented by pacers that can report their spacing.
type IntervalReporter interface {
	Intervals() map[PaceClass]time.Duration
}

// ServiceInfo identifies the running service in status reports.
type ServiceInfo struct {
	Name      string
	Version   string
	APIURL    string
	StartedAt time.Time
}

// Service orchestrates searches, detail expansion and batches against the
// upstream job search API.
type Service struct {
	client    SearchClient
	pacer     Pacer
	limits    Limits
	info      ServiceInfo
	sanitizer *telemetry.Sanitizer
	tracer    trace.Tracer
}

// NewService creates the orchestration service. The pacer must be shared by
// every caller in the process.
func NewService(client SearchClient, pacer Pacer, limits Limits, info ServiceInfo, sanitizer *telemetry.Sanitizer) *Service {
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}
	return &Service{
		client:    client,
		pacer:     pacer,
		limits:    limits,
		info:      info,
		sanitizer: sanitizer,
		tracer:    otel.Tracer(tracerName),
	}
}

// Limits returns the bounds applied to caller input.
func (s *Service) Limits() Limits {
	return s.limits
}

// Search runs one paced search.
func (s *Service) Search(ctx context.Context, in FilterInput) (*SearchOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "jobsearch.search")
	defer span.End()

	filter, err := NewSearchFilter(ctx, in, s.limits)
	if err != nil {
		return nil, spanError(span, err)
	}
	if _, err := s.pacer.Wait(ctx, PaceSearch); err != nil {
		return nil, spanError(span, aborted(ctx, err))
	}
	outcome, err := s.search(ctx, filter)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.Int64("jobsearch.total_results", outcome.TotalResults))
	return outcome, nil
}

// GetDetails fetches the details of one listing after waiting for the pacer.
func (s *Service) GetDetails(ctx context.Context, referenceNumber string) (*JobDetail, error) {
	ctx, span := s.tracer.Start(ctx, "jobsearch.get_details")
	defer span.End()

	referenceNumber = strings.TrimSpace(referenceNumber)
	if referenceNumber == "" {
		return nil, spanError(span, invalidFilterf(ctx, "reference_number is required"))
	}
	span.SetAttributes(attribute.String("jobsearch.reference_number", referenceNumber))

	if _, err := s.pacer.Wait(ctx, PaceDetail); err != nil {
		return nil, spanError(span, aborted(ctx, err))
	}
	detail, err := s.client.GetDetails(ctx, referenceNumber)
	if err != nil {
		if ctx.Err() != nil {
			return nil, spanError(span, aborted(ctx, err))
		}
		return nil, spanError(span, err)
	}
	return detail, nil
}

// Status probes the upstream API with a one-result search.
func (s *Service) Status(ctx context.Context) (*StatusReport, error) {
	ctx, span := s.tracer.Start(ctx, "jobsearch.status")
	defer span.End()

	report := &StatusReport{
		Name:    s.info.Name,
		Version: s.info.Version,
		APIURL:  s.info.APIURL,
		Uptime:  time.Since(s.info.StartedAt),
	}
	if reporter, ok := s.client.(BreakerReporter); ok {
		report.CircuitBreakers = reporter.BreakerStates()
	}
	if reporter, ok := s.pacer.(IntervalReporter); ok {
		report.PaceIntervals = reporter.Intervals()
	}

	if _, err := s.pacer.Wait(ctx, PaceSearch); err != nil {
		return nil, spanError(span, aborted(ctx, err))
	}
	probe := SearchFilter{Page: 1, PageSize: 1}
	start := time.Now()
	_, err := s.client.Search(ctx, probe)
	report.ProbeDuration = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, spanError(span, aborted(ctx, err))
		}
		report.ProbeError = outcomeError(err)
		log.Warn().Err(err).Msg("upstream connectivity probe failed")
		return report, nil
	}
	report.Connected = true
	return report, nil
}

// search calls the client without pacing and times the call.
func (s *Service) search(ctx context.Context, filter SearchFilter) (*SearchOutcome, error) {
	log.Debug().
		Str("query", s.sanitize(filter.Query())).
		Str("location", filter.Location).
		Int("page", filter.Page).
		Int("page_size", filter.PageSize).
		Msg("searching upstream")

	start := time.Now()
	outcome, err := s.client.Search(ctx, filter)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, aborted(ctx, err)
		}
		return nil, err
	}
	outcome.SearchDuration = elapsed
	outcome.Filter = filter
	return outcome, nil
}

// clampDetails bounds a requested detail count to [0, MaxDetails].
func (s *Service) clampDetails(requested *int, fallback int) int {
	n := fallback
	if requested != nil {
		n = *requested
	}
	if n < 0 {
		return 0
	}
	if s.limits.MaxDetails >= 0 && n > s.limits.MaxDetails {
		return s.limits.MaxDetails
	}
	return n
}

func (s *Service) sanitize(text string) string {
	if s.sanitizer == nil {
		return text
	}
	return s.sanitizer.SanitizePrompt(text)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, Describe(err))
	return err
}
