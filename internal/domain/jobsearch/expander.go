package jobsearch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/janhq/jobsuche-mcp/internal/domain/projection"
)

// ExpandRequest asks for one search plus the details of its leading listings.
type ExpandRequest struct {
	Filter     FilterInput
	MaxDetails *int
	Fields     *projection.FieldSpec
}

// Expand searches once and fetches details for the first MaxDetails listings
// of the returned page, in page order. Failed detail fetches are recorded in
// the report; only a failed search, invalid input or cancellation fails the call.
func (s *Service) Expand(ctx context.Context, req ExpandRequest) (*ExpandedSearchReport, error) {
	ctx, span := s.tracer.Start(ctx, "jobsearch.expand")
	defer span.End()

	if err := req.Fields.Validate(); err != nil {
		return nil, spanError(span, invalidFieldSpec(ctx, err))
	}
	filter, err := NewSearchFilter(ctx, req.Filter, s.limits)
	if err != nil {
		return nil, spanError(span, err)
	}
	maxDetails := s.clampDetails(req.MaxDetails, s.limits.DefaultMaxDetails)
	span.SetAttributes(attribute.Int("jobsearch.max_details", maxDetails))

	if _, err := s.pacer.Wait(ctx, PaceSearch); err != nil {
		return nil, spanError(span, aborted(ctx, err))
	}
	report, err := s.expand(ctx, filter, maxDetails)
	if err != nil {
		return nil, spanError(span, err)
	}
	return report, nil
}

// expand runs the search unpaced and the detail fetches paced.
func (s *Service) expand(ctx context.Context, filter SearchFilter, maxDetails int) (*ExpandedSearchReport, error) {
	outcome, err := s.search(ctx, filter)
	if err != nil {
		return nil, err
	}

	jobs := outcome.Jobs
	if len(jobs) > maxDetails {
		jobs = jobs[:maxDetails]
	}

	report := &ExpandedSearchReport{
		Search:  *outcome,
		Details: make([]DetailFetchOutcome, 0, len(jobs)),
	}

	start := time.Now()
	for _, job := range jobs {
		if _, err := s.pacer.Wait(ctx, PaceDetail); err != nil {
			return nil, aborted(ctx, err)
		}
		detail, err := s.client.GetDetails(ctx, job.ReferenceNumber)
		if err != nil {
			if ctx.Err() != nil {
				return nil, aborted(ctx, err)
			}
			log.Warn().
				Err(err).
				Str("reference_number", job.ReferenceNumber).
				Msg("job detail fetch failed")
			report.Details = append(report.Details, DetailFetchOutcome{
				ReferenceNumber: job.ReferenceNumber,
				Err:             outcomeError(err),
			})
			continue
		}
		report.Details = append(report.Details, DetailFetchOutcome{
			ReferenceNumber: job.ReferenceNumber,
			Detail:          detail,
		})
	}
	report.DetailsDuration = time.Since(start)

	log.Info().
		Int64("total_results", outcome.TotalResults).
		Int("summaries", len(outcome.Jobs)).
		Int("details_ok", report.Succeeded()).
		Int("details_failed", report.Failed()).
		Int64("search_ms", outcome.SearchDuration.Milliseconds()).
		Int64("details_ms", report.DetailsDuration.Milliseconds()).
		Msg("search expanded")

	return report, nil
}
