package jobsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/janhq/jobsuche-mcp/internal/domain/projection"
	"github.com/janhq/jobsuche-mcp/utils/platformerrors"
)

// BatchRequest asks for several named searches, each expanded with details.
type BatchRequest struct {
	Searches            []NamedSearchSpec
	MaxDetailsPerSearch *int
	Fields              *projection.FieldSpec
}

// RunBatch expands each named search strictly in request order, spacing the
// searches through the pacer. A failing search is recorded under its name and
// the batch moves on. The call fails only when every search failed, on invalid
// batch shape, or on cancellation.
func (s *Service) RunBatch(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	ctx, span := s.tracer.Start(ctx, "jobsearch.batch")
	defer span.End()

	if err := req.Fields.Validate(); err != nil {
		return nil, spanError(span, invalidFieldSpec(ctx, err))
	}
	if len(req.Searches) == 0 {
		return nil, spanError(span, invalidFilterf(ctx, "at least one search is required"))
	}
	if s.limits.MaxBatchSearches > 0 && len(req.Searches) > s.limits.MaxBatchSearches {
		return nil, spanError(span, invalidFilterf(ctx, "at most %d searches are allowed per batch, got %d", s.limits.MaxBatchSearches, len(req.Searches)))
	}

	defaultDetails := s.clampDetails(req.MaxDetailsPerSearch, s.limits.BatchDefaultMaxDetails)
	span.SetAttributes(
		attribute.Int("jobsearch.batch_size", len(req.Searches)),
		attribute.Int("jobsearch.max_details_per_search", defaultDetails),
	)

	start := time.Now()
	report := &BatchReport{Entries: make([]BatchEntry, 0, len(req.Searches))}
	failures := make([]error, 0)
	var firstFailure error

	for _, spec := range req.Searches {
		// The first search waits too: other callers share the search class.
		if _, err := s.pacer.Wait(ctx, PaceSearch); err != nil {
			return nil, spanError(span, aborted(ctx, err))
		}

		expanded, err := s.runSpec(ctx, spec, defaultDetails)
		if err != nil {
			if ctx.Err() != nil {
				return nil, spanError(span, aborted(ctx, err))
			}
			log.Warn().Err(err).Str("search_name", spec.Name).Msg("batch search failed")
			if firstFailure == nil {
				firstFailure = err
			}
			failures = append(failures, fmt.Errorf("%s: %w", spec.Name, err))
			report.Entries = append(report.Entries, BatchEntry{Name: spec.Name, Err: outcomeError(err)})
			continue
		}
		report.Entries = append(report.Entries, BatchEntry{Name: spec.Name, Report: expanded})
	}
	report.TotalDuration = time.Since(start)

	if len(failures) == len(req.Searches) {
		kind := KindOf(firstFailure)
		err := platformerrors.NewError(ctx, platformerrors.LayerDomain, kind.ErrorType(),
			fmt.Sprintf("all %d searches in the batch failed", len(failures)), errors.Join(failures...),
			"0f6b9d2e-41c7-4e8a-a3b5-7c2d8e1f6a94")
		return nil, spanError(span, err)
	}

	log.Info().
		Int("searches", len(report.Entries)).
		Int("succeeded", report.Succeeded()).
		Int64("total_ms", report.TotalDuration.Milliseconds()).
		Msg("batch completed")

	return report, nil
}

func (s *Service) runSpec(ctx context.Context, spec NamedSearchSpec, defaultDetails int) (*ExpandedSearchReport, error) {
	maxDetails := defaultDetails
	if spec.MaxDetails != nil {
		maxDetails = s.clampDetails(spec.MaxDetails, defaultDetails)
	}

	input := spec.Filter
	if input.PageSize == nil {
		pageSize := max(maxDetails, 1)
		input.PageSize = &pageSize
	}

	filter, err := NewSearchFilter(ctx, input, s.limits)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, filter, maxDetails)
}
