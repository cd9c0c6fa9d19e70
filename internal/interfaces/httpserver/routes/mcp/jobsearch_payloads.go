package mcp

import (
	"time"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
	"github.com/janhq/jobsuche-mcp/internal/domain/projection"
)

type toolError struct {
	Error jobsearch.OutcomeError `json:"error"`
}

// SearchJobsPayload is the search_jobs result.
type SearchJobsPayload struct {
	TotalResults     int64                `json:"total_results"`
	CurrentPage      int                  `json:"current_page"`
	PageSize         int                  `json:"page_size"`
	JobsCount        int                  `json:"jobs_count"`
	Jobs             []*projection.Record `json:"jobs"`
	SearchDurationMS int64                `json:"search_duration_ms"`
}

// DetailOutcomePayload is one detail fetch inside an expansion.
type DetailOutcomePayload struct {
	ReferenceNumber string                  `json:"reference_number"`
	Status          string                  `json:"status"`
	Job             *projection.Record      `json:"job,omitempty"`
	Error           *jobsearch.OutcomeError `json:"error,omitempty"`
}

// ExpandedPayload is the search_jobs_with_details result and the body of a
// successful batch entry.
type ExpandedPayload struct {
	TotalResults      int64                  `json:"total_results"`
	CurrentPage       int                    `json:"current_page"`
	PageSize          int                    `json:"page_size"`
	JobsCount         int                    `json:"jobs_count"`
	DetailsSucceeded  int                    `json:"details_succeeded"`
	DetailsFailed     int                    `json:"details_failed"`
	Jobs              []DetailOutcomePayload `json:"jobs"`
	SearchDurationMS  int64                  `json:"search_duration_ms"`
	DetailsDurationMS int64                  `json:"details_duration_ms"`
}

// BatchEntryPayload is one named search of a batch.
type BatchEntryPayload struct {
	SearchName string                  `json:"search_name"`
	Status     string                  `json:"status"`
	Error      *jobsearch.OutcomeError `json:"error,omitempty"`
	*ExpandedPayload
}

// BatchPayload is the batch_search_jobs result.
type BatchPayload struct {
	SearchesCount     int                 `json:"searches_count"`
	SearchesSucceeded int                 `json:"searches_succeeded"`
	SearchesFailed    int                 `json:"searches_failed"`
	Results           []BatchEntryPayload `json:"results"`
	TotalDurationMS   int64               `json:"total_duration_ms"`
}

// StatusPayload is the get_server_status result.
type StatusPayload struct {
	ServerName          string            `json:"server_name"`
	Version             string            `json:"version"`
	UptimeSeconds       int64             `json:"uptime_seconds"`
	APIURL              string            `json:"api_url"`
	APIConnectionStatus string            `json:"api_connection_status"`
	Connected           bool              `json:"connected"`
	ProbeDurationMS     int64             `json:"probe_duration_ms"`
	ToolsCount          int               `json:"tools_count"`
	Tools               []string          `json:"tools"`
	CircuitBreakers     map[string]string `json:"circuit_breakers,omitempty"`
	PaceIntervalsMS     map[string]int64  `json:"pace_intervals_ms,omitempty"`
}

func buildSearchPayload(outcome *jobsearch.SearchOutcome, fields *projection.FieldSpec) (*SearchJobsPayload, error) {
	jobs, err := projection.ProjectAll(outcome.Jobs, fields)
	if err != nil {
		return nil, err
	}
	return &SearchJobsPayload{
		TotalResults:     outcome.TotalResults,
		CurrentPage:      outcome.Page,
		PageSize:         outcome.PageSize,
		JobsCount:        len(jobs),
		Jobs:             jobs,
		SearchDurationMS: millis(outcome.SearchDuration),
	}, nil
}

func buildExpandedPayload(report *jobsearch.ExpandedSearchReport, fields *projection.FieldSpec) (*ExpandedPayload, error) {
	jobs := make([]DetailOutcomePayload, 0, len(report.Details))
	for _, outcome := range report.Details {
		entry := DetailOutcomePayload{
			ReferenceNumber: outcome.ReferenceNumber,
			Status:          describeStatus(outcome.OK()),
			Error:           outcome.Err,
		}
		if outcome.Detail != nil {
			rec, err := projection.ProjectValue(outcome.Detail, fields)
			if err != nil {
				return nil, err
			}
			entry.Job = rec
		}
		jobs = append(jobs, entry)
	}

	return &ExpandedPayload{
		TotalResults:      report.Search.TotalResults,
		CurrentPage:       report.Search.Page,
		PageSize:          report.Search.PageSize,
		JobsCount:         len(report.Search.Jobs),
		DetailsSucceeded:  report.Succeeded(),
		DetailsFailed:     report.Failed(),
		Jobs:              jobs,
		SearchDurationMS:  millis(report.Search.SearchDuration),
		DetailsDurationMS: millis(report.DetailsDuration),
	}, nil
}

func buildBatchPayload(report *jobsearch.BatchReport, fields *projection.FieldSpec) (*BatchPayload, error) {
	results := make([]BatchEntryPayload, 0, len(report.Entries))
	for _, entry := range report.Entries {
		item := BatchEntryPayload{
			SearchName: entry.Name,
			Status:     describeStatus(entry.Err == nil),
			Error:      entry.Err,
		}
		if entry.Report != nil {
			expanded, err := buildExpandedPayload(entry.Report, fields)
			if err != nil {
				return nil, err
			}
			item.ExpandedPayload = expanded
		}
		results = append(results, item)
	}

	succeeded := report.Succeeded()
	return &BatchPayload{
		SearchesCount:     len(results),
		SearchesSucceeded: succeeded,
		SearchesFailed:    len(results) - succeeded,
		Results:           results,
		TotalDurationMS:   millis(report.TotalDuration),
	}, nil
}

func buildStatusPayload(report *jobsearch.StatusReport) *StatusPayload {
	payload := &StatusPayload{
		ServerName:          report.Name,
		Version:             report.Version,
		UptimeSeconds:       int64(report.Uptime / time.Second),
		APIURL:              report.APIURL,
		APIConnectionStatus: "Connected",
		Connected:           report.Connected,
		ProbeDurationMS:     millis(report.ProbeDuration),
		ToolsCount:          len(ToolKeys),
		Tools:               ToolKeys,
		CircuitBreakers:     report.CircuitBreakers,
	}
	if report.ProbeError != nil {
		payload.APIConnectionStatus = "Connection Error: " + report.ProbeError.Message
	}
	if len(report.PaceIntervals) > 0 {
		payload.PaceIntervalsMS = make(map[string]int64, len(report.PaceIntervals))
		for class, interval := range report.PaceIntervals {
			payload.PaceIntervalsMS[string(class)] = millis(interval)
		}
	}
	return payload
}

func describeStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}
