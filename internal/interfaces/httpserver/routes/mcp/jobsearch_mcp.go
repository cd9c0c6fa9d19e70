package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
	"github.com/janhq/jobsuche-mcp/internal/domain/projection"
	"github.com/janhq/jobsuche-mcp/internal/infrastructure/metrics"
	"github.com/janhq/jobsuche-mcp/pkg/telemetry"
	"github.com/janhq/jobsuche-mcp/utils/platformerrors"
)

// Tool keys
const (
	ToolKeySearchJobs            = "search_jobs"
	ToolKeyGetJobDetails         = "get_job_details"
	ToolKeySearchJobsWithDetails = "search_jobs_with_details"
	ToolKeyBatchSearchJobs       = "batch_search_jobs"
	ToolKeyGetServerStatus       = "get_server_status"
)

// ToolKeys lists every tool this server registers, in registration order.
var ToolKeys = []string{
	ToolKeySearchJobs,
	ToolKeyGetJobDetails,
	ToolKeySearchJobsWithDetails,
	ToolKeyBatchSearchJobs,
	ToolKeyGetServerStatus,
}

var toolDescriptions = map[string]string{
	ToolKeySearchJobs: "Search the German Federal Employment Agency (Bundesagentur für Arbeit) job board. " +
		"Returns one page of listings with reference numbers; use get_job_details for the full record.",
	ToolKeyGetJobDetails: "Fetch the full record of one job listing by its reference number (refnr), " +
		"optionally restricted to selected fields.",
	ToolKeySearchJobsWithDetails: "Search once and fetch the details of the first max_details listings (default 5, max 10) " +
		"in a single call. Failed detail fetches are reported per listing and do not fail the call.",
	ToolKeyBatchSearchJobs: "Run up to 5 named searches in one call, each expanded with the details of its leading listings " +
		"(max_details_per_search, default 3). Results are returned in request order with per-search errors.",
	ToolKeyGetServerStatus: "Report server version, uptime, upstream API reachability, circuit breaker states and pacing intervals.",
}

// SearchJobsArgs defines the arguments for the search_jobs tool
type SearchJobsArgs struct {
	JobTitle           string                `json:"job_title,omitempty" jsonschema:"Job title or keywords, e.g. Softwareentwickler"`
	Location           string                `json:"location,omitempty" jsonschema:"City, postal code or region, e.g. Berlin"`
	RadiusKM           *int                  `json:"radius_km,omitempty" jsonschema:"Search radius around location in kilometers (0-200)"`
	EmploymentType     []string              `json:"employment_type,omitempty" jsonschema:"Working time models: fulltime, parttime, minijob, homeoffice, shift"`
	ContractType       []string              `json:"contract_type,omitempty" jsonschema:"Contract types: permanent, temporary"`
	PublishedSinceDays *int                  `json:"published_since_days,omitempty" jsonschema:"Only listings published within this many days (0-100)"`
	PageSize           *int                  `json:"page_size,omitempty" jsonschema:"Results per page (default 25, max 100)"`
	Page               *int                  `json:"page,omitempty" jsonschema:"Page number starting at 1"`
	Employer           string                `json:"employer,omitempty" jsonschema:"Employer name to search for"`
	Branch             string                `json:"branch,omitempty" jsonschema:"Industry or branch keywords"`
	Fields             *projection.FieldSpec `json:"fields,omitempty" jsonschema:"Restrict each listing to include_fields or drop exclude_fields"`
	// Context passthrough (ignored by handler but allowed for validation)
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

func (a SearchJobsArgs) filterInput() jobsearch.FilterInput {
	return jobsearch.FilterInput{
		Keyword:            a.JobTitle,
		Location:           a.Location,
		RadiusKM:           a.RadiusKM,
		EmploymentTypes:    a.EmploymentType,
		ContractTypes:      a.ContractType,
		PublishedSinceDays: a.PublishedSinceDays,
		Employer:           a.Employer,
		Branch:             a.Branch,
		Page:               a.Page,
		PageSize:           a.PageSize,
	}
}

// GetJobDetailsArgs defines the arguments for the get_job_details tool
type GetJobDetailsArgs struct {
	ReferenceNumber string                `json:"reference_number" jsonschema:"Reference number (refnr) of the listing, e.g. 10000-1234567890-S"`
	Fields          *projection.FieldSpec `json:"fields,omitempty" jsonschema:"Restrict the record to include_fields or drop exclude_fields"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// SearchJobsWithDetailsArgs defines the arguments for the search_jobs_with_details tool
type SearchJobsWithDetailsArgs struct {
	JobTitle           string                `json:"job_title,omitempty" jsonschema:"Job title or keywords"`
	Location           string                `json:"location,omitempty" jsonschema:"City, postal code or region"`
	RadiusKM           *int                  `json:"radius_km,omitempty" jsonschema:"Search radius around location in kilometers (0-200)"`
	EmploymentType     []string              `json:"employment_type,omitempty" jsonschema:"Working time models: fulltime, parttime, minijob, homeoffice, shift"`
	ContractType       []string              `json:"contract_type,omitempty" jsonschema:"Contract types: permanent, temporary"`
	PublishedSinceDays *int                  `json:"published_since_days,omitempty" jsonschema:"Only listings published within this many days (0-100)"`
	PageSize           *int                  `json:"page_size,omitempty" jsonschema:"Results per page (default 25, max 100)"`
	Page               *int                  `json:"page,omitempty" jsonschema:"Page number starting at 1"`
	Employer           string                `json:"employer,omitempty" jsonschema:"Employer name to search for"`
	Branch             string                `json:"branch,omitempty" jsonschema:"Industry or branch keywords"`
	MaxDetails         *int                  `json:"max_details,omitempty" jsonschema:"How many listings of the page to fetch details for (default 5, max 10)"`
	Fields             *projection.FieldSpec `json:"fields,omitempty" jsonschema:"Restrict each detail record to include_fields or drop exclude_fields"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

func (a SearchJobsWithDetailsArgs) filterInput() jobsearch.FilterInput {
	return jobsearch.FilterInput{
		Keyword:            a.JobTitle,
		Location:           a.Location,
		RadiusKM:           a.RadiusKM,
		EmploymentTypes:    a.EmploymentType,
		ContractTypes:      a.ContractType,
		PublishedSinceDays: a.PublishedSinceDays,
		Employer:           a.Employer,
		Branch:             a.Branch,
		Page:               a.Page,
		PageSize:           a.PageSize,
	}
}

// BatchSearchItemArgs is one named search of a batch_search_jobs call
type BatchSearchItemArgs struct {
	Name               string   `json:"name" jsonschema:"Label for this search, echoed in the results"`
	JobTitle           string   `json:"job_title,omitempty" jsonschema:"Job title or keywords"`
	Location           string   `json:"location,omitempty" jsonschema:"City, postal code or region"`
	RadiusKM           *int     `json:"radius_km,omitempty" jsonschema:"Search radius around location in kilometers (0-200)"`
	EmploymentType     []string `json:"employment_type,omitempty" jsonschema:"Working time models: fulltime, parttime, minijob, homeoffice, shift"`
	ContractType       []string `json:"contract_type,omitempty" jsonschema:"Contract types: permanent, temporary"`
	PublishedSinceDays *int     `json:"published_since_days,omitempty" jsonschema:"Only listings published within this many days (0-100)"`
	PageSize           *int     `json:"page_size,omitempty" jsonschema:"Results per page, defaults to the number of details fetched"`
	Page               *int     `json:"page,omitempty" jsonschema:"Page number starting at 1"`
	Employer           string   `json:"employer,omitempty" jsonschema:"Employer name to search for"`
	Branch             string   `json:"branch,omitempty" jsonschema:"Industry or branch keywords"`
	MaxDetails         *int     `json:"max_details,omitempty" jsonschema:"Overrides max_details_per_search for this search"`
}

func (a BatchSearchItemArgs) spec() jobsearch.NamedSearchSpec {
	return jobsearch.NamedSearchSpec{
		Name: a.Name,
		Filter: jobsearch.FilterInput{
			Keyword:            a.JobTitle,
			Location:           a.Location,
			RadiusKM:           a.RadiusKM,
			EmploymentTypes:    a.EmploymentType,
			ContractTypes:      a.ContractType,
			PublishedSinceDays: a.PublishedSinceDays,
			Employer:           a.Employer,
			Branch:             a.Branch,
			Page:               a.Page,
			PageSize:           a.PageSize,
		},
		MaxDetails: a.MaxDetails,
	}
}

// BatchSearchJobsArgs defines the arguments for the batch_search_jobs tool
type BatchSearchJobsArgs struct {
	Searches            []BatchSearchItemArgs `json:"searches" jsonschema:"Named searches to run in order (1-5)"`
	MaxDetailsPerSearch *int                  `json:"max_details_per_search,omitempty" jsonschema:"Details to fetch per search (default 3, max 10)"`
	Fields              *projection.FieldSpec `json:"fields,omitempty" jsonschema:"Restrict every detail record to include_fields or drop exclude_fields"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// GetServerStatusArgs defines the arguments for the get_server_status tool
type GetServerStatusArgs struct {
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// JobsearchMCP registers the job search tools and renders their payloads.
type JobsearchMCP struct {
	service   *jobsearch.Service
	sanitizer *telemetry.Sanitizer
}

// NewJobsearchMCP creates the job search MCP handler.
func NewJobsearchMCP(service *jobsearch.Service, sanitizer *telemetry.Sanitizer) *JobsearchMCP {
	return &JobsearchMCP{service: service, sanitizer: sanitizer}
}

// RegisterTools registers the job search tools with the MCP server
func (j *JobsearchMCP) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeySearchJobs,
		Description: toolDescriptions[ToolKeySearchJobs],
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchJobsArgs) (*mcp.CallToolResult, any, error) {
		return j.run(ctx, req, ToolKeySearchJobs, func(ctx context.Context) (any, error) {
			return j.SearchJobs(ctx, input)
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyGetJobDetails,
		Description: toolDescriptions[ToolKeyGetJobDetails],
	}, func(ctx context.Context, req *mcp.CallToolRequest, input GetJobDetailsArgs) (*mcp.CallToolResult, any, error) {
		return j.run(ctx, req, ToolKeyGetJobDetails, func(ctx context.Context) (any, error) {
			return j.GetJobDetails(ctx, input)
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeySearchJobsWithDetails,
		Description: toolDescriptions[ToolKeySearchJobsWithDetails],
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchJobsWithDetailsArgs) (*mcp.CallToolResult, any, error) {
		return j.run(ctx, req, ToolKeySearchJobsWithDetails, func(ctx context.Context) (any, error) {
			return j.SearchJobsWithDetails(ctx, input)
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyBatchSearchJobs,
		Description: toolDescriptions[ToolKeyBatchSearchJobs],
	}, func(ctx context.Context, req *mcp.CallToolRequest, input BatchSearchJobsArgs) (*mcp.CallToolResult, any, error) {
		return j.run(ctx, req, ToolKeyBatchSearchJobs, func(ctx context.Context) (any, error) {
			return j.BatchSearchJobs(ctx, input)
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyGetServerStatus,
		Description: toolDescriptions[ToolKeyGetServerStatus],
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ GetServerStatusArgs) (*mcp.CallToolResult, any, error) {
		return j.run(ctx, req, ToolKeyGetServerStatus, func(ctx context.Context) (any, error) {
			return j.GetServerStatus(ctx)
		})
	})
}

// run wraps a tool body with call logging, metrics and error conversion.
// Domain errors become IsError results; the protocol call itself succeeds.
func (j *JobsearchMCP) run(ctx context.Context, req *mcp.CallToolRequest, tool string, body func(context.Context) (any, error)) (*mcp.CallToolResult, any, error) {
	startTime := time.Now()
	callCtx := extractAllContext(ctx, req)

	log.Info().
		Str("tool", tool).
		Str("tool_call_id", callCtx["tool_call_id"]).
		Str("request_id", callCtx["request_id"]).
		Str("conversation_id", callCtx["conversation_id"]).
		Str("user_id", j.sanitizer.SanitizeUserID(callCtx["user_id"])).
		Msg("MCP tool call received")

	payload, err := body(ctx)
	elapsed := time.Since(startTime)
	if err != nil {
		kind := jobsearch.KindOf(err)
		platformerrors.Annotate(log.Warn(), err).
			Str("tool", tool).
			Str("kind", string(kind)).
			Dur("duration", elapsed).
			Msg("MCP tool call failed")
		metrics.RecordToolCall(tool, "error", elapsed.Seconds())

		failure := toolError{Error: jobsearch.OutcomeError{Kind: kind, Message: jobsearch.Describe(err)}}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s: %s", kind, failure.Error.Message)}},
			IsError: true,
		}, failure, nil
	}

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("tool", tool).Msg("failed to marshal tool payload")
		metrics.RecordToolCall(tool, "error", elapsed.Seconds())
		return nil, nil, err
	}

	log.Info().Str("tool", tool).Dur("duration", elapsed).Msg("MCP tool call completed")
	metrics.RecordToolCall(tool, "success", elapsed.Seconds())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}, payload, nil
}

// SearchJobs runs the search_jobs tool.
func (j *JobsearchMCP) SearchJobs(ctx context.Context, input SearchJobsArgs) (*SearchJobsPayload, error) {
	if err := jobsearch.ValidateFields(ctx, input.Fields); err != nil {
		return nil, err
	}
	outcome, err := j.service.Search(ctx, input.filterInput())
	if err != nil {
		return nil, err
	}
	return buildSearchPayload(outcome, input.Fields)
}

// GetJobDetails runs the get_job_details tool.
func (j *JobsearchMCP) GetJobDetails(ctx context.Context, input GetJobDetailsArgs) (*projection.Record, error) {
	if err := jobsearch.ValidateFields(ctx, input.Fields); err != nil {
		return nil, err
	}
	detail, err := j.service.GetDetails(ctx, input.ReferenceNumber)
	if err != nil {
		return nil, err
	}
	return projection.ProjectValue(detail, input.Fields)
}

// SearchJobsWithDetails runs the search_jobs_with_details tool.
func (j *JobsearchMCP) SearchJobsWithDetails(ctx context.Context, input SearchJobsWithDetailsArgs) (*ExpandedPayload, error) {
	report, err := j.service.Expand(ctx, jobsearch.ExpandRequest{
		Filter:     input.filterInput(),
		MaxDetails: input.MaxDetails,
		Fields:     input.Fields,
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordDetailOutcomes(ToolKeySearchJobsWithDetails, report.Succeeded(), report.Failed())
	return buildExpandedPayload(report, input.Fields)
}

// BatchSearchJobs runs the batch_search_jobs tool.
func (j *JobsearchMCP) BatchSearchJobs(ctx context.Context, input BatchSearchJobsArgs) (*BatchPayload, error) {
	specs := make([]jobsearch.NamedSearchSpec, 0, len(input.Searches))
	for _, item := range input.Searches {
		specs = append(specs, item.spec())
	}

	report, err := j.service.RunBatch(ctx, jobsearch.BatchRequest{
		Searches:            specs,
		MaxDetailsPerSearch: input.MaxDetailsPerSearch,
		Fields:              input.Fields,
	})
	if err != nil {
		return nil, err
	}
	for _, entry := range report.Entries {
		if entry.Report != nil {
			metrics.RecordDetailOutcomes(ToolKeyBatchSearchJobs, entry.Report.Succeeded(), entry.Report.Failed())
		}
	}
	return buildBatchPayload(report, input.Fields)
}

// GetServerStatus runs the get_server_status tool.
func (j *JobsearchMCP) GetServerStatus(ctx context.Context) (*StatusPayload, error) {
	report, err := j.service.Status(ctx)
	if err != nil {
		return nil, err
	}
	return buildStatusPayload(report), nil
}
