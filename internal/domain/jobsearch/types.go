package jobsearch

import (
	"encoding/json"
	"time"
)

// EmploymentType is a working-time model accepted by the upstream arbeitszeit filter.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "fulltime"
	EmploymentPartTime   EmploymentType = "parttime"
	EmploymentMiniJob    EmploymentType = "minijob"
	EmploymentHomeOffice EmploymentType = "homeoffice"
	EmploymentShift      EmploymentType = "shift"
)

// Code returns the upstream arbeitszeit code.
func (e EmploymentType) Code() string {
	switch e {
	case EmploymentFullTime:
		return "vz"
	case EmploymentPartTime:
		return "tz"
	case EmploymentMiniJob:
		return "mj"
	case EmploymentHomeOffice:
		return "ho"
	case EmploymentShift:
		return "snw"
	}
	return ""
}

// ContractType is the fixed-term status accepted by the upstream befristung filter.
type ContractType string

const (
	ContractTemporary ContractType = "temporary"
	ContractPermanent ContractType = "permanent"
)

// Code returns the upstream befristung code.
func (c ContractType) Code() string {
	switch c {
	case ContractTemporary:
		return "1"
	case ContractPermanent:
		return "2"
	}
	return ""
}

// FilterInput is the raw, caller-supplied set of search criteria. It becomes a
// SearchFilter only through NewSearchFilter.
type FilterInput struct {
	Keyword            string
	Location           string
	RadiusKM           *int
	EmploymentTypes    []string
	ContractTypes      []string
	PublishedSinceDays *int
	Employer           string
	Branch             string
	Page               *int
	PageSize           *int
}

// SearchFilter is a validated, immutable set of search criteria.
type SearchFilter struct {
	Keyword            string           `json:"keyword,omitempty"`
	Location           string           `json:"location,omitempty"`
	RadiusKM           *int             `json:"radius_km,omitempty"`
	EmploymentTypes    []EmploymentType `json:"employment_types,omitempty"`
	ContractTypes      []ContractType   `json:"contract_types,omitempty"`
	PublishedSinceDays *int             `json:"published_since_days,omitempty"`
	Employer           string           `json:"employer,omitempty"`
	Branch             string           `json:"branch,omitempty"`
	Page               int              `json:"page"`
	PageSize           int              `json:"page_size"`
}

// JobSummary is the lightweight listing returned by a search page.
type JobSummary struct {
	ReferenceNumber string  `json:"reference_number"`
	Title           string  `json:"title"`
	Employer        string  `json:"employer"`
	Location        string  `json:"location"`
	PublishedDate   *string `json:"published_date"`
	ExternalURL     *string `json:"external_url"`
}

// JobDetail is the full record of one listing. Fields the upstream does not
// deliver stay nil and are rendered as null.
type JobDetail struct {
	ReferenceNumber       string          `json:"reference_number"`
	Title                 *string         `json:"title"`
	Description           *string         `json:"description"`
	Employer              *string         `json:"employer"`
	Location              *string         `json:"location"`
	EmploymentType        *string         `json:"employment_type"`
	ContractType          *string         `json:"contract_type"`
	StartDate             *string         `json:"start_date"`
	ApplicationDeadline   *string         `json:"application_deadline"`
	ContactInfo           *string         `json:"contact_info"`
	ExternalURL           *string         `json:"external_url"`
	EmployerProfileURL    *string         `json:"employer_profile_url"`
	PartnerURL            *string         `json:"partner_url"`
	Salary                *string         `json:"salary"`
	ContractDuration      *string         `json:"contract_duration"`
	TakeoverOpportunity   *bool           `json:"takeover_opportunity"`
	JobType               *string         `json:"job_type"`
	OpenPositions         *int            `json:"open_positions"`
	CompanySize           *string         `json:"company_size"`
	EmployerDescription   *string         `json:"employer_description"`
	Branch                *string         `json:"branch"`
	PublishedDate         *string         `json:"published_date"`
	FirstPublished        *string         `json:"first_published"`
	OnlyForDisabled       *bool           `json:"only_for_disabled"`
	Fulltime              *bool           `json:"fulltime"`
	EntryPeriod           *string         `json:"entry_period"`
	PublicationPeriod     *string         `json:"publication_period"`
	IsMinorEmployment     *bool           `json:"is_minor_employment"`
	IsTempAgency          *bool           `json:"is_temp_agency"`
	IsPrivateAgency       *bool           `json:"is_private_agency"`
	CareerChangerSuitable *bool           `json:"career_changer_suitable"`
	CipherNumber          *string         `json:"cipher_number"`
	RawData               json.RawMessage `json:"raw_data"`
}

// SearchOutcome is one page of search results.
type SearchOutcome struct {
	TotalResults   int64
	Page           int
	PageSize       int
	Jobs           []JobSummary
	SearchDuration time.Duration
	Filter         SearchFilter
}

// OutcomeError is a failure captured as data inside a report.
type OutcomeError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// DetailFetchOutcome is the result of fetching one listing's details. Exactly
// one of Detail and Err is set.
type DetailFetchOutcome struct {
	ReferenceNumber string
	Detail          *JobDetail
	Err             *OutcomeError
}

// OK reports whether the fetch succeeded.
func (o DetailFetchOutcome) OK() bool {
	return o.Err == nil
}

// ExpandedSearchReport is a search page plus the details of its leading listings.
type ExpandedSearchReport struct {
	Search          SearchOutcome
	Details         []DetailFetchOutcome
	DetailsDuration time.Duration
}

// Succeeded returns the number of detail fetches that succeeded.
func (r *ExpandedSearchReport) Succeeded() int {
	n := 0
	for _, d := range r.Details {
		if d.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of detail fetches that failed.
func (r *ExpandedSearchReport) Failed() int {
	return len(r.Details) - r.Succeeded()
}

// NamedSearchSpec is one entry of a batch request.
type NamedSearchSpec struct {
	Name       string
	Filter     FilterInput
	MaxDetails *int
}

// BatchEntry is either an expanded report or a failure for one named search.
type BatchEntry struct {
	Name   string
	Report *ExpandedSearchReport
	Err    *OutcomeError
}

// BatchReport holds one entry per requested search, in request order.
type BatchReport struct {
	Entries       []BatchEntry
	TotalDuration time.Duration
}

// Succeeded returns the number of named searches that produced a report.
func (r *BatchReport) Succeeded() int {
	n := 0
	for _, e := range r.Entries {
		if e.Err == nil {
			n++
		}
	}
	return n
}

// StatusReport describes the service and the reachability of the upstream API.
type StatusReport struct {
	Name            string
	Version         string
	APIURL          string
	Uptime          time.Duration
	Connected       bool
	ProbeDuration   time.Duration
	ProbeError      *OutcomeError
	CircuitBreakers map[string]string
	PaceIntervals   map[PaceClass]time.Duration
}
