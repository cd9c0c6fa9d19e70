package jobsearch

import (
	"context"
	"strings"
)

// Limits bounds caller input. They are read once from configuration.
type Limits struct {
	DefaultPageSize        int
	MaxPageSize            int
	MaxRadiusKM            int
	MaxPublishedSinceDays  int
	DefaultMaxDetails      int
	MaxDetails             int
	BatchDefaultMaxDetails int
	MaxBatchSearches       int
}

// DefaultLimits returns the limits used when configuration sets none.
func DefaultLimits() Limits {
	return Limits{
		DefaultPageSize:        25,
		MaxPageSize:            100,
		MaxRadiusKM:            200,
		MaxPublishedSinceDays:  100,
		DefaultMaxDetails:      5,
		MaxDetails:             10,
		BatchDefaultMaxDetails: 3,
		MaxBatchSearches:       5,
	}
}

var employmentAliases = map[string]EmploymentType{
	"fulltime":    EmploymentFullTime,
	"full":        EmploymentFullTime,
	"full_time":   EmploymentFullTime,
	"vollzeit":    EmploymentFullTime,
	"vz":          EmploymentFullTime,
	"parttime":    EmploymentPartTime,
	"part":        EmploymentPartTime,
	"part_time":   EmploymentPartTime,
	"teilzeit":    EmploymentPartTime,
	"tz":          EmploymentPartTime,
	"mini":        EmploymentMiniJob,
	"minijob":     EmploymentMiniJob,
	"mini_job":    EmploymentMiniJob,
	"mj":          EmploymentMiniJob,
	"home":        EmploymentHomeOffice,
	"homeoffice":  EmploymentHomeOffice,
	"home_office": EmploymentHomeOffice,
	"ho":          EmploymentHomeOffice,
	"shift":       EmploymentShift,
	"schicht":     EmploymentShift,
	"snw":         EmploymentShift,
}

var contractAliases = map[string]ContractType{
	"permanent":   ContractPermanent,
	"unbefristet": ContractPermanent,
	"unlimited":   ContractPermanent,
	"temporary":   ContractTemporary,
	"befristet":   ContractTemporary,
	"fixed_term":  ContractTemporary,
	"limited":     ContractTemporary,
}

// ParseEmploymentType resolves a caller-supplied employment type name.
func ParseEmploymentType(raw string) (EmploymentType, bool) {
	t, ok := employmentAliases[normalizeName(raw)]
	return t, ok
}

// ParseContractType resolves a caller-supplied contract type name.
func ParseContractType(raw string) (ContractType, bool) {
	t, ok := contractAliases[normalizeName(raw)]
	return t, ok
}

func normalizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(name, "-", "_")
}

// NewSearchFilter validates in against limits and builds an immutable filter.
// Page size above the maximum is clamped; every other out-of-range value is
// rejected with ErrInvalidFilter.
func NewSearchFilter(ctx context.Context, in FilterInput, limits Limits) (SearchFilter, error) {
	filter := SearchFilter{
		Keyword:  strings.TrimSpace(in.Keyword),
		Location: strings.TrimSpace(in.Location),
		Employer: strings.TrimSpace(in.Employer),
		Branch:   strings.TrimSpace(in.Branch),
		Page:     1,
		PageSize: limits.DefaultPageSize,
	}

	if in.Page != nil {
		if *in.Page < 1 {
			return SearchFilter{}, invalidFilterf(ctx, "page must be at least 1, got %d", *in.Page)
		}
		filter.Page = *in.Page
	}

	if in.PageSize != nil {
		if *in.PageSize < 1 {
			return SearchFilter{}, invalidFilterf(ctx, "page_size must be at least 1, got %d", *in.PageSize)
		}
		filter.PageSize = *in.PageSize
	}
	if limits.MaxPageSize > 0 && filter.PageSize > limits.MaxPageSize {
		filter.PageSize = limits.MaxPageSize
	}

	if in.RadiusKM != nil {
		radius := *in.RadiusKM
		if radius < 0 || (limits.MaxRadiusKM > 0 && radius > limits.MaxRadiusKM) {
			return SearchFilter{}, invalidFilterf(ctx, "radius_km must be between 0 and %d, got %d", limits.MaxRadiusKM, radius)
		}
		filter.RadiusKM = &radius
	}

	if in.PublishedSinceDays != nil {
		days := *in.PublishedSinceDays
		if days < 0 || (limits.MaxPublishedSinceDays > 0 && days > limits.MaxPublishedSinceDays) {
			return SearchFilter{}, invalidFilterf(ctx, "published_since_days must be between 0 and %d, got %d", limits.MaxPublishedSinceDays, days)
		}
		filter.PublishedSinceDays = &days
	}

	seenEmployment := make(map[EmploymentType]bool)
	for _, raw := range in.EmploymentTypes {
		t, ok := ParseEmploymentType(raw)
		if !ok {
			return SearchFilter{}, invalidFilterf(ctx, "unknown employment type %q", raw)
		}
		if !seenEmployment[t] {
			seenEmployment[t] = true
			filter.EmploymentTypes = append(filter.EmploymentTypes, t)
		}
	}

	seenContract := make(map[ContractType]bool)
	for _, raw := range in.ContractTypes {
		t, ok := ParseContractType(raw)
		if !ok {
			return SearchFilter{}, invalidFilterf(ctx, "unknown contract type %q", raw)
		}
		if !seenContract[t] {
			seenContract[t] = true
			filter.ContractTypes = append(filter.ContractTypes, t)
		}
	}

	return filter, nil
}

// Query joins the free-text criteria into the single upstream search term.
func (f SearchFilter) Query() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{f.Keyword, f.Employer, f.Branch} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// EmploymentCodes returns the upstream arbeitszeit codes of the filter.
func (f SearchFilter) EmploymentCodes() []string {
	codes := make([]string, 0, len(f.EmploymentTypes))
	for _, t := range f.EmploymentTypes {
		codes = append(codes, t.Code())
	}
	return codes
}

// ContractCodes returns the upstream befristung codes of the filter.
func (f SearchFilter) ContractCodes() []string {
	codes := make([]string, 0, len(f.ContractTypes))
	for _, t := range f.ContractTypes {
		codes = append(codes, t.Code())
	}
	return codes
}
