package jobsearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchFilter_Defaults(t *testing.T) {
	filter, err := NewSearchFilter(context.Background(), FilterInput{}, DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 25, filter.PageSize)
	assert.Nil(t, filter.RadiusKM)
	assert.Nil(t, filter.PublishedSinceDays)
	assert.Empty(t, filter.EmploymentTypes)
}

func TestNewSearchFilter_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		input   FilterInput
		wantErr bool
		check   func(t *testing.T, f SearchFilter)
	}{
		{name: "page zero", input: FilterInput{Page: intPtr(0)}, wantErr: true},
		{name: "page size zero", input: FilterInput{PageSize: intPtr(0)}, wantErr: true},
		{
			name:  "page size clamped",
			input: FilterInput{PageSize: intPtr(1000)},
			check: func(t *testing.T, f SearchFilter) { assert.Equal(t, 100, f.PageSize) },
		},
		{name: "negative radius", input: FilterInput{Location: "Berlin", RadiusKM: intPtr(-5)}, wantErr: true},
		{name: "radius too large", input: FilterInput{Location: "Berlin", RadiusKM: intPtr(201)}, wantErr: true},
		{
			name:  "radius kept",
			input: FilterInput{Location: "Berlin", RadiusKM: intPtr(25)},
			check: func(t *testing.T, f SearchFilter) { assert.Equal(t, 25, *f.RadiusKM) },
		},
		{name: "recency too large", input: FilterInput{PublishedSinceDays: intPtr(101)}, wantErr: true},
		{
			name:  "recency kept",
			input: FilterInput{PublishedSinceDays: intPtr(7)},
			check: func(t *testing.T, f SearchFilter) { assert.Equal(t, 7, *f.PublishedSinceDays) },
		},
		{name: "unknown employment type", input: FilterInput{EmploymentTypes: []string{"freelance"}}, wantErr: true},
		{name: "unknown contract type", input: FilterInput{ContractTypes: []string{"forever"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := NewSearchFilter(context.Background(), tt.input, DefaultLimits())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				assert.Equal(t, KindInvalidFilter, KindOf(err))
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, filter)
			}
		})
	}
}

func TestNewSearchFilter_TypeAliases(t *testing.T) {
	filter, err := NewSearchFilter(context.Background(), FilterInput{
		EmploymentTypes: []string{"Vollzeit", "tz", "home-office", "fulltime", "schicht", "mini_job"},
		ContractTypes:   []string{"unbefristet", "temporary"},
	}, DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, []EmploymentType{EmploymentFullTime, EmploymentPartTime, EmploymentHomeOffice, EmploymentShift, EmploymentMiniJob}, filter.EmploymentTypes)
	assert.Equal(t, []string{"vz", "tz", "ho", "snw", "mj"}, filter.EmploymentCodes())
	assert.Equal(t, []string{"2", "1"}, filter.ContractCodes())
}

func TestNewSearchFilter_DoesNotAliasInput(t *testing.T) {
	page := 3
	input := FilterInput{Page: &page, RadiusKM: intPtr(10), Location: "Hamburg"}

	filter, err := NewSearchFilter(context.Background(), input, DefaultLimits())
	require.NoError(t, err)

	page = 9
	*input.RadiusKM = 50
	assert.Equal(t, 3, filter.Page)
	assert.Equal(t, 10, *filter.RadiusKM)
}

func TestSearchFilter_Query(t *testing.T) {
	filter := SearchFilter{Keyword: "Entwickler", Employer: "Deutsche Bahn", Branch: "IT"}
	assert.Equal(t, "Entwickler Deutsche Bahn IT", filter.Query())
	assert.Equal(t, "", SearchFilter{}.Query())
	assert.Equal(t, "Siemens", SearchFilter{Employer: "Siemens"}.Query())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindCancelled, KindOf(context.Canceled))
	assert.Equal(t, KindNotFound, KindOf(ErrNotFound))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
}
