package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jobsuche-mcp/internal/domain/projection"
)

func parsedSearchFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("search", pflag.ContinueOnError)
	addSearchFlags(flags)
	addFieldFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestSearchArgsFromFlags(t *testing.T) {
	flags := parsedSearchFlags(t,
		"--job-title", "Koch",
		"--location", "Berlin",
		"--radius", "25",
		"--employment-type", "fulltime,parttime",
		"--page-size", "10",
		"--max-details", "2",
		"--include-fields", "title,employer",
	)

	args, err := searchArgsFromFlags(flags)
	require.NoError(t, err)

	assert.Equal(t, "Koch", args.JobTitle)
	assert.Equal(t, "Berlin", args.Location)
	require.NotNil(t, args.RadiusKM)
	assert.Equal(t, 25, *args.RadiusKM)
	assert.Equal(t, []string{"fulltime", "parttime"}, args.EmploymentType)
	require.NotNil(t, args.PageSize)
	assert.Equal(t, 10, *args.PageSize)
	require.NotNil(t, args.MaxDetails)
	assert.Equal(t, 2, *args.MaxDetails)
	assert.Equal(t, &projection.FieldSpec{Include: []string{"title", "employer"}}, args.Fields)
}

func TestSearchArgsFromFlags_UnsetNumbersStayNil(t *testing.T) {
	args, err := searchArgsFromFlags(parsedSearchFlags(t, "--job-title", "Koch"))
	require.NoError(t, err)

	assert.Nil(t, args.RadiusKM)
	assert.Nil(t, args.PublishedSinceDays)
	assert.Nil(t, args.Page)
	assert.Nil(t, args.PageSize)
	assert.Nil(t, args.MaxDetails)
	assert.Nil(t, args.Fields)
}

func TestReadBatchArgs(t *testing.T) {
	args, err := readBatchArgs(strings.NewReader(`{
		"searches": [
			{"name": "berlin", "job_title": "Koch", "location": "Berlin", "max_details": 1},
			{"name": "hamburg", "job_title": "Koch", "location": "Hamburg"}
		],
		"max_details_per_search": 2,
		"fields": {"exclude_fields": ["raw_data"]}
	}`))
	require.NoError(t, err)

	require.Len(t, args.Searches, 2)
	assert.Equal(t, "berlin", args.Searches[0].Name)
	require.NotNil(t, args.Searches[0].MaxDetails)
	assert.Equal(t, 1, *args.Searches[0].MaxDetails)
	require.NotNil(t, args.MaxDetailsPerSearch)
	assert.Equal(t, 2, *args.MaxDetailsPerSearch)
	assert.Equal(t, []string{"raw_data"}, args.Fields.Exclude)
}

func TestReadBatchArgs_RejectsUnknownKeys(t *testing.T) {
	_, err := readBatchArgs(strings.NewReader(`{"searches": [], "max_detail": 2}`))
	assert.Error(t, err)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]string{"title": "Koch & Küchenhilfe"}))
	assert.Equal(t, "{\n  \"title\": \"Koch & Küchenhilfe\"\n}\n", buf.String())
}
