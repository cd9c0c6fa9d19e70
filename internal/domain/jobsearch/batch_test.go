package jobsearch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jobsuche-mcp/internal/domain/projection"
)

func keywordPages(pages map[string]int, failing map[string]error) func(context.Context, SearchFilter) (*SearchOutcome, error) {
	return func(_ context.Context, f SearchFilter) (*SearchOutcome, error) {
		if err, ok := failing[f.Keyword]; ok {
			return nil, err
		}
		return pageOf(f, pages[f.Keyword]), nil
	}
}

func TestRunBatch_FirstFailsSecondSucceeds(t *testing.T) {
	client := &fakeClient{searchFunc: keywordPages(
		map[string]int{"python": 3},
		map[string]error{"java": fmt.Errorf("search status 502: %w", ErrUpstream)},
	)}
	pacer := &fakePacer{}
	svc := newTestService(client, pacer)

	report, err := svc.RunBatch(context.Background(), BatchRequest{
		Searches: []NamedSearchSpec{
			{Name: "java-jobs", Filter: FilterInput{Keyword: "java"}},
			{Name: "python-jobs", Filter: FilterInput{Keyword: "python"}, MaxDetails: intPtr(2)},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)

	first := report.Entries[0]
	assert.Equal(t, "java-jobs", first.Name)
	assert.Nil(t, first.Report)
	require.NotNil(t, first.Err)
	assert.Equal(t, KindUpstream, first.Err.Kind)

	second := report.Entries[1]
	assert.Equal(t, "python-jobs", second.Name)
	assert.Nil(t, second.Err)
	require.NotNil(t, second.Report)
	assert.Len(t, second.Report.Details, 2)

	assert.Equal(t, 1, report.Succeeded())
	assert.Equal(t, []PaceClass{PaceSearch, PaceSearch, PaceDetail, PaceDetail}, pacer.calls)
}

func TestRunBatch_PreservesOrderAndDuplicates(t *testing.T) {
	client := &fakeClient{searchFunc: keywordPages(map[string]int{"a": 1, "b": 1, "c": 1}, nil)}
	svc := newTestService(client, &fakePacer{})

	names := []string{"c", "a", "c", "b"}
	specs := make([]NamedSearchSpec, 0, len(names))
	for _, n := range names {
		specs = append(specs, NamedSearchSpec{Name: n, Filter: FilterInput{Keyword: n}})
	}

	report, err := svc.RunBatch(context.Background(), BatchRequest{Searches: specs})
	require.NoError(t, err)

	got := make([]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		got = append(got, e.Name)
	}
	assert.Equal(t, names, got)

	keywords := make([]string, 0, len(client.searches))
	for _, f := range client.searches {
		keywords = append(keywords, f.Keyword)
	}
	assert.Equal(t, names, keywords)
}

func TestRunBatch_PacesEverySearch(t *testing.T) {
	client := &fakeClient{searchFunc: keywordPages(map[string]int{"x": 0}, nil)}
	pacer := &fakePacer{}
	svc := newTestService(client, pacer)

	_, err := svc.RunBatch(context.Background(), BatchRequest{
		Searches: []NamedSearchSpec{
			{Name: "one", Filter: FilterInput{Keyword: "x"}},
			{Name: "two", Filter: FilterInput{Keyword: "x"}},
			{Name: "three", Filter: FilterInput{Keyword: "x"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []PaceClass{PaceSearch, PaceSearch, PaceSearch}, pacer.calls)
}

func TestRunBatch_DefaultDetailsAndPageSize(t *testing.T) {
	client := &fakeClient{searchFunc: keywordPages(map[string]int{"a": 10, "b": 10}, nil)}
	svc := newTestService(client, &fakePacer{})

	report, err := svc.RunBatch(context.Background(), BatchRequest{
		Searches: []NamedSearchSpec{
			{Name: "default", Filter: FilterInput{Keyword: "a"}},
			{Name: "explicit page", Filter: FilterInput{Keyword: "b", PageSize: intPtr(20)}},
		},
		MaxDetailsPerSearch: intPtr(4),
	})
	require.NoError(t, err)

	assert.Len(t, report.Entries[0].Report.Details, 4)
	assert.Equal(t, 4, client.searches[0].PageSize)
	assert.Equal(t, 20, client.searches[1].PageSize)

	client.searches = nil
	report, err = svc.RunBatch(context.Background(), BatchRequest{
		Searches: []NamedSearchSpec{{Name: "implicit", Filter: FilterInput{Keyword: "a"}}},
	})
	require.NoError(t, err)
	assert.Len(t, report.Entries[0].Report.Details, DefaultLimits().BatchDefaultMaxDetails)
}

func TestRunBatch_InvalidSpecIsIsolated(t *testing.T) {
	client := &fakeClient{searchFunc: keywordPages(map[string]int{"ok": 1}, nil)}
	svc := newTestService(client, &fakePacer{})

	report, err := svc.RunBatch(context.Background(), BatchRequest{
		Searches: []NamedSearchSpec{
			{Name: "bad", Filter: FilterInput{Keyword: "ok", EmploymentTypes: []string{"astronaut"}}},
			{Name: "good", Filter: FilterInput{Keyword: "ok"}},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, report.Entries[0].Err)
	assert.Equal(t, KindInvalidFilter, report.Entries[0].Err.Kind)
	assert.Contains(t, report.Entries[0].Err.Message, "astronaut")
	assert.Nil(t, report.Entries[1].Err)
	assert.Len(t, client.searches, 1)
}

func TestRunBatch_AllFailed(t *testing.T) {
	client := &fakeClient{searchFunc: func(context.Context, SearchFilter) (*SearchOutcome, error) {
		return nil, fmt.Errorf("search status 503: %w", ErrUpstream)
	}}
	svc := newTestService(client, &fakePacer{})

	report, err := svc.RunBatch(context.Background(), BatchRequest{
		Searches: []NamedSearchSpec{
			{Name: "one", Filter: FilterInput{Keyword: "a"}},
			{Name: "two", Filter: FilterInput{Keyword: "b"}},
		},
	})
	assert.Nil(t, report)
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Contains(t, err.Error(), "one:")
	assert.Contains(t, err.Error(), "two:")
}

func TestRunBatch_AllFailedTakesFirstKind(t *testing.T) {
	client := &fakeClient{searchFunc: func(context.Context, SearchFilter) (*SearchOutcome, error) {
		return nil, fmt.Errorf("search status 503: %w", ErrUpstream)
	}}
	svc := newTestService(client, &fakePacer{})

	_, err := svc.RunBatch(context.Background(), BatchRequest{
		Searches: []NamedSearchSpec{
			{Name: "upstream", Filter: FilterInput{Keyword: "a"}},
			{Name: "invalid", Filter: FilterInput{Page: intPtr(-1)}},
		},
	})
	assert.Equal(t, KindUpstream, KindOf(err))
}

func TestRunBatch_ShapeValidation(t *testing.T) {
	tests := []struct {
		name     string
		req      BatchRequest
		wantKind ErrorKind
	}{
		{
			name:     "empty batch",
			req:      BatchRequest{},
			wantKind: KindInvalidFilter,
		},
		{
			name: "too many searches",
			req: BatchRequest{Searches: []NamedSearchSpec{
				{Name: "1"}, {Name: "2"}, {Name: "3"}, {Name: "4"}, {Name: "5"}, {Name: "6"},
			}},
			wantKind: KindInvalidFilter,
		},
		{
			name: "include and exclude",
			req: BatchRequest{
				Searches: []NamedSearchSpec{{Name: "1"}},
				Fields:   &projection.FieldSpec{Include: []string{"a"}, Exclude: []string{"b"}},
			},
			wantKind: KindInvalidFieldSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			pacer := &fakePacer{}
			svc := newTestService(client, pacer)

			_, err := svc.RunBatch(context.Background(), tt.req)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Empty(t, client.searches)
			assert.Empty(t, pacer.calls)
		})
	}
}

func TestRunBatch_CancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{searchFunc: func(_ context.Context, f SearchFilter) (*SearchOutcome, error) {
		if f.Keyword == "second" {
			cancel()
			return nil, context.Canceled
		}
		return pageOf(f, 1), nil
	}}
	svc := newTestService(client, &fakePacer{})

	report, err := svc.RunBatch(ctx, BatchRequest{
		Searches: []NamedSearchSpec{
			{Name: "first", Filter: FilterInput{Keyword: "first"}},
			{Name: "second", Filter: FilterInput{Keyword: "second"}},
		},
	})
	assert.Nil(t, report)
	assert.Equal(t, KindCancelled, KindOf(err))
}
