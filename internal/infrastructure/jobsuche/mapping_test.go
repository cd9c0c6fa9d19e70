package jobsuche

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jobsuche-mcp/internal/domain/jobsearch"
)

func TestFlexInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{`42`, 42},
		{`"1234"`, 1234},
		{`" 7 "`, 7},
		{`""`, 0},
		{`null`, 0},
		{`12.0`, 12},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var v flexInt
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &v))
			assert.Equal(t, flexInt(tt.want), v)
		})
	}

	var v flexInt
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &v))
}

func TestPeriodString(t *testing.T) {
	assert.Equal(t, "", (*period)(nil).String())
	assert.Equal(t, "", (&period{}).String())
	assert.Equal(t, "2025-01-01 - 2025-06-30", (&period{Von: "2025-01-01", Bis: "2025-06-30"}).String())
	assert.Equal(t, "ab 2025-01-01", (&period{Von: "2025-01-01"}).String())
	assert.Equal(t, "bis 2025-06-30", (&period{Bis: "2025-06-30"}).String())
}

func TestListingSummary_TitleFallback(t *testing.T) {
	summary := listing{Beruf: "Koch/Köchin", Refnr: "r1"}.toSummary()
	assert.Equal(t, "Koch/Köchin", summary.Title)
	assert.Equal(t, "", summary.Location)
	assert.Nil(t, summary.PublishedDate)
}

func TestSearchResponse_SkipsListingsWithoutReference(t *testing.T) {
	var res searchResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"stellenangebote": [{"titel": "A", "refnr": "r1"}, {"titel": "B"}],
		"maxErgebnisse": "2"
	}`), &res))

	outcome := res.toOutcome(jobsearch.SearchFilter{Page: 1, PageSize: 25})
	assert.Equal(t, int64(2), outcome.TotalResults)
	require.Len(t, outcome.Jobs, 1)
	assert.Equal(t, "r1", outcome.Jobs[0].ReferenceNumber)
}

func TestPlace(t *testing.T) {
	assert.Equal(t, "Berlin (10115)", place("Berlin", "10115"))
	assert.Equal(t, "Berlin", place("Berlin", " "))
	assert.Equal(t, "10115", place("", "10115"))
	assert.Equal(t, "", place("", ""))
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "Zeile 1\nZeile 2 & mehr", htmlToText("Zeile 1\nZeile 2 &amp; mehr"))
	assert.Equal(t, "Aufgaben\nPlanen\nBauen", htmlToText("<h2>Aufgaben</h2><ul><li>Planen</li><li>Bauen</li></ul>"))
	assert.Equal(t, "Eins\nZwei", htmlToText("Eins<br>Zwei<script>alert(1)</script>"))
}
