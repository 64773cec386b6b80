package report_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/audit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/report"
)

func fixture() (*domain.AuditRun, *audit.Results) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	score := 87.5
	run := &domain.AuditRun{
		ID:            "run-1",
		Name:          "Example audit",
		Config:        domain.AuditConfig{SeedURLs: []string{"https://example.com/"}},
		State:         domain.RunCompleted,
		CreatedAt:     started.Add(-time.Minute),
		StartedAt:     &started,
		FinishedAt:    &finished,
		PagesCrawled:  2,
		PagesAnalyzed: 2,
		OverallScore:  &score,
	}
	element := "title"
	results := &audit.Results{
		Pages: []*domain.PageSnapshot{
			{URL: "https://example.com/", FinalURL: "https://example.com/", StatusCode: 200, Title: "Home", WordCount: 400, ResponseTime: 250 * time.Millisecond},
			{URL: "https://example.com/about", FinalURL: "https://example.com/about", StatusCode: 200, WordCount: 50},
		},
		Findings: []domain.Finding{
			{
				ID: "f-low", PageURL: "https://example.com/", CheckCode: "PERF_CONTENT_LENGTH",
				Category: domain.CategoryContent, Severity: domain.SeverityLow, Status: domain.FindingOpen,
				ScoreImpact: -3, PriorityScore: 23, Title: "Thin content",
			},
			{
				ID: "f-high", PageURL: "https://example.com/about", CheckCode: "TECH_TITLE_TAG",
				Category: domain.CategoryTechnical, Severity: domain.SeverityHigh, Status: domain.FindingOpen,
				ScoreImpact: -10, PriorityScore: 80, Title: "Missing title tag", Element: &element,
			},
			{
				ID: "f-medium", PageURL: "https://example.com/about", CheckCode: "TECH_META_DESCRIPTION",
				Category: domain.CategoryTechnical, Severity: domain.SeverityMedium, Status: domain.FindingOpen,
				ScoreImpact: -5, PriorityScore: 45, Title: "Missing meta description, \"quoted\"",
			},
		},
		Failures: []domain.FetchFailure{{URL: "https://example.com/gone", Reason: domain.FailureHTTPStatus, StatusCode: 404}},
	}
	return run, results
}

func TestBuild(t *testing.T) {
	t.Parallel()

	run, results := fixture()
	r := report.Build(run, results)

	assert.Equal(t, "run-1", r.AuditInfo.ID)
	assert.Equal(t, domain.RunCompleted, r.AuditInfo.State)
	assert.False(t, r.GeneratedAt.IsZero())

	ids := []string{r.Findings[0].ID, r.Findings[1].ID, r.Findings[2].ID}
	assert.Equal(t, []string{"f-high", "f-medium", "f-low"}, ids)

	assert.Equal(t, 3, r.Summary.TotalFindings)
	assert.Equal(t, 1, r.Summary.HighFindings)
	assert.Equal(t, 1, r.Summary.MediumFindings)
	assert.Equal(t, 1, r.Summary.LowFindings)
	assert.Equal(t, 2, r.Summary.TotalPages)
	assert.Equal(t, 1, r.Summary.FailedPages)
	assert.InDelta(t, 87.5, r.Summary.OverallScore, 0.001)

	tech := r.Summary.CategoryBreakdown[domain.CategoryTechnical]
	assert.Equal(t, 2, tech.Total)
	assert.InDelta(t, 83.0, tech.Score, 0.001)
	assert.NotContains(t, r.Summary.CategoryBreakdown, domain.CategoryMobile)

	require.Len(t, r.Pages, 2)
	assert.InDelta(t, 250.0, r.Pages[0].ResponseTimeMS, 0.001)
	assert.Equal(t, 1, r.Pages[0].Findings.Total)
	assert.InDelta(t, 97.0, r.Pages[0].Score, 0.001)
	assert.Equal(t, 2, r.Pages[1].Findings.Total)
	assert.InDelta(t, 83.0, r.Pages[1].Score, 0.001)

	// The input slice keeps its order.
	assert.Equal(t, "f-low", results.Findings[0].ID)
}

func TestBuild_ScoreFallbacks(t *testing.T) {
	t.Parallel()

	run, results := fixture()
	run.OverallScore = nil
	r := report.Build(run, results)
	assert.InDelta(t, 90.0, r.Summary.OverallScore, 0.001)

	empty := report.Build(run, nil)
	assert.InDelta(t, 100.0, empty.Summary.OverallScore, 0.001)
	assert.NotNil(t, empty.Findings)
	assert.NotNil(t, empty.Failures)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	run, results := fixture()
	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, report.Build(run, results)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"audit_info", "summary", "findings", "pages", "failures", "generated_at"} {
		assert.Contains(t, decoded, key)
	}

	summary, ok := decoded["summary"].(map[string]any)
	require.True(t, ok)
	breakdown, ok := summary["category_breakdown"].(map[string]any)
	require.True(t, ok)
	tech, ok := breakdown["technical_seo"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2.0, tech["total"], 0.001)
	assert.Contains(t, tech, "score")
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	run, results := fixture()
	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, report.Build(run, results)))

	reader := csv.NewReader(strings.NewReader(buf.String()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	// summary header + row, findings header + 3, pages header + 2. Blank lines are skipped.
	require.Len(t, records, 9)
	assert.Equal(t, "Audit Name", records[0][0])
	assert.Equal(t, "Example audit", records[1][0])
	assert.Equal(t, "3", records[1][6])
	assert.Equal(t, "Finding ID", records[2][0])
	assert.Equal(t, "f-high", records[3][0])
	assert.Equal(t, "title", records[3][8])
	assert.Equal(t, "Missing meta description, \"quoted\"", records[4][2])
	assert.Equal(t, "URL", records[6][0])
	assert.Equal(t, "https://example.com/", records[7][0])
	assert.Equal(t, "250", records[7][4])
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	run, results := fixture()
	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf, report.Build(run, results), 2))

	out := buf.String()
	assert.Contains(t, out, "Example audit")
	assert.Contains(t, out, "87.5")
	assert.Contains(t, out, "Top findings (2 of 3)")
	assert.Contains(t, out, "TECH_TITLE_TAG")
	assert.NotContains(t, out, "PERF_CONTENT_LENGTH")
}

func TestWriteTable_NoFindings(t *testing.T) {
	t.Parallel()

	run, _ := fixture()
	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf, report.Build(run, &audit.Results{}), report.DefaultTopFindings))
	assert.Contains(t, buf.String(), "No findings.")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]report.Format{"json": report.FormatJSON, " CSV ": report.FormatCSV, "table": report.FormatTable} {
		got, err := report.ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := report.ParseFormat("xml")
	require.Error(t, err)
}
