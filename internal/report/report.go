// Package report assembles the results of an audit run into a report and
// renders it as JSON, CSV or a terminal table.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/analysis"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/audit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// Report is the full, serializable view of one audit run.
type Report struct {
	AuditInfo   AuditInfo             `json:"audit_info"`
	Summary     Summary               `json:"summary"`
	Findings    []domain.Finding      `json:"findings"`
	Pages       []Page                `json:"pages"`
	Failures    []domain.FetchFailure `json:"failures"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// AuditInfo identifies the run a report was built from.
type AuditInfo struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	SeedURLs      []string        `json:"seed_urls"`
	CreatedAt     time.Time       `json:"created_at"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
	State         domain.RunState `json:"state"`
	PagesCrawled  int             `json:"pages_crawled"`
	PagesAnalyzed int             `json:"pages_analyzed"`
	RetryCount    int             `json:"retry_count"`
}

// Counts tallies findings by severity.
type Counts struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

func (c *Counts) add(s domain.Severity) {
	c.Total++
	switch s {
	case domain.SeverityCritical:
		c.Critical++
	case domain.SeverityHigh:
		c.High++
	case domain.SeverityMedium:
		c.Medium++
	case domain.SeverityLow:
		c.Low++
	case domain.SeverityInfo:
		c.Info++
	}
}

// CategoryBreakdown is the per-category part of the summary.
type CategoryBreakdown struct {
	Counts
	Score float64 `json:"score"`
}

// Summary aggregates the findings of the run.
type Summary struct {
	TotalFindings     int                                   `json:"total_findings"`
	CriticalFindings  int                                   `json:"critical_findings"`
	HighFindings      int                                   `json:"high_findings"`
	MediumFindings    int                                   `json:"medium_findings"`
	LowFindings       int                                   `json:"low_findings"`
	InfoFindings      int                                   `json:"info_findings"`
	OverallScore      float64                               `json:"overall_score"`
	TotalPages        int                                   `json:"total_pages"`
	FailedPages       int                                   `json:"failed_pages"`
	CategoryBreakdown map[domain.Category]CategoryBreakdown `json:"category_breakdown"`
}

// Page is the per-page line of a report.
type Page struct {
	URL            string  `json:"url"`
	FinalURL       string  `json:"final_url"`
	StatusCode     int     `json:"status_code"`
	ResponseTimeMS float64 `json:"response_time_ms"`
	Title          string  `json:"title"`
	WordCount      int     `json:"word_count"`
	Findings       Counts  `json:"findings"`
	Score          float64 `json:"score"`
}

// Build assembles a report. Findings are ordered by priority, highest first.
func Build(run *domain.AuditRun, results *audit.Results) *Report {
	if results == nil {
		results = &audit.Results{}
	}

	r := &Report{
		AuditInfo: AuditInfo{
			ID:            run.ID,
			Name:          run.Name,
			Description:   run.Description,
			SeedURLs:      slices.Clone(run.Config.SeedURLs),
			CreatedAt:     run.CreatedAt,
			StartedAt:     run.StartedAt,
			FinishedAt:    run.FinishedAt,
			State:         run.State,
			PagesCrawled:  run.PagesCrawled,
			PagesAnalyzed: run.PagesAnalyzed,
			RetryCount:    run.RetryCount,
		},
		Findings:    slices.Clone(results.Findings),
		Pages:       make([]Page, 0, len(results.Pages)),
		Failures:    slices.Clone(results.Failures),
		GeneratedAt: time.Now().UTC(),
	}
	if r.Findings == nil {
		r.Findings = []domain.Finding{}
	}
	if r.Failures == nil {
		r.Failures = []domain.FetchFailure{}
	}

	slices.SortStableFunc(r.Findings, func(a, b domain.Finding) int {
		return cmp.Compare(b.PriorityScore, a.PriorityScore)
	})

	scoreSum := 0.0
	for _, snap := range results.Pages {
		pageFindings := results.FindingsFor(snap.URL)
		p := Page{
			URL:            snap.URL,
			FinalURL:       snap.FinalURL,
			StatusCode:     snap.StatusCode,
			ResponseTimeMS: snap.ResponseTimeMillis(),
			Title:          snap.Title,
			WordCount:      snap.WordCount,
			Score:          analysis.OverallScore(pageFindings),
		}
		for i := range pageFindings {
			p.Findings.add(pageFindings[i].Severity)
		}
		scoreSum += p.Score
		r.Pages = append(r.Pages, p)
	}

	r.Summary = summarize(results.Findings)
	r.Summary.TotalPages = len(results.Pages)
	r.Summary.FailedPages = len(results.Failures)
	switch {
	case run.OverallScore != nil:
		r.Summary.OverallScore = *run.OverallScore
	case len(r.Pages) > 0:
		r.Summary.OverallScore = scoreSum / float64(len(r.Pages))
	default:
		r.Summary.OverallScore = 100
	}
	return r
}

func summarize(findings []domain.Finding) Summary {
	var total Counts
	perCategory := make(map[domain.Category]*Counts)
	for i := range findings {
		f := &findings[i]
		total.add(f.Severity)
		c, ok := perCategory[f.Category]
		if !ok {
			c = &Counts{}
			perCategory[f.Category] = c
		}
		c.add(f.Severity)
	}

	scores := analysis.CategoryScores(findings)
	breakdown := make(map[domain.Category]CategoryBreakdown, len(perCategory))
	for cat, c := range perCategory {
		breakdown[cat] = CategoryBreakdown{Counts: *c, Score: scores[cat]}
	}

	return Summary{
		TotalFindings:     total.Total,
		CriticalFindings:  total.Critical,
		HighFindings:      total.High,
		MediumFindings:    total.Medium,
		LowFindings:       total.Low,
		InfoFindings:      total.Info,
		CategoryBreakdown: breakdown,
	}
}
