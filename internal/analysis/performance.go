package analysis

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

const (
	slowPageMillis     = 3000
	moderatePageMillis = 1500
	thinContentWords   = 300
)

type pageLoadTimeCheck struct{}

func (pageLoadTimeCheck) Code() string              { return "PERF_PAGE_LOAD_TIME" }
func (pageLoadTimeCheck) Name() string              { return "Page Load Time Check" }
func (pageLoadTimeCheck) Category() domain.Category { return domain.CategoryPerformance }

func (c pageLoadTimeCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	ms := snap.ResponseTimeMillis()
	switch {
	case ms > slowPageMillis:
		f := newFinding(c, domain.SeverityHigh, domain.DifficultyHard, -10)
		f.Title = "Slow Page Load Time"
		f.Description = fmt.Sprintf("Page load time is %.0fms, which is above the recommended 3 seconds.", ms)
		f.Recommendation = "Optimize page loading speed through image compression, code minification, and CDN usage."
		f.Impact = "Slow loading pages negatively impact user experience and search rankings."
		f.CurrentValue = ptr(fmt.Sprintf("%.0fms", ms))
		f.ExpectedValue = ptr("< 3000ms")
		return f, nil
	case ms > moderatePageMillis:
		f := newFinding(c, domain.SeverityMedium, domain.DifficultyMedium, -3)
		f.Title = "Moderate Page Load Time"
		f.Description = fmt.Sprintf("Page load time is %.0fms, which could be improved.", ms)
		f.Recommendation = "Consider optimizing page loading speed for better user experience."
		f.Impact = "Faster loading pages provide better user experience and may rank higher."
		f.CurrentValue = ptr(fmt.Sprintf("%.0fms", ms))
		f.ExpectedValue = ptr("< 1500ms")
		return f, nil
	}
	return nil, nil
}

type contentLengthCheck struct{}

func (contentLengthCheck) Code() string              { return "PERF_CONTENT_LENGTH" }
func (contentLengthCheck) Name() string              { return "Content Length Check" }
func (contentLengthCheck) Category() domain.Category { return domain.CategoryContent }

func (c contentLengthCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	if snap.WordCount >= thinContentWords {
		return nil, nil
	}
	f := newFinding(c, domain.SeverityMedium, domain.DifficultyMedium, -5)
	f.Title = "Thin Content"
	f.Description = fmt.Sprintf(
		"Page has only %d words, which is below the recommended 300 words.", snap.WordCount)
	f.Recommendation = "Add more valuable, relevant content to improve SEO performance."
	f.Impact = "Thin content may not rank well in search results and provides less value to users."
	f.CurrentValue = ptr(fmt.Sprintf("%d words", snap.WordCount))
	f.ExpectedValue = ptr("> 300 words")
	return f, nil
}
