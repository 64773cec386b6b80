package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/analysis"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

func finding(sev domain.Severity, cat domain.Category, impact float64) domain.Finding {
	return domain.Finding{Severity: sev, Category: cat, ScoreImpact: impact, Difficulty: domain.DifficultyEasy}
}

func TestOverallScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		findings []domain.Finding
		want     float64
	}{
		{name: "no findings", want: 100},
		{
			name:     "critical weighted",
			findings: []domain.Finding{finding(domain.SeverityCritical, domain.CategoryTechnical, -15)},
			want:     77.5,
		},
		{
			name:     "high weighted",
			findings: []domain.Finding{finding(domain.SeverityHigh, domain.CategoryTechnical, -10)},
			want:     88,
		},
		{
			name: "mixed",
			findings: []domain.Finding{
				finding(domain.SeverityMedium, domain.CategoryTechnical, -5),
				finding(domain.SeverityLow, domain.CategoryTechnical, -1),
				finding(domain.SeverityInfo, domain.CategoryContent, -2),
			},
			want: 92,
		},
		{
			name: "clamped at zero",
			findings: []domain.Finding{
				finding(domain.SeverityCritical, domain.CategoryTechnical, -80),
				finding(domain.SeverityCritical, domain.CategoryTechnical, -80),
			},
			want: 0,
		},
		{
			name:     "positive impact ignored",
			findings: []domain.Finding{finding(domain.SeverityInfo, domain.CategoryTechnical, 20)},
			want:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, analysis.OverallScore(tt.findings), 0.0001)
		})
	}
}

func TestOverallScore_Monotonic(t *testing.T) {
	t.Parallel()

	base := []domain.Finding{finding(domain.SeverityMedium, domain.CategoryTechnical, -5)}
	before := analysis.OverallScore(base)

	for _, sev := range []domain.Severity{
		domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow, domain.SeverityInfo,
	} {
		for _, impact := range []float64{-20, -1, 0, 5} {
			after := analysis.OverallScore(append(base, finding(sev, domain.CategoryUX, impact)))
			assert.LessOrEqual(t, after, before, "severity %s impact %v", sev, impact)
		}
	}

	critical := []domain.Finding{
		finding(domain.SeverityCritical, domain.CategoryTechnical, -5),
		finding(domain.SeverityCritical, domain.CategoryTechnical, -5),
	}
	info := []domain.Finding{
		finding(domain.SeverityInfo, domain.CategoryTechnical, -5),
		finding(domain.SeverityInfo, domain.CategoryTechnical, -5),
	}
	withBoth := append(append([]domain.Finding{}, critical...), info...)
	all := analysis.OverallScore(withBoth)
	assert.Greater(t, analysis.OverallScore(info)-all, analysis.OverallScore(critical)-all)
}

func TestCategoryScores(t *testing.T) {
	t.Parallel()

	scores := analysis.CategoryScores([]domain.Finding{
		finding(domain.SeverityCritical, domain.CategoryTechnical, -15),
		finding(domain.SeverityMedium, domain.CategoryTechnical, -5),
		finding(domain.SeverityHigh, domain.CategoryPerformance, -10),
	})

	assert.Len(t, scores, 2)
	assert.InDelta(t, 72.5, scores[domain.CategoryTechnical], 0.0001)
	assert.InDelta(t, 88.0, scores[domain.CategoryPerformance], 0.0001)
	_, ok := scores[domain.CategoryContent]
	assert.False(t, ok)
}

func TestPriorityScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		finding domain.Finding
		want    int
	}{
		{
			name:    "critical easy",
			finding: domain.Finding{Severity: domain.SeverityCritical, ScoreImpact: -15, Difficulty: domain.DifficultyEasy},
			want:    115,
		},
		{
			name:    "high hard",
			finding: domain.Finding{Severity: domain.SeverityHigh, ScoreImpact: -10, Difficulty: domain.DifficultyHard},
			want:    120,
		},
		{
			name:    "medium medium",
			finding: domain.Finding{Severity: domain.SeverityMedium, ScoreImpact: -3, Difficulty: domain.DifficultyMedium},
			want:    51,
		},
		{
			name:    "info unknown difficulty",
			finding: domain.Finding{Severity: domain.SeverityInfo, ScoreImpact: 2.7},
			want:    12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, analysis.PriorityScore(tt.finding))
		})
	}
}

func TestClampImpact(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -100.0, analysis.ClampImpact(-150), 0.0001)
	assert.InDelta(t, 100.0, analysis.ClampImpact(150), 0.0001)
	assert.InDelta(t, -7.5, analysis.ClampImpact(-7.5), 0.0001)
}
