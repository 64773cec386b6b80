package analysis_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/analysis"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/metrics"
)

type stubCheck struct {
	code    string
	finding *domain.Finding
	err     error
	panics  bool
}

func (s stubCheck) Code() string              { return s.code }
func (s stubCheck) Name() string              { return "Stub " + s.code }
func (s stubCheck) Category() domain.Category { return domain.CategoryUX }

func (s stubCheck) Run(*domain.PageSnapshot) (*domain.Finding, error) {
	if s.panics {
		panic("check exploded")
	}
	if s.finding == nil {
		return nil, s.err
	}
	f := *s.finding
	return &f, s.err
}

func TestDefaultChecksOrder(t *testing.T) {
	t.Parallel()

	var codes []string
	for _, info := range analysis.NewEngine(nil, nil).AvailableChecks() {
		codes = append(codes, info.Code)
	}
	assert.Equal(t, []string{
		"TECH_TITLE_TAG",
		"TECH_META_DESCRIPTION",
		"TECH_HEADING_STRUCTURE",
		"TECH_IMAGE_ALT",
		"TECH_CANONICAL_URL",
		"PERF_PAGE_LOAD_TIME",
		"PERF_CONTENT_LENGTH",
		"A11Y_IMAGE_ACCESSIBILITY",
		"TECH_ROBOTS_DIRECTIVES",
		"MOBILE_VIEWPORT",
		"SEC_HTTPS",
	}, codes)
}

func TestAnalyze_StampsFindings(t *testing.T) {
	t.Parallel()

	snap := healthyPage()
	snap.Title = ""

	findings := analysis.NewEngine(logger.NewNop(), nil).Analyze("run-42", snap)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "TECH_TITLE_TAG", f.CheckCode)
	assert.Equal(t, domain.SeverityCritical, f.Severity)
	assert.InDelta(t, -15.0, f.ScoreImpact, 0.001)
	assert.Equal(t, "run-42", f.AuditRunID)
	assert.Equal(t, snap.URL, f.PageURL)
	assert.NotEmpty(t, f.ID)
	assert.False(t, f.CreatedAt.IsZero())
	assert.Equal(t, domain.FindingOpen, f.Status)
	assert.Equal(t, 115, f.PriorityScore)
}

func TestAnalyze_IsolatesFailingChecks(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	good := &domain.Finding{Severity: domain.SeverityLow, ScoreImpact: -2, Difficulty: domain.DifficultyEasy}
	engine := analysis.NewEngine(logger.NewNop(), m,
		stubCheck{code: "PANICS", panics: true},
		stubCheck{code: "ERRORS", err: errors.New("broken")},
		stubCheck{code: "WORKS", finding: good},
		stubCheck{code: "PASSES"},
	)

	findings := engine.Analyze("run-1", healthyPage())
	require.Len(t, findings, 1)
	assert.Equal(t, "WORKS", findings[0].CheckCode)
	assert.Equal(t, domain.CategoryUX, findings[0].Category)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CheckErrorsTotal.WithLabelValues("PANICS")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CheckErrorsTotal.WithLabelValues("ERRORS")), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.FindingsTotal.WithLabelValues("low", "ux")), 0.001)
}

func TestAnalyze_ClampsImpact(t *testing.T) {
	t.Parallel()

	engine := analysis.NewEngine(nil, nil, stubCheck{
		code:    "HUGE",
		finding: &domain.Finding{Severity: domain.SeverityInfo, ScoreImpact: -250},
	})

	findings := engine.Analyze("run-1", healthyPage())
	require.Len(t, findings, 1)
	assert.InDelta(t, -100.0, findings[0].ScoreImpact, 0.001)
	assert.Equal(t, domain.DifficultyMedium, findings[0].Difficulty)
}

func TestRunCheck(t *testing.T) {
	t.Parallel()

	engine := analysis.NewEngine(nil, nil, stubCheck{code: "PANICS", panics: true})

	_, err := engine.RunCheck("NOPE", healthyPage())
	require.ErrorIs(t, err, analysis.ErrUnknownCheck)

	_, err = engine.RunCheck("PANICS", healthyPage())
	require.ErrorIs(t, err, analysis.ErrCheckPanicked)
}
