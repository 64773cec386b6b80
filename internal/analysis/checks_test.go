package analysis_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/analysis"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// healthyPage passes every built-in check.
func healthyPage() *domain.PageSnapshot {
	alt := "A descriptive alt text"
	return &domain.PageSnapshot{
		URL:             "https://example.com/",
		FinalURL:        "https://example.com/",
		StatusCode:      200,
		ResponseTime:    200 * time.Millisecond,
		Title:           "A Well Sized Page Title For Search Results",
		MetaDescription: strings.Repeat("d", 140),
		MetaRobots:      "index, follow",
		Viewport:        "width=device-width, initial-scale=1",
		CanonicalURL:    "https://example.com/",
		H1:              []string{"Heading"},
		H2:              []string{"Sub"},
		H3:              []string{"Sub sub"},
		Images:          []domain.Image{{Src: "https://example.com/a.png", Alt: &alt}},
		WordCount:       450,
	}
}

func runCheck(t *testing.T, code string, snap *domain.PageSnapshot) *domain.Finding {
	t.Helper()

	f, err := analysis.NewEngine(nil, nil).RunCheck(code, snap)
	require.NoError(t, err)
	return f
}

func TestHealthyPageHasNoFindings(t *testing.T) {
	t.Parallel()

	engine := analysis.NewEngine(nil, nil)
	assert.Empty(t, engine.Analyze("run-1", healthyPage()))
}

func TestTitleTagCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		title    string
		severity domain.Severity
		impact   float64
		heading  string
	}{
		{name: "missing", title: "", severity: domain.SeverityCritical, impact: -15, heading: "Missing Title Tag"},
		{name: "too short", title: "Home", severity: domain.SeverityMedium, impact: -5, heading: "Title Tag Too Short"},
		{
			name:     "too long",
			title:    strings.Repeat("x", 61),
			severity: domain.SeverityMedium,
			impact:   -3,
			heading:  "Title Tag Too Long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := healthyPage()
			snap.Title = tt.title
			f := runCheck(t, "TECH_TITLE_TAG", snap)

			require.NotNil(t, f)
			assert.Equal(t, tt.severity, f.Severity)
			assert.InDelta(t, tt.impact, f.ScoreImpact, 0.001)
			assert.Equal(t, tt.heading, f.Title)
			assert.Equal(t, domain.CategoryTechnical, f.Category)
			require.NotNil(t, f.Element)
			assert.Equal(t, "title", *f.Element)
		})
	}

	t.Run("short title reports lengths", func(t *testing.T) {
		t.Parallel()

		snap := healthyPage()
		snap.Title = "Home"
		f := runCheck(t, "TECH_TITLE_TAG", snap)
		require.NotNil(t, f)
		require.NotNil(t, f.CurrentValue)
		assert.Equal(t, "Home", *f.CurrentValue)
		require.NotNil(t, f.ExpectedValue)
		assert.Equal(t, "30-60 characters", *f.ExpectedValue)
		assert.Contains(t, f.Description, "4 characters")
	})

	t.Run("boundaries pass", func(t *testing.T) {
		t.Parallel()

		for _, n := range []int{30, 60} {
			snap := healthyPage()
			snap.Title = strings.Repeat("é", n)
			assert.Nil(t, runCheck(t, "TECH_TITLE_TAG", snap), "length %d", n)
		}
	})
}

func TestMetaDescriptionCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		desc     string
		severity domain.Severity
		impact   float64
	}{
		{name: "missing", desc: "", severity: domain.SeverityHigh, impact: -10},
		{name: "short", desc: strings.Repeat("d", 119), severity: domain.SeverityMedium, impact: -3},
		{name: "long", desc: strings.Repeat("d", 161), severity: domain.SeverityLow, impact: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := healthyPage()
			snap.MetaDescription = tt.desc
			f := runCheck(t, "TECH_META_DESCRIPTION", snap)

			require.NotNil(t, f)
			assert.Equal(t, tt.severity, f.Severity)
			assert.InDelta(t, tt.impact, f.ScoreImpact, 0.001)
		})
	}
}

func TestHeadingStructureCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		h1, h2   []string
		h3       []string
		severity domain.Severity
		impact   float64
		contains []string
	}{
		{
			name:     "missing h1",
			severity: domain.SeverityHigh,
			impact:   -8,
			contains: []string{"Missing H1 tag"},
		},
		{
			name:     "multiple h1",
			h1:       []string{"a", "b"},
			h2:       []string{"c"},
			severity: domain.SeverityMedium,
			impact:   -4,
			contains: []string{"Multiple H1 tags found (2)"},
		},
		{
			name:     "h3 without h2",
			h1:       []string{"a"},
			h3:       []string{"c"},
			severity: domain.SeverityMedium,
			impact:   -4,
			contains: []string{"H3 tags found without H2 tags"},
		},
		{
			name:     "missing h1 and skipped level",
			h3:       []string{"c"},
			severity: domain.SeverityHigh,
			impact:   -8,
			contains: []string{"Missing H1 tag", "H3 tags found without H2 tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := healthyPage()
			snap.H1, snap.H2, snap.H3 = tt.h1, tt.h2, tt.h3
			f := runCheck(t, "TECH_HEADING_STRUCTURE", snap)

			require.NotNil(t, f)
			assert.Equal(t, tt.severity, f.Severity)
			assert.InDelta(t, tt.impact, f.ScoreImpact, 0.001)
			assert.Equal(t, domain.DifficultyMedium, f.Difficulty)
			for _, want := range tt.contains {
				assert.Contains(t, f.Description, want)
			}
		})
	}
}

func TestImageChecks(t *testing.T) {
	t.Parallel()

	empty := ""
	long := strings.Repeat("a", 126)
	good := "Logo"

	t.Run("missing and empty alt", func(t *testing.T) {
		t.Parallel()

		snap := healthyPage()
		snap.Images = []domain.Image{{Src: "a.png"}, {Src: "b.png", Alt: &empty}, {Src: "c.png", Alt: &good}}

		f := runCheck(t, "TECH_IMAGE_ALT", snap)
		require.NotNil(t, f)
		assert.Contains(t, f.Description, "2 images")

		a11y := runCheck(t, "A11Y_IMAGE_ACCESSIBILITY", snap)
		require.NotNil(t, a11y)
		assert.Equal(t, domain.CategoryAccessibility, a11y.Category)
		assert.InDelta(t, -3.0, a11y.ScoreImpact, 0.001)
		assert.Contains(t, a11y.Description, "Missing alt text")
	})

	t.Run("long alt only affects accessibility", func(t *testing.T) {
		t.Parallel()

		snap := healthyPage()
		snap.Images = []domain.Image{{Src: "a.png", Alt: &long}}

		assert.Nil(t, runCheck(t, "TECH_IMAGE_ALT", snap))
		a11y := runCheck(t, "A11Y_IMAGE_ACCESSIBILITY", snap)
		require.NotNil(t, a11y)
		assert.Equal(t, "Images have accessibility issues: Alt text too long", a11y.Description)
	})

	t.Run("no images", func(t *testing.T) {
		t.Parallel()

		snap := healthyPage()
		snap.Images = nil
		assert.Nil(t, runCheck(t, "TECH_IMAGE_ALT", snap))
		assert.Nil(t, runCheck(t, "A11Y_IMAGE_ACCESSIBILITY", snap))
	})
}

func TestCanonicalURLCheck(t *testing.T) {
	t.Parallel()

	snap := healthyPage()
	snap.CanonicalURL = ""
	f := runCheck(t, "TECH_CANONICAL_URL", snap)
	require.NotNil(t, f)
	assert.Equal(t, domain.SeverityMedium, f.Severity)
	assert.InDelta(t, -5.0, f.ScoreImpact, 0.001)
}

func TestPageLoadTimeCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		latency    time.Duration
		wantNil    bool
		severity   domain.Severity
		difficulty domain.Difficulty
	}{
		{name: "fast", latency: 1500 * time.Millisecond, wantNil: true},
		{name: "moderate", latency: 1600 * time.Millisecond, severity: domain.SeverityMedium, difficulty: domain.DifficultyMedium},
		{name: "slow", latency: 3200 * time.Millisecond, severity: domain.SeverityHigh, difficulty: domain.DifficultyHard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := healthyPage()
			snap.ResponseTime = tt.latency
			f := runCheck(t, "PERF_PAGE_LOAD_TIME", snap)
			if tt.wantNil {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.severity, f.Severity)
			assert.Equal(t, tt.difficulty, f.Difficulty)
			assert.Equal(t, domain.CategoryPerformance, f.Category)
		})
	}
}

func TestContentLengthCheck(t *testing.T) {
	t.Parallel()

	snap := healthyPage()
	snap.WordCount = 120
	f := runCheck(t, "PERF_CONTENT_LENGTH", snap)
	require.NotNil(t, f)
	assert.Equal(t, "Thin Content", f.Title)
	assert.Equal(t, domain.CategoryContent, f.Category)
	require.NotNil(t, f.CurrentValue)
	assert.Equal(t, "120 words", *f.CurrentValue)

	snap.WordCount = 300
	assert.Nil(t, runCheck(t, "PERF_CONTENT_LENGTH", snap))
}

func TestRobotsDirectivesCheck(t *testing.T) {
	t.Parallel()

	for _, robots := range []string{"noindex", "index, NOFOLLOW", "none"} {
		snap := healthyPage()
		snap.MetaRobots = robots
		f := runCheck(t, "TECH_ROBOTS_DIRECTIVES", snap)
		require.NotNil(t, f, robots)
		assert.Equal(t, domain.SeverityHigh, f.Severity)
	}

	snap := healthyPage()
	snap.MetaRobots = ""
	assert.Nil(t, runCheck(t, "TECH_ROBOTS_DIRECTIVES", snap))
}

func TestMobileViewportCheck(t *testing.T) {
	t.Parallel()

	snap := healthyPage()
	snap.Viewport = ""
	f := runCheck(t, "MOBILE_VIEWPORT", snap)
	require.NotNil(t, f)
	assert.Equal(t, domain.CategoryMobile, f.Category)
	assert.Nil(t, f.CurrentValue)

	snap.Viewport = "width=1024"
	f = runCheck(t, "MOBILE_VIEWPORT", snap)
	require.NotNil(t, f)
	require.NotNil(t, f.CurrentValue)
	assert.Equal(t, "width=1024", *f.CurrentValue)

	snap.Viewport = "initial-scale=1, width = device-width"
	assert.Nil(t, runCheck(t, "MOBILE_VIEWPORT", snap))
}

func TestHTTPSCheck(t *testing.T) {
	t.Parallel()

	snap := healthyPage()
	snap.URL = "https://example.com/"
	snap.FinalURL = "http://example.com/"
	f := runCheck(t, "SEC_HTTPS", snap)
	require.NotNil(t, f)
	assert.Equal(t, domain.CategorySecurity, f.Category)
	assert.InDelta(t, -10.0, f.ScoreImpact, 0.001)
}
