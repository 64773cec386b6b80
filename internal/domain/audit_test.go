package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

func TestAuditConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := domain.DefaultAuditConfig()
	valid.SeedURLs = []string{"https://example.com/"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*domain.AuditConfig)
	}{
		{"no seeds", func(c *domain.AuditConfig) { c.SeedURLs = nil }},
		{"relative seed", func(c *domain.AuditConfig) { c.SeedURLs = []string{"/about"} }},
		{"ftp seed", func(c *domain.AuditConfig) { c.SeedURLs = []string{"ftp://example.com"} }},
		{"zero pages", func(c *domain.AuditConfig) { c.MaxPages = 0 }},
		{"too many pages", func(c *domain.AuditConfig) { c.MaxPages = 10001 }},
		{"zero depth", func(c *domain.AuditConfig) { c.CrawlDepth = 0 }},
		{"too deep", func(c *domain.AuditConfig) { c.CrawlDepth = 11 }},
		{"negative delay", func(c *domain.AuditConfig) { c.CrawlDelay = -1 }},
		{"slow delay", func(c *domain.AuditConfig) { c.CrawlDelay = 10.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			cfg.SeedURLs = append([]string(nil), valid.SeedURLs...)
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestAuditRun_Guards(t *testing.T) {
	t.Parallel()

	run := &domain.AuditRun{State: domain.RunDraft, MaxRetries: 3}
	assert.True(t, run.CanStart())
	assert.False(t, run.CanCancel())
	assert.False(t, run.CanRetry())

	run.State = domain.RunRunning
	assert.False(t, run.CanStart())
	assert.True(t, run.CanCancel())

	run.State = domain.RunFailed
	assert.True(t, run.CanRetry())
	run.RetryCount = 3
	assert.False(t, run.CanRetry())

	assert.True(t, domain.RunCanceled.IsTerminal())
	assert.False(t, domain.RunQueued.IsTerminal())
}

func TestAuditRun_CompletionPercent(t *testing.T) {
	t.Parallel()

	run := &domain.AuditRun{Config: domain.AuditConfig{MaxPages: 4}, PagesCrawled: 1}
	assert.InDelta(t, 25.0, run.CompletionPercent(), 0.001)

	run.PagesCrawled = 9
	assert.InDelta(t, 100.0, run.CompletionPercent(), 0.001)

	run.Config.MaxPages = 0
	assert.Zero(t, run.CompletionPercent())
}

func TestAuditRun_AddFinding(t *testing.T) {
	t.Parallel()

	run := &domain.AuditRun{}
	run.AddFinding(domain.SeverityCritical)
	run.AddFinding(domain.SeverityMedium)
	run.AddFinding(domain.SeverityMedium)
	run.AddFinding(domain.SeverityInfo)

	assert.Equal(t, 4, run.TotalFindings)
	assert.Equal(t, 1, run.CriticalFindings)
	assert.Equal(t, 2, run.MediumFindings)
	assert.Equal(t, 1, run.InfoFindings)

	run.ResetProgress()
	assert.Zero(t, run.TotalFindings)
	assert.Zero(t, run.MediumFindings)
}
