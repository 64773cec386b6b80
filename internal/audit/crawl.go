package audit

import (
	"context"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/crawler"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// CrawlHandle is a running crawl.
type CrawlHandle interface {
	Done() <-chan struct{}
	Wait(ctx context.Context) (*crawler.Result, error)
	Cancel()
}

// CrawlStarter launches the crawl phase of a run.
type CrawlStarter interface {
	StartCrawl(ctx context.Context, cfg domain.AuditConfig, hooks crawler.Hooks) (CrawlHandle, error)
}

// Analyzer produces the findings for one page.
type Analyzer interface {
	Analyze(runID string, snap *domain.PageSnapshot) []domain.Finding
}

// BuilderStarter starts crawls through a crawler.Builder.
type BuilderStarter struct {
	Builder *crawler.Builder
}

// NewCrawlStarter adapts b to CrawlStarter.
func NewCrawlStarter(b *crawler.Builder) *BuilderStarter {
	return &BuilderStarter{Builder: b}
}

// StartCrawl builds a per-run orchestrator and starts it on the seeds of cfg.
func (s *BuilderStarter) StartCrawl(ctx context.Context, cfg domain.AuditConfig, hooks crawler.Hooks) (CrawlHandle, error) {
	o, err := s.Builder.Build(cfg)
	if err != nil {
		return nil, err
	}
	c, err := o.Start(ctx, cfg.SeedURLs, hooks)
	if err != nil {
		return nil, err
	}
	return c, nil
}
