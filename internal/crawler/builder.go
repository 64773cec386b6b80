package crawler

import (
	"net/http"
	"time"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/extractor"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/metrics"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/ratelimit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/robots"
)

// Builder assembles one Orchestrator per audit run. The fetcher is shared
// across runs; the robots cache, rate limiter and extractor options are
// scoped to the run that requested them.
type Builder struct {
	Fetcher       *fetcher.Fetcher
	RobotsClient  *http.Client
	RobotsTimeout time.Duration
	Concurrency   int
	Dedup         string
	Metrics       *metrics.Metrics
	Logger        logger.Logger
}

// ConfigFor maps an audit configuration onto crawl bounds.
func (b *Builder) ConfigFor(cfg domain.AuditConfig) Config {
	return Config{
		MaxPages:        cfg.MaxPages,
		MaxDepth:        cfg.CrawlDepth,
		CrawlDelay:      cfg.Delay(),
		RespectRobots:   cfg.RespectRobots,
		IncludeExternal: cfg.IncludeExternal,
		Concurrency:     b.Concurrency,
		Dedup:           b.Dedup,
	}
}

// Build creates an Orchestrator for cfg with fresh per-run state.
func (b *Builder) Build(cfg domain.AuditConfig) (*Orchestrator, error) {
	if b.Fetcher == nil {
		return nil, ErrMissingDependency
	}
	crawlCfg := b.ConfigFor(cfg)
	deps := Deps{
		Fetcher: b.Fetcher,
		Extractor: extractor.New(extractor.Options{
			IncludeImages:  cfg.IncludeImages,
			IncludeScripts: cfg.IncludeJS,
			IncludeStyles:  cfg.IncludeCSS,
		}),
		Limiter: ratelimit.New(crawlCfg.CrawlDelay),
		Metrics: b.Metrics,
		Logger:  b.Logger,
	}
	if cfg.RespectRobots {
		deps.Robots = robots.New(b.RobotsClient, b.Fetcher.UserAgent(), b.RobotsTimeout, b.Logger)
	}
	return New(crawlCfg, deps)
}
