// Package crawler runs a bounded breadth-first crawl over one or more seed
// URLs: robots.txt is honoured, fetches are spaced per origin, and the
// number of successful pages never exceeds the configured cap.
package crawler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/frontier"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/metrics"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/ratelimit"
)

const defaultConcurrency = 4

var (
	// ErrNoValidSeeds is returned by Start when no seed is an http(s) URL.
	ErrNoValidSeeds = errors.New("no valid seed urls")
	// ErrMissingDependency is returned by New when a required dependency is nil.
	ErrMissingDependency = errors.New("missing crawler dependency")
)

// PageFetcher retrieves one URL, consulting checks before each redirect hop.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, checks ...fetcher.HopCheck) (*fetcher.Response, error)
}

// SnapshotExtractor parses a fetched response.
type SnapshotExtractor interface {
	Extract(resp *fetcher.Response) (*domain.PageSnapshot, error)
}

// RobotsPolicy answers robots.txt questions for the crawler's user agent.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
	CrawlDelay(origin string) time.Duration
}

// TurnWaiter spaces requests to the same origin.
type TurnWaiter interface {
	WaitTurn(ctx context.Context, origin string) error
	Raise(origin string, delay time.Duration)
}

// Config bounds a single crawl.
type Config struct {
	MaxPages        int
	MaxDepth        int
	CrawlDelay      time.Duration
	RespectRobots   bool
	IncludeExternal bool
	Concurrency     int
	Dedup           string
}

// Deps are the collaborators of an Orchestrator. Robots is required only
// when RespectRobots is set. A nil Limiter is replaced by a per-origin
// limiter spaced by Config.CrawlDelay; Metrics and Logger are optional.
type Deps struct {
	Fetcher   PageFetcher
	Extractor SnapshotExtractor
	Robots    RobotsPolicy
	Limiter   TurnWaiter
	Metrics   *metrics.Metrics
	Logger    logger.Logger
}

// Hooks are invoked as results arrive. They may be called concurrently
// from several crawl workers.
type Hooks struct {
	OnSnapshot func(*domain.PageSnapshot)
	OnFailure  func(domain.FetchFailure)
	OnSkip     func(Skip)
}

// SkipReason explains why a target was not fetched.
type SkipReason string

const (
	SkipRobots           SkipReason = "robots-disallowed"
	SkipDepth            SkipReason = "depth-exceeded"
	SkipExternalRedirect SkipReason = "external-redirect"
	SkipDuplicate        SkipReason = "duplicate"
)

// Skip records a target that was intentionally not fetched, or whose
// redirect led somewhere the crawl may not keep. RedirectTo names that
// redirect target.
type Skip struct {
	URL        string     `json:"url"`
	Depth      int        `json:"depth"`
	Reason     SkipReason `json:"reason"`
	RedirectTo string     `json:"redirect_to,omitempty"`
}

// Result is the outcome of a finished crawl.
type Result struct {
	Snapshots []*domain.PageSnapshot
	Failures  []domain.FetchFailure
	Skipped   []Skip
	Canceled  bool
}

// Stats is a point-in-time view of crawl progress.
type Stats struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	Queued    int   `json:"queued"`
	InFlight  int64 `json:"in_flight"`
}

// Orchestrator starts crawls with a fixed configuration and dependency set.
type Orchestrator struct {
	cfg  Config
	deps Deps
	log  logger.Logger
}

// New validates deps and applies config defaults.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Fetcher == nil || deps.Extractor == nil {
		return nil, ErrMissingDependency
	}
	if cfg.RespectRobots && deps.Robots == nil {
		return nil, ErrMissingDependency
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = domain.DefaultMaxPages
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.New(cfg.CrawlDelay)
	}
	return &Orchestrator{
		cfg:  cfg,
		deps: deps,
		log:  logger.Component(deps.Logger, "crawler"),
	}, nil
}

// Start validates seeds and launches the crawl in the background. The
// returned handle owns all state of this crawl; ctx bounds its lifetime.
func (o *Orchestrator) Start(ctx context.Context, seeds []string, hooks Hooks) (*Crawl, error) {
	visited, err := frontier.NewVisitedSet(o.cfg.Dedup, o.cfg.MaxPages*linksPerPageEstimate)
	if err != nil {
		return nil, err
	}

	queue := frontier.NewQueue()
	for _, seed := range seeds {
		seed = stripFragment(strings.TrimSpace(seed))
		key, normErr := frontier.Normalize(seed)
		if normErr != nil {
			o.log.Warn("Ignoring invalid seed", logger.String("url", seed), logger.Error(normErr))
			continue
		}
		if visited.TestAndAdd(key) {
			continue
		}
		queue.Push(domain.CrawlTarget{URL: seed, Depth: 0})
	}
	if queue.Len() == 0 {
		return nil, ErrNoValidSeeds
	}

	c := newCrawl(ctx, o, hooks, queue, visited)
	o.log.Info("Crawl started",
		logger.Int("seeds", queue.Len()),
		logger.Int("max_pages", o.cfg.MaxPages),
		logger.Int("max_depth", o.cfg.MaxDepth),
		logger.Int("concurrency", o.cfg.Concurrency),
	)
	go c.run(ctx)
	return c, nil
}

// stripFragment drops the #fragment of rawURL; the server never sees it.
func stripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
