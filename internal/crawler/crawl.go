package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/extractor"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/frontier"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

// linksPerPageEstimate sizes the bloom dedup filter.
const linksPerPageEstimate = 50

// ErrCrawlPanic wraps a panic raised while processing a page.
var ErrCrawlPanic = errors.New("crawl worker panicked")

// Crawl is the handle of one running crawl.
type Crawl struct {
	cfg    Config
	deps   Deps
	log    logger.Logger
	hooks  Hooks
	filter frontier.Filter

	queue   *frontier.Queue
	visited frontier.VisitedSet
	// landed holds the normalized final URL of every fetched page so two
	// targets redirecting to one document yield a single snapshot.
	landed *frontier.ExactSet

	// reserved counts successes plus fetches that may still succeed. It
	// never exceeds MaxPages, which bounds succeeded.
	reserved  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	active    atomic.Int64
	canceled  atomic.Bool

	wake       chan struct{}
	stop       chan struct{}
	stopOnce   sync.Once
	waitCtx    context.Context
	cancelWait context.CancelFunc

	mu        sync.Mutex
	snapshots []*domain.PageSnapshot
	failures  []domain.FetchFailure
	skips     []Skip
	err       error

	done   chan struct{}
	result *Result
}

// newCrawl builds the handle for one crawl. Rate-limit waits end when ctx
// ends or the crawl is halted, whichever comes first.
func newCrawl(ctx context.Context, o *Orchestrator, hooks Hooks, queue *frontier.Queue, visited frontier.VisitedSet) *Crawl {
	waitCtx, cancelWait := context.WithCancel(ctx)
	return &Crawl{
		cfg:        o.cfg,
		deps:       o.deps,
		log:        o.log,
		hooks:      hooks,
		filter:     frontier.NewFilter(o.cfg.IncludeExternal),
		queue:      queue,
		visited:    visited,
		landed:     frontier.NewExactSet(),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		waitCtx:    waitCtx,
		cancelWait: cancelWait,
		done:       make(chan struct{}),
	}
}

// Done is closed once the crawl has stopped and its result is available.
func (c *Crawl) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the crawl finishes or ctx ends. The returned error is
// non-nil when the crawl context ended early or a worker panicked; the
// partial result is still returned in that case.
func (c *Crawl) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel stops dequeuing new targets. Fetches already in progress finish
// and their results are kept.
func (c *Crawl) Cancel() {
	c.canceled.Store(true)
	c.halt()
}

// Stats returns current progress counters.
func (c *Crawl) Stats() Stats {
	return Stats{
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
		Skipped:   c.skipped.Load(),
		Queued:    c.queue.Len(),
		InFlight:  c.active.Load(),
	}
}

func (c *Crawl) halt() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.cancelWait()
	})
}

func (c *Crawl) stopping(ctx context.Context) bool {
	if c.canceled.Load() || ctx.Err() != nil {
		return true
	}
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// run is the dispatcher. It is the only goroutine that pops the queue and
// takes reservations.
func (c *Crawl) run(ctx context.Context) {
	defer close(c.done)
	defer c.cancelWait()

	maxPages := int64(c.cfg.MaxPages)
	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)

	for !c.stopping(ctx) && c.succeeded.Load() < maxPages {
		if c.reserved.Load() >= maxPages {
			c.waitForWorker(ctx)
			continue
		}

		target, ok := c.queue.Pop()
		if !ok {
			if c.active.Load() == 0 {
				break
			}
			c.waitForWorker(ctx)
			continue
		}

		if target.Depth > c.cfg.MaxDepth {
			c.recordSkip(Skip{URL: target.URL, Depth: target.Depth, Reason: SkipDepth})
			continue
		}

		c.reserved.Add(1)
		c.active.Add(1)
		g.Go(func() error {
			return c.process(ctx, target)
		})
	}

	if err := g.Wait(); err != nil {
		c.setErr(err)
	}
	if ctx.Err() != nil {
		c.setErr(context.Cause(ctx))
	}

	c.mu.Lock()
	c.result = &Result{
		Snapshots: c.snapshots,
		Failures:  c.failures,
		Skipped:   c.skips,
		Canceled:  c.canceled.Load(),
	}
	c.mu.Unlock()

	c.log.Info("Crawl finished",
		logger.Int64("succeeded", c.succeeded.Load()),
		logger.Int64("failed", c.failed.Load()),
		logger.Int64("skipped", c.skipped.Load()),
		logger.Bool("canceled", c.result.Canceled),
	)
}

// waitForWorker blocks until a worker finishes or the crawl is stopped.
func (c *Crawl) waitForWorker(ctx context.Context) {
	select {
	case <-c.wake:
	case <-c.stop:
	case <-ctx.Done():
	}
}

func (c *Crawl) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// process handles one reserved target. Exactly one of release or a
// recorded success settles the reservation.
func (c *Crawl) process(ctx context.Context, target domain.CrawlTarget) (err error) {
	settled := false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrCrawlPanic, target.URL, r)
			c.log.Error("Crawl worker panicked", logger.String("url", target.URL), logger.Any("panic", r))
			c.halt()
		}
		if !settled {
			c.reserved.Add(-1)
		}
		c.active.Add(-1)
		c.signal()
	}()

	origin := frontier.Origin(target.URL)

	if c.cfg.RespectRobots {
		if !c.deps.Robots.Allowed(ctx, target.URL) {
			c.deps.Metrics.RobotsBlocked()
			c.recordSkip(Skip{URL: target.URL, Depth: target.Depth, Reason: SkipRobots})
			return nil
		}
		if delay := c.deps.Robots.CrawlDelay(origin); delay > 0 {
			c.deps.Limiter.Raise(origin, delay)
		}
	}

	if waitErr := c.deps.Limiter.WaitTurn(c.waitCtx, origin); waitErr != nil {
		if !c.stopping(ctx) {
			// The origin's next turn falls after the crawl deadline.
			c.setErr(fmt.Errorf("%w: %w", context.DeadlineExceeded, waitErr))
			c.halt()
		}
		return nil
	}
	if c.stopping(ctx) {
		return nil
	}

	resp, fetchErr := c.deps.Fetcher.Fetch(ctx, target.URL, c.hopCheck(target))
	if fetchErr != nil {
		if ctx.Err() != nil {
			return nil
		}
		var blocked *hopError
		if errors.As(fetchErr, &blocked) {
			if blocked.reason == SkipRobots {
				c.deps.Metrics.RobotsBlocked()
			}
			c.recordSkip(Skip{URL: target.URL, Depth: target.Depth, Reason: blocked.reason, RedirectTo: blocked.target})
			return nil
		}
		c.recordFailure(failureFor(target, fetchErr))
		return nil
	}
	c.deps.Metrics.ObserveFetch("success", resp.Latency)

	if landingKey, normErr := frontier.Normalize(resp.FinalURL); normErr == nil {
		c.visited.TestAndAdd(landingKey)
		if c.landed.TestAndAdd(landingKey) {
			c.recordSkip(Skip{URL: target.URL, Depth: target.Depth, Reason: SkipDuplicate, RedirectTo: resp.FinalURL})
			return nil
		}
	}

	snap, extractErr := c.deps.Extractor.Extract(resp)
	if extractErr != nil {
		reason := domain.FailureParse
		if errors.Is(extractErr, extractor.ErrUnsupportedContent) {
			reason = domain.FailureUnsupportedContent
		}
		c.recordFailure(domain.FetchFailure{
			URL:        target.URL,
			Depth:      target.Depth,
			Reason:     reason,
			StatusCode: resp.StatusCode,
			Attempts:   resp.Attempts,
			Message:    extractErr.Error(),
		})
		return nil
	}
	snap.Depth = target.Depth

	settled = true
	c.succeeded.Add(1)
	c.recordSnapshot(snap)

	if target.Depth < c.cfg.MaxDepth {
		c.enqueueLinks(snap, target)
	}
	return nil
}

// enqueueLinks pushes the unseen crawlable links of snap one level deeper.
func (c *Crawl) enqueueLinks(snap *domain.PageSnapshot, parent domain.CrawlTarget) {
	candidates, rejected := c.filter.Partition(snap)
	for reason, n := range rejected {
		for range n {
			c.deps.Metrics.LinkSkipped(string(reason))
		}
	}

	parentURL := parent.URL
	var next []domain.CrawlTarget
	for _, link := range candidates {
		if c.succeeded.Load() >= int64(c.cfg.MaxPages) {
			break
		}
		key, err := frontier.Normalize(link)
		if err != nil {
			continue
		}
		if c.visited.TestAndAdd(key) {
			continue
		}
		next = append(next, domain.CrawlTarget{URL: link, Depth: parent.Depth + 1, ParentURL: &parentURL})
	}
	if len(next) > 0 {
		c.queue.Push(next...)
	}
}

// hopError rejects a redirect target the crawl may not follow.
type hopError struct {
	target string
	reason SkipReason
}

func (e *hopError) Error() string {
	return fmt.Sprintf("%s: %s", e.reason, e.target)
}

// hopCheck applies the crawl's robots and origin rules to every redirect
// hop of target. Seeds may redirect to another host, which then becomes the
// site being crawled; discovered pages may not leave their host unless
// external links are included.
func (c *Crawl) hopCheck(target domain.CrawlTarget) fetcher.HopCheck {
	host := frontier.Host(target.URL)
	return func(ctx context.Context, next string) error {
		if !c.cfg.IncludeExternal && target.Depth > 0 && frontier.Host(next) != host {
			return &hopError{target: next, reason: SkipExternalRedirect}
		}
		if c.cfg.RespectRobots && !c.deps.Robots.Allowed(ctx, next) {
			return &hopError{target: next, reason: SkipRobots}
		}
		return nil
	}
}

func failureFor(target domain.CrawlTarget, err error) domain.FetchFailure {
	var fe *fetcher.Error
	if errors.As(err, &fe) {
		return fe.Failure(target.Depth)
	}
	return domain.FetchFailure{
		URL:     target.URL,
		Depth:   target.Depth,
		Reason:  domain.FailureConnection,
		Message: err.Error(),
	}
}

func (c *Crawl) recordSnapshot(snap *domain.PageSnapshot) {
	c.mu.Lock()
	c.snapshots = append(c.snapshots, snap)
	c.mu.Unlock()

	c.log.Debug("Page crawled",
		logger.String("url", snap.URL),
		logger.Int("status", snap.StatusCode),
		logger.Int("depth", snap.Depth),
	)
	if c.hooks.OnSnapshot != nil {
		c.hooks.OnSnapshot(snap)
	}
}

func (c *Crawl) recordFailure(failure domain.FetchFailure) {
	c.failed.Add(1)
	c.mu.Lock()
	c.failures = append(c.failures, failure)
	c.mu.Unlock()

	c.deps.Metrics.ObserveFetch(string(failure.Reason), 0)
	c.log.Debug("Page failed",
		logger.String("url", failure.URL),
		logger.String("reason", string(failure.Reason)),
		logger.Int("attempts", failure.Attempts),
	)
	if c.hooks.OnFailure != nil {
		c.hooks.OnFailure(failure)
	}
}

func (c *Crawl) recordSkip(skip Skip) {
	c.skipped.Add(1)
	c.mu.Lock()
	c.skips = append(c.skips, skip)
	c.mu.Unlock()

	if c.hooks.OnSkip != nil {
		c.hooks.OnSkip(skip)
	}
}

func (c *Crawl) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}
