// Package robots answers whether a URL may be fetched under the origin's
// robots.txt rules, fetching each origin's file once per crawl.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/frontier"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

const (
	robotsTxtPath      = "/robots.txt"
	maxRobotsBodyBytes = 512 * 1024
	defaultTimeout     = 10 * time.Second
)

// Cache memoizes parsed robots.txt policies keyed by origin.
// Policies are never re-fetched for the lifetime of the Cache.
type Cache struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	log       logger.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ready    chan struct{}
	data     *robotstxt.RobotsData
	allowAll bool
}

// New creates a Cache. A zero timeout uses a ten second default.
func New(client *http.Client, userAgent string, timeout time.Duration, log logger.Logger) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Cache{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
		log:       logger.Component(log, "robots"),
		entries:   make(map[string]*entry),
	}
}

// Allowed reports whether the configured user agent may fetch rawURL.
func (c *Cache) Allowed(ctx context.Context, rawURL string) bool {
	return c.AllowedFor(ctx, rawURL, c.userAgent)
}

// AllowedFor reports whether agent may fetch rawURL. Unparseable URLs are
// never allowed; origins whose robots.txt cannot be retrieved always are.
func (c *Cache) AllowedFor(ctx context.Context, rawURL, agent string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	origin := frontier.OriginOf(u)
	if origin == "" {
		return false
	}

	e := c.entryFor(ctx, origin)
	if e.allowAll {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return e.data.TestAgent(path, agent)
}

// CrawlDelay returns the Crawl-delay the origin declares for the configured
// agent, or 0 if none is known yet.
func (c *Cache) CrawlDelay(origin string) time.Duration {
	c.mu.Lock()
	e, ok := c.entries[origin]
	c.mu.Unlock()
	if !ok {
		return 0
	}

	select {
	case <-e.ready:
	default:
		return 0
	}
	if e.allowAll || e.data == nil {
		return 0
	}
	group := e.data.FindGroup(c.userAgent)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}

// entryFor returns the cached entry for origin. The first caller performs
// the fetch while concurrent callers for the same origin wait on it.
func (c *Cache) entryFor(ctx context.Context, origin string) *entry {
	c.mu.Lock()
	e, ok := c.entries[origin]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		c.entries[origin] = e
	}
	c.mu.Unlock()

	if ok {
		select {
		case <-e.ready:
			return e
		case <-ctx.Done():
			return &entry{allowAll: true}
		}
	}

	c.load(ctx, origin, e)
	close(e.ready)
	return e
}

func (c *Cache) load(ctx context.Context, origin string, e *entry) {
	robotsURL := origin + robotsTxtPath

	body, status, err := c.fetch(ctx, robotsURL)
	switch {
	case err != nil:
		c.log.Warn("robots.txt unavailable, allowing all",
			logger.String("origin", origin),
			logger.Error(err),
		)
		e.allowAll = true
		return
	case status == http.StatusNotFound || status == http.StatusGone:
		e.allowAll = true
		return
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		c.log.Warn("robots.txt returned non-success status, allowing all",
			logger.String("origin", origin),
			logger.Int("status", status),
		)
		e.allowAll = true
		return
	}

	data, parseErr := robotstxt.FromBytes(body)
	if parseErr != nil {
		c.log.Warn("robots.txt unparseable, allowing all",
			logger.String("origin", origin),
			logger.Error(parseErr),
		)
		e.allowAll = true
		return
	}

	e.data = data
	c.log.Debug("robots.txt cached", logger.String("origin", origin))
}

func (c *Cache) fetch(ctx context.Context, robotsURL string) (body []byte, status int, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
