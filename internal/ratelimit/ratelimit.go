// Package ratelimit spaces requests to the same origin by a minimum delay
// while leaving different origins independent.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// Limiter holds one token bucket per origin. Each bucket has a burst of one
// and refills once per delay, so two admissions for the same origin are
// never closer than the delay.
type Limiter struct {
	delay time.Duration

	mu      sync.Mutex
	origins map[string]*originLimiter
}

type originLimiter struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// New creates a Limiter. A delay of zero admits every request immediately.
func New(delay time.Duration) *Limiter {
	if delay < 0 {
		delay = 0
	}
	return &Limiter{
		delay:   delay,
		origins: make(map[string]*originLimiter),
	}
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

func (l *Limiter) get(origin string) *originLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	ol, ok := l.origins[origin]
	if !ok {
		ol = &originLimiter{
			limiter: rate.NewLimiter(limitFor(l.delay), 1),
			delay:   l.delay,
		}
		l.origins[origin] = ol
	}
	return ol
}

// WaitTurn blocks until a request to origin may start. It returns the
// context error if ctx ends first, in which case no turn is consumed.
func (l *Limiter) WaitTurn(ctx context.Context, origin string) error {
	if err := l.get(origin).limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", origin, err)
	}
	return nil
}

// MaxDelay caps the spacing Raise accepts, whatever a robots.txt
// Crawl-delay asks for.
const MaxDelay = domain.MaxCrawlDelaySec * time.Second

// Raise increases the spacing for origin to delay, capped at MaxDelay. It
// never lowers it.
func (l *Limiter) Raise(origin string, delay time.Duration) {
	delay = min(delay, MaxDelay)
	ol := l.get(origin)

	l.mu.Lock()
	defer l.mu.Unlock()

	if delay <= ol.delay {
		return
	}
	ol.delay = delay
	ol.limiter.SetLimit(limitFor(delay))
}

// Delay returns the current spacing for origin.
func (l *Limiter) Delay(origin string) time.Duration {
	ol := l.get(origin)

	l.mu.Lock()
	defer l.mu.Unlock()
	return ol.delay
}
