// Package fetcher performs single-URL HTTP GETs for the crawler. Redirects
// are followed manually so every hop is recorded, and transient failures
// are retried with a fixed backoff.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

const (
	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguageHeader = "en-US,en;q=0.5"
	drainLimit           = 64 * 1024
)

// Response is a successful (2xx) fetch result.
type Response struct {
	RequestURL    string
	FinalURL      string
	StatusCode    int
	Header        http.Header
	ContentType   string
	Body          []byte
	ContentLength int64
	Latency       time.Duration
	RedirectChain []string
	Attempts      int
	FetchedAt     time.Time
}

// HopCheck vets a redirect target before it is requested. A non-nil error
// ends the fetch; the error is kept in the chain of the returned *Error.
type HopCheck func(ctx context.Context, target string) error

// Fetcher issues GET requests with manual redirect handling and retries.
type Fetcher struct {
	client *http.Client
	cfg    Config
	log    logger.Logger
}

// New creates a Fetcher. The client's own redirect following is disabled.
func New(cfg Config, transport http.RoundTripper, log logger.Logger) *Fetcher {
	cfg = cfg.WithDefaults()
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cfg: cfg,
		log: logger.Component(log, "fetcher"),
	}
}

// UserAgent returns the User-Agent header sent with every request.
func (f *Fetcher) UserAgent() string {
	return f.cfg.UserAgent
}

// Fetch retrieves rawURL. Every redirect target must pass all checks before
// it is requested. Any failure is returned as *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, checks ...HopCheck) (*Response, error) {
	if _, err := parseHTTPURL(rawURL); err != nil {
		return nil, &Error{URL: rawURL, Reason: domain.FailureInvalidURL, Err: err}
	}

	var (
		resp     *Response
		attempts int
	)
	operation := func() error {
		attempts++
		r, err := f.attempt(ctx, rawURL, checks)
		if err == nil {
			resp = r
			return nil
		}
		if ctx.Err() != nil || !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		f.log.Debug("Retrying fetch",
			logger.String("url", rawURL),
			logger.Int("attempt", attempts),
			logger.Duration("backoff", wait),
			logger.Error(err),
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.cfg.RetryDelay), uint64(f.cfg.MaxRetries)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, f.classify(ctx, rawURL, attempts, err)
	}

	resp.Attempts = attempts
	return resp, nil
}

// attempt follows the redirect chain from rawURL once.
func (f *Fetcher) attempt(ctx context.Context, rawURL string, checks []HopCheck) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	current := rawURL
	var chain []string

	for {
		httpResp, err := f.get(ctx, current)
		if err != nil {
			return nil, err
		}

		if isRedirect(httpResp.StatusCode) {
			location := httpResp.Header.Get("Location")
			drainAndClose(httpResp.Body)
			if location == "" {
				return nil, &statusError{code: httpResp.StatusCode}
			}

			next, resolveErr := resolve(current, location)
			if resolveErr != nil {
				return nil, fmt.Errorf("redirect from %s: %w", current, resolveErr)
			}

			chain = append(chain, current)
			if len(chain) > f.cfg.MaxRedirects {
				return nil, fmt.Errorf("%w: more than %d hops", ErrTooManyRedirects, f.cfg.MaxRedirects)
			}
			for _, check := range checks {
				if checkErr := check(ctx, next); checkErr != nil {
					return nil, fmt.Errorf("%w: %s: %w", ErrRedirectBlocked, next, checkErr)
				}
			}
			current = next
			continue
		}

		if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
			drainAndClose(httpResp.Body)
			return nil, &statusError{code: httpResp.StatusCode}
		}

		body, readErr := io.ReadAll(io.LimitReader(httpResp.Body, f.cfg.MaxBodyBytes))
		httpResp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read body: %w", readErr)
		}

		length := httpResp.ContentLength
		if length < 0 {
			length = int64(len(body))
		}

		return &Response{
			RequestURL:    rawURL,
			FinalURL:      current,
			StatusCode:    httpResp.StatusCode,
			Header:        httpResp.Header,
			ContentType:   httpResp.Header.Get("Content-Type"),
			Body:          body,
			ContentLength: length,
			Latency:       time.Since(start),
			RedirectChain: chain,
			FetchedAt:     start,
		}, nil
	}
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguageHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	return resp, nil
}

// classify maps the terminal error of a fetch onto a failure reason.
func (f *Fetcher) classify(ctx context.Context, rawURL string, attempts int, err error) *Error {
	fe := &Error{URL: rawURL, Attempts: attempts, Err: err}

	var se *statusError
	switch {
	case errors.As(err, &se):
		fe.Reason = domain.FailureHTTPStatus
		fe.StatusCode = se.code
	case errors.Is(err, ErrTooManyRedirects):
		fe.Reason = domain.FailureTooManyRedirects
	case errors.Is(err, ErrRedirectBlocked):
		fe.Reason = domain.FailureRedirectBlocked
	case ctx.Err() != nil:
		fe.Reason = domain.FailureTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			fe.Reason = domain.FailureConnection
		}
	case isTimeout(err):
		fe.Reason = domain.FailureTimeout
	case IsTransient(err) && attempts > f.cfg.MaxRetries && f.cfg.MaxRetries > 0:
		fe.Reason = domain.FailureMaxRetries
	default:
		fe.Reason = domain.FailureConnection
	}
	return fe
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v %d %s", errStatus, e.code, http.StatusText(e.code))
}

func (e *statusError) Unwrap() error {
	return errStatus
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

func resolve(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	next := baseURL.ResolveReference(refURL)
	if next.Scheme != "http" && next.Scheme != "https" {
		return "", fmt.Errorf("unsupported redirect scheme %q", next.Scheme)
	}
	return next.String(), nil
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("not an absolute http(s) url: %q", rawURL)
	}
	return u, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, drainLimit))
	_ = body.Close()
}
