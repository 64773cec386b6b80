package fetcher_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

const (
	testUserAgent  = "TestAuditBot/1.0"
	testRetryDelay = 10 * time.Millisecond
	testHTML       = "<html><head><title>Hello</title></head><body>hi</body></html>"
)

func newTestFetcher(t *testing.T, mutate func(*fetcher.Config)) *fetcher.Fetcher {
	t.Helper()

	cfg := fetcher.Config{
		UserAgent:      testUserAgent,
		RequestTimeout: time.Second,
		MaxRetries:     2,
		RetryDelay:     testRetryDelay,
		MaxRedirects:   3,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return fetcher.New(cfg, nil, logger.NewNop())
}

func requireFetchError(t *testing.T, err error) *fetcher.Error {
	t.Helper()

	var fe *fetcher.Error
	require.ErrorAs(t, err, &fe)
	return fe
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testHTML))
	}))
	defer server.Close()

	resp, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, server.URL+"/", resp.FinalURL)
	assert.Equal(t, testHTML, string(resp.Body))
	assert.Equal(t, int64(len(testHTML)), resp.ContentLength)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, 1, resp.Attempts)
	assert.Empty(t, resp.RedirectChain)
	assert.Positive(t, resp.Latency)
	assert.Equal(t, testUserAgent, gotUA)
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetch_FollowsRedirectsManually(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/middle", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/middle", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testHTML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL+"/old")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/new", resp.FinalURL)
	assert.Equal(t, []string{server.URL + "/old", server.URL + "/middle"}, resp.RedirectChain)
}

func TestFetch_HopCheckBlocksRedirect(t *testing.T) {
	t.Parallel()

	var privateHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/go", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/private/secret", http.StatusFound)
	})
	mux.HandleFunc("/private/secret", func(w http.ResponseWriter, _ *http.Request) {
		privateHits.Add(1)
		_, _ = w.Write([]byte(testHTML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	errDisallowed := errors.New("disallowed")
	var checked []string
	check := func(_ context.Context, target string) error {
		checked = append(checked, target)
		if strings.Contains(target, "/private/") {
			return errDisallowed
		}
		return nil
	}

	_, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL+"/go", check)
	fe := requireFetchError(t, err)

	assert.Equal(t, domain.FailureRedirectBlocked, fe.Reason)
	assert.Equal(t, server.URL+"/go", fe.URL)
	assert.ErrorIs(t, err, fetcher.ErrRedirectBlocked)
	assert.ErrorIs(t, err, errDisallowed)
	assert.Equal(t, 1, fe.Attempts, "blocked redirects are not retried")
	assert.Equal(t, []string{server.URL + "/private/secret"}, checked)
	assert.Zero(t, privateHits.Load())
}

func TestFetch_HopCheckAllowsRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testHTML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	var calls atomic.Int32
	allow := func(context.Context, string) error {
		calls.Add(1)
		return nil
	}

	resp, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL+"/old", allow)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/new", resp.FinalURL)
	assert.Equal(t, int32(1), calls.Load(), "the starting URL is not a hop")
}

func TestFetch_TooManyRedirects(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL+"/loop")
	fe := requireFetchError(t, err)

	assert.Equal(t, domain.FailureTooManyRedirects, fe.Reason)
	assert.ErrorIs(t, err, fetcher.ErrTooManyRedirects)
	assert.Equal(t, 1, fe.Attempts, "redirect loops are not retried")
	assert.Equal(t, int32(4), hits.Load())
}

func TestFetch_NonSuccessStatusNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL+"/")
	fe := requireFetchError(t, err)

	assert.Equal(t, domain.FailureHTTPStatus, fe.Reason)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, int32(1), hits.Load())

	failure := fe.Failure(2)
	assert.Equal(t, 2, failure.Depth)
	assert.Equal(t, 1, failure.Attempts)
	assert.Equal(t, http.StatusServiceUnavailable, failure.StatusCode)
}

func TestFetch_RetriesTimeoutThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(testHTML))
	}))
	defer server.Close()

	f := newTestFetcher(t, func(c *fetcher.Config) { c.RequestTimeout = 50 * time.Millisecond })

	resp, err := f.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Attempts)
}

func TestFetch_TimeoutExhaustsRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	f := newTestFetcher(t, func(c *fetcher.Config) { c.RequestTimeout = 30 * time.Millisecond })

	_, err := f.Fetch(context.Background(), server.URL+"/")
	fe := requireFetchError(t, err)

	assert.Equal(t, domain.FailureTimeout, fe.Reason)
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetch_ConnectionRefusedExhaustsRetries(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = newTestFetcher(t, nil).Fetch(context.Background(), "http://"+addr+"/")
	fe := requireFetchError(t, err)

	assert.Equal(t, domain.FailureMaxRetries, fe.Reason)
	assert.Equal(t, 3, fe.Attempts)
}

func TestFetch_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := newTestFetcher(t, nil).Fetch(context.Background(), "mailto:someone@example.com")
	fe := requireFetchError(t, err)
	assert.Equal(t, domain.FailureInvalidURL, fe.Reason)
}

func TestFetch_BodyLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testHTML))
	}))
	defer server.Close()

	f := newTestFetcher(t, func(c *fetcher.Config) { c.MaxBodyBytes = 6 })

	resp, err := f.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(resp.Body))
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, fetcher.IsTransient(context.DeadlineExceeded))
	assert.True(t, fetcher.IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.False(t, fetcher.IsTransient(context.Canceled))
	assert.False(t, fetcher.IsTransient(fetcher.ErrTooManyRedirects))
	assert.False(t, fetcher.IsTransient(errors.New("malformed HTTP response")))
	assert.False(t, fetcher.IsTransient(nil))
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := fetcher.Config{}.WithDefaults()
	assert.Equal(t, "SEO-Audit-Bot/1.0", cfg.UserAgent)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 5, cfg.MaxRedirects)

	noRetry := fetcher.Config{MaxRetries: -1}.WithDefaults()
	assert.Zero(t, noRetry.MaxRetries)
}
