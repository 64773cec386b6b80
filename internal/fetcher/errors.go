package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// ErrTooManyRedirects is returned when the redirect hop limit is exceeded.
var ErrTooManyRedirects = errors.New("too many redirects")

// ErrRedirectBlocked is returned when a HopCheck rejects a redirect target.
var ErrRedirectBlocked = errors.New("redirect target blocked")

// errStatus marks a terminal non-2xx response.
var errStatus = errors.New("unexpected status")

// Error describes why a fetch produced no usable response.
type Error struct {
	URL        string
	Reason     domain.FailureReason
	StatusCode int
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.URL, e.Reason, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Failure converts the error into the FetchFailure record for a crawl target.
func (e *Error) Failure(depth int) domain.FetchFailure {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return domain.FetchFailure{
		URL:        e.URL,
		Depth:      depth,
		Reason:     e.Reason,
		StatusCode: e.StatusCode,
		Attempts:   e.Attempts,
		Message:    msg,
	}
}

// transientPatterns catches wrapped network errors that lost their type.
var transientPatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"temporary failure",
	"network is unreachable",
	"server closed idle connection",
}

// IsTransient reports whether err is worth retrying: timeouts, refused or
// reset connections and truncated responses. Cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTooManyRedirects) || errors.Is(err, ErrRedirectBlocked) || errors.Is(err, errStatus) {
		return false
	}
	if isTimeout(err) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
