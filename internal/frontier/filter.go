package frontier

import (
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// DefaultSkipExtensions lists non-HTML document types that are never enqueued.
var DefaultSkipExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip", ".rar"}

// SkipReason explains why a discovered link was not enqueued.
type SkipReason string

const (
	SkipNotHTTP   SkipReason = "not-http"
	SkipExternal  SkipReason = "external"
	SkipFragment  SkipReason = "fragment"
	SkipQuery     SkipReason = "query"
	SkipExtension SkipReason = "extension"
)

// Filter selects which links of a page become crawl candidates.
type Filter struct {
	IncludeExternal bool
	SkipExtensions  []string
}

// NewFilter creates a filter with the default extension list.
func NewFilter(includeExternal bool) Filter {
	return Filter{IncludeExternal: includeExternal, SkipExtensions: DefaultSkipExtensions}
}

// Candidates returns the de-duplicated link URLs of snap that pass the
// filter, in document order.
func (f Filter) Candidates(snap *domain.PageSnapshot) []string {
	out, _ := f.Partition(snap)
	return out
}

// Partition is Candidates plus a count of rejected links per reason.
func (f Filter) Partition(snap *domain.PageSnapshot) (candidates []string, skipped map[SkipReason]int) {
	pageOrigin := Origin(snap.FinalURL)
	if pageOrigin == "" {
		pageOrigin = Origin(snap.URL)
	}

	skipped = make(map[SkipReason]int)
	seen := make(map[string]struct{}, len(snap.Links))
	for _, link := range snap.Links {
		if reason, ok := f.Check(link.URL, pageOrigin); !ok {
			skipped[reason]++
			continue
		}
		if _, dup := seen[link.URL]; dup {
			continue
		}
		seen[link.URL] = struct{}{}
		candidates = append(candidates, link.URL)
	}
	return candidates, skipped
}

// Check reports whether rawURL may be enqueued from a page on pageOrigin.
func (f Filter) Check(rawURL, pageOrigin string) (SkipReason, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return SkipNotHTTP, false
	}
	if !f.IncludeExternal && Origin(rawURL) != pageOrigin {
		return SkipExternal, false
	}
	if u.Fragment != "" || strings.HasSuffix(rawURL, "#") {
		return SkipFragment, false
	}
	if u.RawQuery != "" || u.ForceQuery {
		return SkipQuery, false
	}

	p := strings.ToLower(u.Path)
	for _, ext := range f.SkipExtensions {
		if strings.HasSuffix(p, ext) {
			return SkipExtension, false
		}
	}
	return "", true
}

// Origin returns scheme://host[:port] with the scheme's default port
// removed, or "" when rawURL has no scheme or host.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return OriginOf(u)
}

// OriginOf is Origin for an already parsed URL.
func OriginOf(u *url.URL) string {
	host := hostOf(u)
	if host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + host
}

// Host returns the lowercase host[:port] of rawURL, dropping the scheme's
// default port, so http and https URLs of one site share a host.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return hostOf(u)
}

func hostOf(u *url.URL) string {
	if u.Scheme == "" || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && defaultPorts[strings.ToLower(u.Scheme)] != port {
		host += ":" + port
	}
	return host
}
