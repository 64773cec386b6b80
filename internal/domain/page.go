// Package domain provides the data model shared by the crawler, the analysis
// engine and the audit run state machine.
package domain

import "time"

// CrawlTarget is a URL discovered for crawling together with its distance
// from the seed that led to it.
type CrawlTarget struct {
	URL       string  `json:"url"`
	Depth     int     `json:"depth"`
	ParentURL *string `json:"parent_url,omitempty"`
}

// LinkType classifies a link relative to the page it was found on.
type LinkType string

const (
	LinkInternal LinkType = "internal"
	LinkExternal LinkType = "external"
)

// Image describes an <img> element. Alt is nil when the attribute is
// absent and points to "" when it is present but empty.
type Image struct {
	Src    string  `json:"src"`
	Alt    *string `json:"alt,omitempty"`
	Title  string  `json:"title,omitempty"`
	Width  string  `json:"width,omitempty"`
	Height string  `json:"height,omitempty"`
}

// HasAlt reports whether the image carries a non-blank alt attribute.
func (i Image) HasAlt() bool {
	return i.Alt != nil && *i.Alt != ""
}

// Link describes an <a href> element resolved to an absolute URL.
type Link struct {
	URL   string   `json:"url"`
	Text  string   `json:"text,omitempty"`
	Title string   `json:"title,omitempty"`
	Rel   string   `json:"rel,omitempty"`
	Type  LinkType `json:"type"`
}

// Script describes a <script> element.
type Script struct {
	Src   string `json:"src,omitempty"`
	Type  string `json:"type,omitempty"`
	Async bool   `json:"async"`
	Defer bool   `json:"defer"`
}

// Stylesheet describes a <link rel="stylesheet"> element.
type Stylesheet struct {
	Href  string `json:"href"`
	Media string `json:"media,omitempty"`
	Type  string `json:"type,omitempty"`
}

// PageSnapshot is the immutable result of fetching and parsing one URL.
type PageSnapshot struct {
	URL           string        `json:"url"`
	FinalURL      string        `json:"final_url"`
	Depth         int           `json:"depth"`
	StatusCode    int           `json:"status_code"`
	ResponseTime  time.Duration `json:"response_time"`
	ContentLength int64         `json:"content_length"`
	ContentType   string        `json:"content_type"`

	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
	MetaRobots      string `json:"meta_robots"`
	Viewport        string `json:"viewport"`
	CanonicalURL    string `json:"canonical_url"`
	Language        string `json:"language"`

	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`

	Images      []Image      `json:"images"`
	Links       []Link       `json:"links"`
	Scripts     []Script     `json:"scripts"`
	Stylesheets []Stylesheet `json:"stylesheets"`

	WordCount   int `json:"word_count"`
	ReadingTime int `json:"reading_time"`

	RedirectChain []string  `json:"redirect_chain"`
	CrawledAt     time.Time `json:"crawled_at"`
}

// ResponseTimeMillis returns the response latency in milliseconds.
func (p *PageSnapshot) ResponseTimeMillis() float64 {
	return float64(p.ResponseTime) / float64(time.Millisecond)
}

// FailureReason classifies why a URL could not be turned into a snapshot.
type FailureReason string

const (
	FailureTimeout            FailureReason = "timeout"
	FailureMaxRetries         FailureReason = "max-retries-exceeded"
	FailureHTTPStatus         FailureReason = "http-status"
	FailureRobotsDisallowed   FailureReason = "robots-disallowed"
	FailureConnection         FailureReason = "connection-error"
	FailureTooManyRedirects   FailureReason = "too-many-redirects"
	FailureRedirectBlocked    FailureReason = "redirect-blocked"
	FailureParse              FailureReason = "parse-error"
	FailureInvalidURL         FailureReason = "invalid-url"
	FailureResponseTooLarge   FailureReason = "response-too-large"
	FailureUnsupportedContent FailureReason = "unsupported-content"
)

// FetchFailure records a URL that ended without a snapshot.
type FetchFailure struct {
	URL        string        `json:"url"`
	Depth      int           `json:"depth"`
	Reason     FailureReason `json:"reason"`
	StatusCode int           `json:"status_code,omitempty"`
	Attempts   int           `json:"attempts"`
	Message    string        `json:"message,omitempty"`
}
