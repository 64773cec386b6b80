package domain

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// RunState is the lifecycle state of an audit run.
type RunState string

const (
	RunDraft     RunState = "draft"
	RunQueued    RunState = "queued"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunCanceled  RunState = "canceled"
)

// IsValid returns true if the state is known.
func (s RunState) IsValid() bool {
	switch s {
	case RunDraft, RunQueued, RunRunning, RunCompleted, RunFailed, RunCanceled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further automatic transition follows s.
// A failed run may still be retried explicitly.
func (s RunState) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCanceled
}

// Audit configuration bounds.
const (
	MinMaxPages      = 1
	MaxMaxPages      = 10000
	MinCrawlDepth    = 1
	MaxCrawlDepth    = 10
	MaxCrawlDelaySec = 10

	DefaultMaxPages   = 100
	DefaultCrawlDepth = 3
	DefaultCrawlDelay = 1.0
	DefaultMaxRetries = 3
)

// ErrInvalidConfig is returned when an audit configuration is out of bounds.
var ErrInvalidConfig = errors.New("invalid audit configuration")

// AuditConfig is the per-run crawl configuration.
type AuditConfig struct {
	SeedURLs        []string `json:"seed_urls"          yaml:"seed_urls"`
	MaxPages        int      `json:"max_pages"          yaml:"max_pages"`
	CrawlDepth      int      `json:"crawl_depth"        yaml:"crawl_depth"`
	CrawlDelay      float64  `json:"crawl_delay"        yaml:"crawl_delay"`
	RespectRobots   bool     `json:"respect_robots_txt" yaml:"respect_robots_txt"`
	IncludeExternal bool     `json:"include_external"   yaml:"include_external"`
	IncludeImages   bool     `json:"include_images"     yaml:"include_images"`
	IncludeJS       bool     `json:"include_js"         yaml:"include_js"`
	IncludeCSS      bool     `json:"include_css"        yaml:"include_css"`
}

// DefaultAuditConfig returns the configuration used when a request omits values.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		MaxPages:      DefaultMaxPages,
		CrawlDepth:    DefaultCrawlDepth,
		CrawlDelay:    DefaultCrawlDelay,
		RespectRobots: true,
		IncludeImages: true,
		IncludeJS:     true,
		IncludeCSS:    true,
	}
}

// Delay returns the crawl delay as a duration.
func (c AuditConfig) Delay() time.Duration {
	return time.Duration(c.CrawlDelay * float64(time.Second))
}

// Validate checks the configuration against the supported bounds.
func (c AuditConfig) Validate() error {
	if len(c.SeedURLs) == 0 {
		return fmt.Errorf("%w: at least one seed URL is required", ErrInvalidConfig)
	}
	for _, seed := range c.SeedURLs {
		u, err := url.Parse(seed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: seed %q is not an absolute http(s) URL", ErrInvalidConfig, seed)
		}
	}
	if c.MaxPages < MinMaxPages || c.MaxPages > MaxMaxPages {
		return fmt.Errorf("%w: max_pages must be between %d and %d", ErrInvalidConfig, MinMaxPages, MaxMaxPages)
	}
	if c.CrawlDepth < MinCrawlDepth || c.CrawlDepth > MaxCrawlDepth {
		return fmt.Errorf("%w: crawl_depth must be between %d and %d", ErrInvalidConfig, MinCrawlDepth, MaxCrawlDepth)
	}
	if c.CrawlDelay < 0 || c.CrawlDelay > MaxCrawlDelaySec {
		return fmt.Errorf("%w: crawl_delay must be between 0 and %d seconds", ErrInvalidConfig, MaxCrawlDelaySec)
	}
	return nil
}

// AuditRun is the aggregate tracking one crawl and analysis execution.
type AuditRun struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	RequestedBy string      `json:"requested_by,omitempty"`
	Config      AuditConfig `json:"config"`
	State       RunState    `json:"state"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	PagesCrawled     int `json:"pages_crawled"`
	PagesAnalyzed    int `json:"pages_analyzed"`
	PagesFailed      int `json:"pages_failed"`
	TotalFindings    int `json:"total_findings"`
	CriticalFindings int `json:"critical_findings"`
	HighFindings     int `json:"high_findings"`
	MediumFindings   int `json:"medium_findings"`
	LowFindings      int `json:"low_findings"`
	InfoFindings     int `json:"info_findings"`

	OverallScore *float64 `json:"overall_score,omitempty"`
	RetryCount   int      `json:"retry_count"`
	MaxRetries   int      `json:"max_retries"`
	ErrorMessage *string  `json:"error_message,omitempty"`
}

// CanStart reports whether start is a valid operation in the current state.
func (r *AuditRun) CanStart() bool {
	return r.State == RunDraft || r.State == RunFailed
}

// CanCancel reports whether cancel is a valid operation in the current state.
func (r *AuditRun) CanCancel() bool {
	return r.State == RunQueued || r.State == RunRunning
}

// CanRetry reports whether an explicit retry is allowed.
func (r *AuditRun) CanRetry() bool {
	return r.State == RunFailed && r.RetryCount < r.MaxRetries
}

// CompletionPercent returns crawl progress relative to max_pages.
func (r *AuditRun) CompletionPercent() float64 {
	if r.Config.MaxPages <= 0 {
		return 0
	}
	return min(100, float64(r.PagesCrawled)/float64(r.Config.MaxPages)*100)
}

// AddFinding increments the run-level counters for one finding.
func (r *AuditRun) AddFinding(severity Severity) {
	r.TotalFindings++
	switch severity {
	case SeverityCritical:
		r.CriticalFindings++
	case SeverityHigh:
		r.HighFindings++
	case SeverityMedium:
		r.MediumFindings++
	case SeverityLow:
		r.LowFindings++
	case SeverityInfo:
		r.InfoFindings++
	}
}

// ResetProgress clears counters and results of a previous attempt.
func (r *AuditRun) ResetProgress() {
	r.PagesCrawled = 0
	r.PagesAnalyzed = 0
	r.PagesFailed = 0
	r.TotalFindings = 0
	r.CriticalFindings = 0
	r.HighFindings = 0
	r.MediumFindings = 0
	r.LowFindings = 0
	r.InfoFindings = 0
	r.OverallScore = nil
	r.ErrorMessage = nil
	r.StartedAt = nil
	r.FinishedAt = nil
}

// Status returns the progress view of the run.
func (r *AuditRun) Status() RunStatus {
	return RunStatus{
		ID:                r.ID,
		State:             r.State,
		PagesCrawled:      r.PagesCrawled,
		PagesAnalyzed:     r.PagesAnalyzed,
		CompletionPercent: r.CompletionPercent(),
		ErrorMessage:      r.ErrorMessage,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
	}
}

// RunStatus is the answer to a status query.
type RunStatus struct {
	ID                string     `json:"id"`
	State             RunState   `json:"state"`
	PagesCrawled      int        `json:"pages_crawled"`
	PagesAnalyzed     int        `json:"pages_analyzed"`
	CompletionPercent float64    `json:"completion_percentage"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}
