package fetcher

import "time"

const (
	defaultUserAgent      = "SEO-Audit-Bot/1.0"
	defaultRequestTimeout = 30 * time.Second
	defaultRetryDelay     = time.Second
	defaultMaxRetries     = 3
	defaultMaxRedirects   = 5
	defaultMaxBodyBytes   = 10 * 1024 * 1024
)

// Config holds fetcher configuration. MaxRetries counts retries after the
// first attempt, so a URL is requested at most MaxRetries+1 times.
type Config struct {
	UserAgent      string        `env:"AUDITOR_USER_AGENT"      yaml:"user_agent"`
	RequestTimeout time.Duration `env:"AUDITOR_REQUEST_TIMEOUT" yaml:"request_timeout"`
	MaxRetries     int           `env:"AUDITOR_MAX_RETRIES"     yaml:"max_retries"`
	RetryDelay     time.Duration `env:"AUDITOR_RETRY_DELAY"     yaml:"retry_delay"`
	MaxRedirects   int           `env:"AUDITOR_MAX_REDIRECTS"   yaml:"max_redirects"`
	MaxBodyBytes   int64         `env:"AUDITOR_MAX_BODY_BYTES"  yaml:"max_body_bytes"`
}

// WithDefaults returns a copy of the config with default values applied for
// zero-value fields. A negative MaxRetries disables retries.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = defaultMaxRedirects
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}
