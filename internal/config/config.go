package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/audit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/database"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/frontier"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

// Storage backends for audit runs.
const (
	StorageMemory   = "memory"
	StorageDatabase = "database"
)

const (
	defaultRobotsTimeout = 10 * time.Second
	defaultConcurrency   = 4
	defaultPort          = 8080
	defaultMetricsPath   = "/metrics"
)

// Config is the root configuration of the site auditor.
type Config struct {
	Storage  string          `env:"AUDITOR_STORAGE" yaml:"storage"`
	Crawler  CrawlerConfig   `yaml:"crawler"`
	Audit    AuditConfig     `yaml:"audit"`
	Database database.Config `yaml:"database"`
	Server   ServerConfig    `yaml:"server"`
	Logging  logger.Config   `yaml:"logging"`
	Metrics  MetricsConfig   `yaml:"metrics"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	if c.Storage == "" {
		c.Storage = StorageMemory
	}
	c.Crawler.SetDefaults()
	c.Audit.SetDefaults()
	c.Database = c.Database.WithDefaults()
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
}

// CrawlerConfig configures fetching and crawl concurrency. Fetch settings
// are inlined so they appear directly under `crawler:` in YAML.
type CrawlerConfig struct {
	Fetch         fetcher.Config `yaml:",inline"`
	RobotsTimeout time.Duration  `env:"AUDITOR_ROBOTS_TIMEOUT" yaml:"robots_timeout"`
	Concurrency   int            `env:"AUDITOR_CONCURRENCY"    yaml:"concurrency"`
	Dedup         string         `env:"AUDITOR_DEDUP"          yaml:"dedup"`
}

// SetDefaults applies default values for CrawlerConfig.
func (c *CrawlerConfig) SetDefaults() {
	c.Fetch = c.Fetch.WithDefaults()
	if c.RobotsTimeout <= 0 {
		c.RobotsTimeout = defaultRobotsTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Dedup == "" {
		c.Dedup = frontier.DedupExact
	}
}

// AuditConfig holds the defaults for new audit runs and the run lifecycle
// limits.
type AuditConfig struct {
	MaxPages        int           `env:"AUDITOR_MAX_PAGES"        yaml:"max_pages"`
	CrawlDepth      int           `env:"AUDITOR_CRAWL_DEPTH"      yaml:"crawl_depth"`
	CrawlDelay      time.Duration `env:"AUDITOR_CRAWL_DELAY"      yaml:"crawl_delay"`
	IgnoreRobots    bool          `env:"AUDITOR_IGNORE_ROBOTS"    yaml:"ignore_robots"`
	IncludeExternal bool          `env:"AUDITOR_INCLUDE_EXTERNAL" yaml:"include_external"`

	MaxRetries int           `env:"AUDIT_MAX_RETRIES" yaml:"max_retries"`
	Timeout    time.Duration `env:"AUDIT_TIMEOUT"     yaml:"timeout"`
}

// SetDefaults applies default values for AuditConfig.
func (c *AuditConfig) SetDefaults() {
	if c.MaxPages == 0 {
		c.MaxPages = domain.DefaultMaxPages
	}
	if c.CrawlDepth == 0 {
		c.CrawlDepth = domain.DefaultCrawlDepth
	}
	if c.CrawlDelay == 0 {
		c.CrawlDelay = time.Duration(domain.DefaultCrawlDelay * float64(time.Second))
	}
	svc := audit.Config{MaxRetries: c.MaxRetries, Timeout: c.Timeout}.WithDefaults()
	c.MaxRetries, c.Timeout = svc.MaxRetries, svc.Timeout
}

// RunDefaults returns the per-run configuration new audits start from.
// A negative crawl delay disables the delay.
func (c AuditConfig) RunDefaults(seeds ...string) domain.AuditConfig {
	cfg := domain.DefaultAuditConfig()
	cfg.SeedURLs = seeds
	cfg.MaxPages = c.MaxPages
	cfg.CrawlDepth = c.CrawlDepth
	cfg.CrawlDelay = max(c.CrawlDelay, 0).Seconds()
	cfg.RespectRobots = !c.IgnoreRobots
	cfg.IncludeExternal = c.IncludeExternal
	return cfg
}

// Service returns the run lifecycle settings.
func (c AuditConfig) Service() audit.Config {
	return audit.Config{MaxRetries: c.MaxRetries, Timeout: c.Timeout}
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"AUDITOR_HOST"          yaml:"host"`
	Port            int           `env:"AUDITOR_PORT"          yaml:"port"`
	ReadTimeout     time.Duration `env:"AUDITOR_READ_TIMEOUT"  yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"AUDITOR_WRITE_TIMEOUT" yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SetDefaults applies default values for ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"AUDITOR_METRICS_ENABLED" yaml:"enabled"`
	Path    string `env:"AUDITOR_METRICS_PATH"    yaml:"path"`
}

// SetDefaults applies default values for MetricsConfig.
func (c *MetricsConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = defaultMetricsPath
	}
}

// LoadConfig reads path (may be empty), applies defaults and validates.
func LoadConfig(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path, (*Config).SetDefaults)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
