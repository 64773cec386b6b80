package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/analysis"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/audit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/config"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/crawler"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/database"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/metrics"
)

// commandDeps holds the wired services shared by the commands.
type commandDeps struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Service  *audit.Service

	db *sqlx.DB
}

// newCommandDeps creates the logger, metrics, storage and audit service
// described by cfg. transport may be nil for the default HTTP transport.
func newCommandDeps(cfg *config.Config, transport http.RoundTripper) (*commandDeps, error) {
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	deps := &commandDeps{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Metrics:  m,
	}

	repo, err := deps.repository()
	if err != nil {
		return nil, err
	}

	f := fetcher.New(cfg.Crawler.Fetch, transport, log)
	builder := &crawler.Builder{
		Fetcher:       f,
		RobotsClient:  &http.Client{Transport: transport, Timeout: cfg.Crawler.RobotsTimeout},
		RobotsTimeout: cfg.Crawler.RobotsTimeout,
		Concurrency:   cfg.Crawler.Concurrency,
		Dedup:         cfg.Crawler.Dedup,
		Metrics:       m,
		Logger:        log,
	}
	engine := analysis.NewEngine(log, m, analysis.DefaultChecks()...)

	deps.Service = audit.NewService(cfg.Audit.Service(), repo, audit.NewCrawlStarter(builder), engine, log, m)
	return deps, nil
}

// repository returns the run store selected by the storage setting.
func (d *commandDeps) repository() (audit.Repository, error) {
	if d.Config.Storage != config.StorageDatabase {
		return audit.NewMemoryRepository(), nil
	}

	db, err := database.Connect(d.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	d.db = db
	d.Logger.Info("Connected to database", logger.String("driver", d.Config.Database.WithDefaults().Driver))
	return database.NewAuditRepository(db), nil
}

// MetricsHandler serves the registry in the Prometheus exposition format.
func (d *commandDeps) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry})
}

// Close releases the database and flushes the logger.
func (d *commandDeps) Close() error {
	var errs []error
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	// Sync reports EINVAL for stderr and terminals.
	_ = d.Logger.Sync()
	return errors.Join(errs...)
}
