// Package audit owns the lifecycle of audit runs: it validates state
// transitions, drives the crawl and analysis phases in the background and
// records progress and results through a Repository.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/analysis"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/crawler"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/metrics"
)

const (
	defaultTimeout   = time.Hour
	persistTimeout   = 30 * time.Second
	msgNoReachable   = "no reachable seed"
	msgTimeoutFormat = "audit timed out after %s"
)

// Config controls run execution.
type Config struct {
	MaxRetries int           `env:"AUDIT_MAX_RETRIES" yaml:"max_retries"`
	Timeout    time.Duration `env:"AUDIT_TIMEOUT"     yaml:"timeout"`
}

// WithDefaults fills zero values. A negative MaxRetries disables retries.
func (c Config) WithDefaults() Config {
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = domain.DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Service manages audit runs.
type Service struct {
	cfg      Config
	repo     Repository
	crawls   CrawlStarter
	analyzer Analyzer
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu     sync.Mutex
	active map[string]*activeRun
}

// activeRun is the in-process state of a queued or running audit.
type activeRun struct {
	crawl    CrawlHandle
	cancel   context.CancelFunc
	done     chan struct{}
	canceled atomic.Bool

	mu  sync.Mutex
	run *domain.AuditRun
}

func (a *activeRun) snapshot() domain.AuditRun {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneRun(a.run)
}

func (a *activeRun) update(fn func(run *domain.AuditRun)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.run)
}

// NewService creates a Service.
func NewService(
	cfg Config,
	repo Repository,
	crawls CrawlStarter,
	analyzer Analyzer,
	log logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cfg:      cfg.WithDefaults(),
		repo:     repo,
		crawls:   crawls,
		analyzer: analyzer,
		log:      logger.Component(log, "audit"),
		metrics:  m,
		now:      time.Now,
		active:   make(map[string]*activeRun),
	}
}

// Create stores a new run in the draft state.
func (s *Service) Create(
	ctx context.Context,
	name, description, requestedBy string,
	cfg domain.AuditConfig,
) (*domain.AuditRun, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	run := &domain.AuditRun{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		RequestedBy: requestedBy,
		Config:      cfg,
		State:       domain.RunDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
		MaxRetries:  s.cfg.MaxRetries,
	}
	if run.Name == "" {
		run.Name = "Audit of " + cfg.SeedURLs[0]
	}
	if err := s.repo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create audit run: %w", err)
	}

	s.log.Info("Audit run created", logger.String("run_id", run.ID), logger.Strings("seeds", cfg.SeedURLs))
	return run, nil
}

// Get returns the current view of a run, including live progress.
func (s *Service) Get(ctx context.Context, id string) (*domain.AuditRun, error) {
	if ar := s.lookup(id); ar != nil {
		run := ar.snapshot()
		return &run, nil
	}
	return s.repo.Get(ctx, id)
}

// List returns stored runs newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.AuditRun, error) {
	runs, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit runs: %w", err)
	}
	for i, run := range runs {
		if ar := s.lookup(run.ID); ar != nil {
			live := ar.snapshot()
			runs[i] = &live
		}
	}
	return runs, nil
}

// Start launches a draft run. Starting a failed run is a retry.
func (s *Service) Start(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.active[id]; busy {
		return fmt.Errorf("%w: run %s is already active", ErrInvalidTransition, id)
	}
	run, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	switch run.State {
	case domain.RunDraft:
		return s.launchLocked(ctx, run)
	case domain.RunFailed:
		return s.retryLocked(ctx, run)
	default:
		return fmt.Errorf("%w: cannot start run in state %s", ErrInvalidTransition, run.State)
	}
}

// Retry relaunches a failed run while retries remain.
func (s *Service) Retry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.active[id]; busy {
		return fmt.Errorf("%w: run %s is already active", ErrInvalidTransition, id)
	}
	run, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.retryLocked(ctx, run)
}

func (s *Service) retryLocked(ctx context.Context, run *domain.AuditRun) error {
	if run.State != domain.RunFailed {
		return fmt.Errorf("%w: cannot retry run in state %s", ErrInvalidTransition, run.State)
	}
	if !run.CanRetry() {
		return fmt.Errorf("%w: %d of %d retries used", ErrRetriesExhausted, run.RetryCount, run.MaxRetries)
	}

	run.RetryCount++
	run.ResetProgress()
	s.log.Info("Retrying audit run",
		logger.String("run_id", run.ID),
		logger.Int("retry", run.RetryCount),
		logger.Int("max_retries", run.MaxRetries),
	)
	return s.launchLocked(ctx, run)
}

// launchLocked queues run, starts its crawl and hands it to a background
// goroutine. s.mu must be held.
func (s *Service) launchLocked(ctx context.Context, run *domain.AuditRun) error {
	if err := s.transition(run, domain.RunQueued); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, run); err != nil {
		return fmt.Errorf("queue audit run: %w", err)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	ar := &activeRun{cancel: cancel, done: make(chan struct{}), run: run}

	hooks := crawler.Hooks{
		OnSnapshot: func(*domain.PageSnapshot) {
			ar.update(func(r *domain.AuditRun) { r.PagesCrawled++ })
		},
		OnFailure: func(domain.FetchFailure) {
			ar.update(func(r *domain.AuditRun) { r.PagesFailed++ })
		},
	}

	crawl, err := s.crawls.StartCrawl(runCtx, run.Config, hooks)
	if err != nil {
		cancel()
		msg := "start crawl: " + err.Error()
		run.ErrorMessage = &msg
		if tErr := s.transition(run, domain.RunFailed); tErr == nil {
			s.persist(run)
		}
		return fmt.Errorf("start crawl for run %s: %w", run.ID, err)
	}
	ar.crawl = crawl

	ar.update(func(r *domain.AuditRun) {
		if err = s.transition(r, domain.RunRunning); err == nil {
			s.persist(r)
		}
	})
	if err != nil {
		crawl.Cancel()
		cancel()
		return err
	}
	s.active[run.ID] = ar

	s.log.Info("Audit run started", logger.String("run_id", run.ID), logger.Int("retry", run.RetryCount))
	go s.execute(runCtx, ar)
	return nil
}

// Cancel stops a queued or running audit. In-flight fetches finish but no
// further pages are started and analysis is skipped. Pages and failures
// gathered so far are kept as the run's results.
func (s *Service) Cancel(ctx context.Context, id string) error {
	if ar := s.lookup(id); ar != nil {
		var err error
		ar.update(func(r *domain.AuditRun) {
			if err = s.transition(r, domain.RunCanceled); err != nil {
				return
			}
			s.persist(r)
			ar.canceled.Store(true)
		})
		if err != nil {
			return err
		}
		ar.crawl.Cancel()
		s.log.Info("Audit run canceled", logger.String("run_id", id))
		return nil
	}

	run, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err = s.transition(run, domain.RunCanceled); err != nil {
		return err
	}
	if err = s.repo.Update(ctx, run); err != nil {
		return fmt.Errorf("cancel audit run: %w", err)
	}
	return nil
}

// Status returns progress for a run.
func (s *Service) Status(ctx context.Context, id string) (*domain.RunStatus, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	status := run.Status()
	return &status, nil
}

// Wait blocks until the run leaves the active set or ctx ends, then
// returns its stored state.
func (s *Service) Wait(ctx context.Context, id string) (*domain.AuditRun, error) {
	if ar := s.lookup(id); ar != nil {
		select {
		case <-ar.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.repo.Get(ctx, id)
}

// Results returns the stored pages, findings and failures of a run.
func (s *Service) Results(ctx context.Context, id string) (*Results, error) {
	return s.repo.Results(ctx, id)
}

// Shutdown cancels every active run and waits for them to stop.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.Cancel(ctx, id); err != nil && !errors.Is(err, ErrInvalidTransition) {
			s.log.Warn("Cancel during shutdown failed", logger.String("run_id", id), logger.Error(err))
		}
	}
	for _, id := range ids {
		if _, err := s.Wait(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) lookup(id string) *activeRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[id]
}

// execute runs the crawl and analysis phases of ar to a terminal state.
func (s *Service) execute(ctx context.Context, ar *activeRun) {
	runID := ar.snapshot().ID
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Audit run panicked", logger.String("run_id", runID), logger.Any("panic", r))
			s.finish(ar, domain.RunFailed, fmt.Sprintf("audit crashed: %v", r))
		}
		ar.cancel()
		s.mu.Lock()
		delete(s.active, runID)
		s.mu.Unlock()
		close(ar.done)
	}()

	result, err := ar.crawl.Wait(context.Background())
	switch {
	case ar.canceled.Load():
		if result != nil {
			s.keepPartial(ar, &Results{Pages: result.Snapshots, Failures: result.Failures})
		}
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.finish(ar, domain.RunFailed, fmt.Sprintf(msgTimeoutFormat, s.cfg.Timeout))
		return
	case err != nil:
		s.finish(ar, domain.RunFailed, "crawl failed: "+err.Error())
		return
	case len(result.Snapshots) == 0 && len(result.Failures) > 0:
		s.finish(ar, domain.RunFailed, fmt.Sprintf("%s: %s", msgNoReachable, result.Failures[0].Reason))
		return
	}

	results := &Results{Pages: result.Snapshots, Failures: result.Failures}
	pageScores := 0.0
	for _, snap := range result.Snapshots {
		if ar.canceled.Load() {
			s.keepPartial(ar, results)
			return
		}
		if ctx.Err() != nil {
			s.finish(ar, domain.RunFailed, fmt.Sprintf(msgTimeoutFormat, s.cfg.Timeout))
			return
		}

		findings := s.analyzer.Analyze(runID, snap)
		results.Findings = append(results.Findings, findings...)
		pageScores += analysis.OverallScore(findings)
		ar.update(func(r *domain.AuditRun) {
			r.PagesAnalyzed++
			for i := range findings {
				r.AddFinding(findings[i].Severity)
			}
		})
	}

	score := 100.0
	if n := len(result.Snapshots); n > 0 {
		score = pageScores / float64(n)
	}
	ar.update(func(r *domain.AuditRun) { r.OverallScore = &score })

	saveCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err = s.repo.SaveResults(saveCtx, runID, results); err != nil {
		s.finish(ar, domain.RunFailed, "persist results: "+err.Error())
		return
	}
	s.finish(ar, domain.RunCompleted, "")
}

// keepPartial stores what a canceled run gathered before it stopped, along
// with the counters that moved after the cancel was persisted.
func (s *Service) keepPartial(ar *activeRun, results *Results) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var runID string
	ar.update(func(r *domain.AuditRun) {
		runID = r.ID
		s.persist(r)
	})
	if err := s.repo.SaveResults(ctx, runID, results); err != nil {
		s.log.Warn("Keep partial audit results failed", logger.String("run_id", runID), logger.Error(err))
		return
	}
	s.log.Info("Kept partial audit results",
		logger.String("run_id", runID),
		logger.Int("pages", len(results.Pages)),
		logger.Int("failures", len(results.Failures)),
	)
}

// finish moves ar to a terminal state unless it already left running.
func (s *Service) finish(ar *activeRun, state domain.RunState, message string) {
	var (
		run domain.AuditRun
		err error
	)
	ar.update(func(r *domain.AuditRun) {
		if err = s.transition(r, state); err == nil {
			if message != "" {
				r.ErrorMessage = &message
			}
			s.persist(r)
			run = cloneRun(r)
		}
	})
	if err != nil {
		s.log.Debug("Audit run already finished", logger.String("state", string(state)), logger.Error(err))
		return
	}

	fields := []logger.Field{
		logger.String("run_id", run.ID),
		logger.String("state", string(state)),
		logger.Int("pages_crawled", run.PagesCrawled),
		logger.Int("findings", run.TotalFindings),
	}
	if state == domain.RunFailed {
		s.log.Warn("Audit run failed", append(fields, logger.String("error", message))...)
		return
	}
	s.log.Info("Audit run finished", fields...)
}

// persist writes run with its own bounded context, independent of the
// request that triggered the change.
func (s *Service) persist(run *domain.AuditRun) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.repo.Update(ctx, run); err != nil {
		s.log.Error("Persist audit run failed", logger.String("run_id", run.ID), logger.Error(err))
	}
}
