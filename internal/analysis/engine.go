package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/metrics"
)

var (
	// ErrUnknownCheck is returned by RunCheck for an unregistered code.
	ErrUnknownCheck = errors.New("unknown check")
	// ErrCheckPanicked wraps a panic raised inside a check.
	ErrCheckPanicked = errors.New("check panicked")
)

// Engine runs an ordered set of checks against page snapshots.
type Engine struct {
	checks  []Check
	byCode  map[string]Check
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewEngine creates an Engine. With no checks it uses DefaultChecks.
func NewEngine(log logger.Logger, m *metrics.Metrics, checks ...Check) *Engine {
	if len(checks) == 0 {
		checks = DefaultChecks()
	}
	byCode := make(map[string]Check, len(checks))
	for _, c := range checks {
		byCode[c.Code()] = c
	}
	return &Engine{
		checks:  checks,
		byCode:  byCode,
		log:     logger.Component(log, "analysis"),
		metrics: m,
		now:     time.Now,
	}
}

// Analyze runs every check against snap in registration order. A check
// that errors or panics is logged and skipped; the others still run.
func (e *Engine) Analyze(runID string, snap *domain.PageSnapshot) []domain.Finding {
	findings := make([]domain.Finding, 0, len(e.checks))
	for _, c := range e.checks {
		f, err := e.run(c, snap)
		if err != nil {
			e.metrics.CheckError(c.Code())
			e.log.Error("Check failed",
				logger.String("check", c.Code()),
				logger.String("url", snap.URL),
				logger.Error(err),
			)
			continue
		}
		if f == nil {
			continue
		}

		e.stamp(f, runID, snap)
		e.metrics.Finding(string(f.Severity), string(f.Category))
		findings = append(findings, *f)
	}
	return findings
}

// AvailableChecks lists the registered checks in execution order.
func (e *Engine) AvailableChecks() []CheckInfo {
	infos := make([]CheckInfo, 0, len(e.checks))
	for _, c := range e.checks {
		infos = append(infos, CheckInfo{Code: c.Code(), Name: c.Name(), Category: c.Category()})
	}
	return infos
}

// RunCheck runs a single check by code. The finding is not stamped with
// run or page identifiers.
func (e *Engine) RunCheck(code string, snap *domain.PageSnapshot) (*domain.Finding, error) {
	c, ok := e.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCheck, code)
	}
	return e.run(c, snap)
}

func (e *Engine) run(c Check, snap *domain.PageSnapshot) (f *domain.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = fmt.Errorf("%w: %s: %v", ErrCheckPanicked, c.Code(), r)
		}
	}()
	return c.Run(snap)
}

func (e *Engine) stamp(f *domain.Finding, runID string, snap *domain.PageSnapshot) {
	f.ID = uuid.NewString()
	f.AuditRunID = runID
	f.PageURL = snap.URL
	f.ScoreImpact = ClampImpact(f.ScoreImpact)
	if f.Status == "" {
		f.Status = domain.FindingOpen
	}
	if f.Difficulty == "" {
		f.Difficulty = domain.DifficultyMedium
	}
	f.PriorityScore = PriorityScore(*f)
	f.CreatedAt = e.now()
}
