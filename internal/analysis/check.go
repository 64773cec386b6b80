// Package analysis runs rule checks against page snapshots and turns their
// findings into scores.
package analysis

import (
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// Check inspects one snapshot and reports at most one finding. A nil
// finding with a nil error means the page passed.
type Check interface {
	Code() string
	Name() string
	Category() domain.Category
	Run(snap *domain.PageSnapshot) (*domain.Finding, error)
}

// CheckInfo describes a registered check.
type CheckInfo struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Category domain.Category `json:"category"`
}

// DefaultChecks returns the built-in checks in execution order.
func DefaultChecks() []Check {
	return []Check{
		titleTagCheck{},
		metaDescriptionCheck{},
		headingStructureCheck{},
		imageAltCheck{},
		canonicalURLCheck{},
		pageLoadTimeCheck{},
		contentLengthCheck{},
		imageAccessibilityCheck{},
		robotsDirectivesCheck{},
		mobileViewportCheck{},
		httpsCheck{},
	}
}

// newFinding starts a finding attributed to c.
func newFinding(c Check, severity domain.Severity, difficulty domain.Difficulty, scoreImpact float64) *domain.Finding {
	return &domain.Finding{
		CheckCode:   c.Code(),
		CheckName:   c.Name(),
		Category:    c.Category(),
		Severity:    severity,
		Status:      domain.FindingOpen,
		ScoreImpact: scoreImpact,
		Difficulty:  difficulty,
	}
}

func ptr(s string) *string {
	return &s
}
