package domain

import "time"

// Category groups findings by SEO area.
type Category string

const (
	CategoryTechnical     Category = "technical_seo"
	CategoryOnPage        Category = "on_page_seo"
	CategoryContent       Category = "content"
	CategoryPerformance   Category = "performance"
	CategoryMobile        Category = "mobile"
	CategorySecurity      Category = "security"
	CategoryAccessibility Category = "accessibility"
	CategoryUX            Category = "ux"
	CategoryBacklinks     Category = "backlinks"
	CategoryLocal         Category = "local_seo"
	CategorySocial        Category = "social_media"
	CategoryAnalytics     Category = "analytics"
)

// Categories lists every category in report order.
func Categories() []Category {
	return []Category{
		CategoryTechnical, CategoryOnPage, CategoryContent, CategoryPerformance,
		CategoryMobile, CategorySecurity, CategoryAccessibility, CategoryUX,
		CategoryBacklinks, CategoryLocal, CategorySocial, CategoryAnalytics,
	}
}

// IsValid returns true if the category is known.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// IsValid returns true if the severity is known.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	default:
		return false
	}
}

// Difficulty estimates the effort needed to fix a finding.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid returns true if the difficulty is known.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// FindingStatus tracks remediation of a finding.
type FindingStatus string

const (
	FindingOpen       FindingStatus = "open"
	FindingInProgress FindingStatus = "in_progress"
	FindingFixed      FindingStatus = "fixed"
	FindingIgnored    FindingStatus = "ignored"
)

// Finding is one issue detected by one check on one page.
type Finding struct {
	ID         string `db:"id"           json:"id"`
	AuditRunID string `db:"audit_run_id" json:"audit_run_id"`
	PageURL    string `db:"page_url"     json:"page_url"`

	CheckCode string        `db:"check_code" json:"check_code"`
	CheckName string        `db:"check_name" json:"check_name"`
	Category  Category      `db:"category"   json:"category"`
	Severity  Severity      `db:"severity"   json:"severity"`
	Status    FindingStatus `db:"status"     json:"status"`

	Title          string `db:"title"          json:"title"`
	Description    string `db:"description"    json:"description"`
	Recommendation string `db:"recommendation" json:"recommendation"`
	Impact         string `db:"impact"         json:"impact"`

	Element       *string `db:"element"        json:"element,omitempty"`
	Attribute     *string `db:"attribute"      json:"attribute,omitempty"`
	CurrentValue  *string `db:"current_value"  json:"current_value,omitempty"`
	ExpectedValue *string `db:"expected_value" json:"expected_value,omitempty"`

	ScoreImpact   float64    `db:"score_impact"   json:"score_impact"`
	Difficulty    Difficulty `db:"difficulty"     json:"difficulty"`
	PriorityScore int        `db:"priority_score" json:"priority_score"`

	// Tags is free-form metadata; known attributes have dedicated fields.
	Tags map[string]string `db:"-" json:"tags,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
