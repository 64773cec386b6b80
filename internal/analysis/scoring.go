package analysis

import (
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

const (
	maxScore  = 100.0
	minScore  = 0.0
	maxImpact = 100.0
)

// SeverityMultiplier scales a finding's score impact when scoring a page.
func SeverityMultiplier(severity domain.Severity) float64 {
	switch severity {
	case domain.SeverityCritical:
		return 1.5
	case domain.SeverityHigh:
		return 1.2
	default:
		return 1.0
	}
}

// SeverityWeight ranks severities for priority scoring.
func SeverityWeight(severity domain.Severity) int {
	switch severity {
	case domain.SeverityCritical:
		return 10
	case domain.SeverityHigh:
		return 7
	case domain.SeverityMedium:
		return 4
	case domain.SeverityLow:
		return 2
	default:
		return 1
	}
}

// DifficultyMultiplier raises the priority of findings that take more work.
func DifficultyMultiplier(difficulty domain.Difficulty) float64 {
	switch difficulty {
	case domain.DifficultyMedium:
		return 1.2
	case domain.DifficultyHard:
		return 1.5
	default:
		return 1.0
	}
}

// ClampImpact bounds a score impact to [-100, 100].
func ClampImpact(impact float64) float64 {
	return min(max(impact, -maxImpact), maxImpact)
}

// PriorityScore is (severity weight * 10 + |impact|) scaled by difficulty.
func PriorityScore(f domain.Finding) int {
	impact := int(ClampImpact(f.ScoreImpact))
	if impact < 0 {
		impact = -impact
	}
	base := SeverityWeight(f.Severity)*10 + impact
	return int(float64(base) * DifficultyMultiplier(f.Difficulty))
}

// OverallScore starts at 100 and applies every penalty weighted by
// severity, clamped to [0, 100]. Positive impacts never raise the score.
func OverallScore(findings []domain.Finding) float64 {
	score := maxScore
	for i := range findings {
		score += weightedPenalty(findings[i])
	}
	return clampScore(score)
}

// CategoryScores scores each category that has at least one finding.
func CategoryScores(findings []domain.Finding) map[domain.Category]float64 {
	scores := make(map[domain.Category]float64)
	for i := range findings {
		f := findings[i]
		if _, ok := scores[f.Category]; !ok {
			scores[f.Category] = maxScore
		}
		scores[f.Category] += weightedPenalty(f)
	}
	for category, score := range scores {
		scores[category] = clampScore(score)
	}
	return scores
}

func weightedPenalty(f domain.Finding) float64 {
	impact := ClampImpact(f.ScoreImpact)
	if impact > 0 {
		return 0
	}
	return impact * SeverityMultiplier(f.Severity)
}

func clampScore(score float64) float64 {
	return min(max(score, minScore), maxScore)
}
