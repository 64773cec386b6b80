package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

const maxAltLength = 125

type imageAccessibilityCheck struct{}

func (imageAccessibilityCheck) Code() string              { return "A11Y_IMAGE_ACCESSIBILITY" }
func (imageAccessibilityCheck) Name() string              { return "Image Accessibility Check" }
func (imageAccessibilityCheck) Category() domain.Category { return domain.CategoryAccessibility }

func (c imageAccessibilityCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	var missing, tooLong bool
	for _, img := range snap.Images {
		switch {
		case !img.HasAlt():
			missing = true
		case utf8.RuneCountInString(*img.Alt) > maxAltLength:
			tooLong = true
		}
	}

	var issues []string
	if missing {
		issues = append(issues, "Missing alt text")
	}
	if tooLong {
		issues = append(issues, "Alt text too long")
	}
	if len(issues) == 0 {
		return nil, nil
	}

	f := newFinding(c, domain.SeverityMedium, domain.DifficultyEasy, -3)
	f.Title = "Image Accessibility Issues"
	f.Description = "Images have accessibility issues: " + strings.Join(issues, "; ")
	f.Recommendation = "Ensure all images have appropriate alt text (under 125 characters)."
	f.Impact = "Proper image accessibility improves user experience and SEO."
	f.Element = ptr("img")
	f.Attribute = ptr("alt")
	return f, nil
}
