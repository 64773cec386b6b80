package analysis

import (
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

type mobileViewportCheck struct{}

func (mobileViewportCheck) Code() string              { return "MOBILE_VIEWPORT" }
func (mobileViewportCheck) Name() string              { return "Mobile Viewport Check" }
func (mobileViewportCheck) Category() domain.Category { return domain.CategoryMobile }

func (c mobileViewportCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	viewport := strings.ToLower(strings.ReplaceAll(snap.Viewport, " ", ""))
	if strings.Contains(viewport, "width=device-width") {
		return nil, nil
	}

	f := newFinding(c, domain.SeverityHigh, domain.DifficultyEasy, -6)
	f.Title = "Mobile-Friendly Issues"
	if snap.Viewport == "" {
		f.Description = "Page has no viewport meta tag and may not render correctly on mobile devices."
	} else {
		f.Description = "Page viewport is not responsive: it does not set width=device-width."
		f.CurrentValue = ptr(snap.Viewport)
	}
	f.Recommendation = "Add a responsive viewport meta tag and ensure the page layout adapts to mobile screens."
	f.Impact = "Search engines index the mobile version of a page first."
	f.Element = ptr("meta[name='viewport']")
	f.ExpectedValue = ptr("width=device-width, initial-scale=1")
	return f, nil
}

type httpsCheck struct{}

func (httpsCheck) Code() string              { return "SEC_HTTPS" }
func (httpsCheck) Name() string              { return "HTTPS Check" }
func (httpsCheck) Category() domain.Category { return domain.CategorySecurity }

func (c httpsCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	target := snap.FinalURL
	if target == "" {
		target = snap.URL
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(u.Scheme, "https") {
		return nil, nil
	}

	f := newFinding(c, domain.SeverityHigh, domain.DifficultyMedium, -10)
	f.Title = "Page Not Served Over HTTPS"
	f.Description = "The page is served over an unencrypted connection."
	f.Recommendation = "Serve the page over HTTPS and redirect HTTP requests to the secure URL."
	f.Impact = "Browsers flag insecure pages and search engines prefer HTTPS results."
	f.CurrentValue = ptr(u.Scheme)
	f.ExpectedValue = ptr("https")
	return f, nil
}
