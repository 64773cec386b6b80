package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

const (
	titleMinLength       = 30
	titleMaxLength       = 60
	descriptionMinLength = 120
	descriptionMaxLength = 160
)

type titleTagCheck struct{}

func (titleTagCheck) Code() string              { return "TECH_TITLE_TAG" }
func (titleTagCheck) Name() string              { return "Title Tag Check" }
func (titleTagCheck) Category() domain.Category { return domain.CategoryTechnical }

func (c titleTagCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	if snap.Title == "" {
		f := newFinding(c, domain.SeverityCritical, domain.DifficultyEasy, -15)
		f.Title = "Missing Title Tag"
		f.Description = "The page is missing a title tag, which is essential for SEO."
		f.Recommendation = "Add a descriptive title tag between 30-60 characters."
		f.Impact = "Search engines use title tags as the primary headline in search results."
		f.Element = ptr("title")
		return f, nil
	}

	length := utf8.RuneCountInString(snap.Title)
	switch {
	case length < titleMinLength:
		f := newFinding(c, domain.SeverityMedium, domain.DifficultyEasy, -5)
		f.Title = "Title Tag Too Short"
		f.Description = fmt.Sprintf(
			"Title tag is %d characters long, which is below the recommended 30-60 characters.", length)
		f.Recommendation = "Expand the title tag to be more descriptive and informative."
		f.Impact = "Short titles may not provide enough context for search engines and users."
		f.Element = ptr("title")
		f.CurrentValue = ptr(snap.Title)
		f.ExpectedValue = ptr("30-60 characters")
		return f, nil
	case length > titleMaxLength:
		f := newFinding(c, domain.SeverityMedium, domain.DifficultyEasy, -3)
		f.Title = "Title Tag Too Long"
		f.Description = fmt.Sprintf(
			"Title tag is %d characters long, which exceeds the recommended 30-60 characters.", length)
		f.Recommendation = "Shorten the title tag to ensure it displays fully in search results."
		f.Impact = "Long titles may be truncated in search results, reducing click-through rates."
		f.Element = ptr("title")
		f.CurrentValue = ptr(snap.Title)
		f.ExpectedValue = ptr("30-60 characters")
		return f, nil
	}
	return nil, nil
}

type metaDescriptionCheck struct{}

func (metaDescriptionCheck) Code() string              { return "TECH_META_DESCRIPTION" }
func (metaDescriptionCheck) Name() string              { return "Meta Description Check" }
func (metaDescriptionCheck) Category() domain.Category { return domain.CategoryTechnical }

func (c metaDescriptionCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	const element = "meta[name='description']"

	if snap.MetaDescription == "" {
		f := newFinding(c, domain.SeverityHigh, domain.DifficultyEasy, -10)
		f.Title = "Missing Meta Description"
		f.Description = "The page is missing a meta description tag."
		f.Recommendation = "Add a compelling meta description between 120-160 characters."
		f.Impact = "Meta descriptions appear in search results and influence click-through rates."
		f.Element = ptr(element)
		return f, nil
	}

	length := utf8.RuneCountInString(snap.MetaDescription)
	switch {
	case length < descriptionMinLength:
		f := newFinding(c, domain.SeverityMedium, domain.DifficultyEasy, -3)
		f.Title = "Meta Description Too Short"
		f.Description = fmt.Sprintf(
			"Meta description is %d characters long, which is below the recommended 120-160 characters.", length)
		f.Recommendation = "Expand the meta description to provide more compelling information."
		f.Impact = "Short meta descriptions may not provide enough incentive for users to click."
		f.Element = ptr(element)
		f.CurrentValue = ptr(snap.MetaDescription)
		f.ExpectedValue = ptr("120-160 characters")
		return f, nil
	case length > descriptionMaxLength:
		f := newFinding(c, domain.SeverityLow, domain.DifficultyEasy, -1)
		f.Title = "Meta Description Too Long"
		f.Description = fmt.Sprintf(
			"Meta description is %d characters long, which exceeds the recommended 120-160 characters.", length)
		f.Recommendation = "Shorten the meta description to ensure it displays fully in search results."
		f.Impact = "Long meta descriptions may be truncated in search results."
		f.Element = ptr(element)
		f.CurrentValue = ptr(snap.MetaDescription)
		f.ExpectedValue = ptr("120-160 characters")
		return f, nil
	}
	return nil, nil
}

type headingStructureCheck struct{}

func (headingStructureCheck) Code() string              { return "TECH_HEADING_STRUCTURE" }
func (headingStructureCheck) Name() string              { return "Heading Structure Check" }
func (headingStructureCheck) Category() domain.Category { return domain.CategoryTechnical }

func (c headingStructureCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	var issues []string
	missingH1 := len(snap.H1) == 0

	switch {
	case missingH1:
		issues = append(issues, "Missing H1 tag")
	case len(snap.H1) > 1:
		issues = append(issues, fmt.Sprintf("Multiple H1 tags found (%d)", len(snap.H1)))
	}
	if len(snap.H3) > 0 && len(snap.H2) == 0 {
		issues = append(issues, "H3 tags found without H2 tags")
	}
	if len(issues) == 0 {
		return nil, nil
	}

	severity, impact := domain.SeverityMedium, -4.0
	if missingH1 {
		severity, impact = domain.SeverityHigh, -8.0
	}
	f := newFinding(c, severity, domain.DifficultyMedium, impact)
	f.Title = "Heading Structure Issues"
	f.Description = "Heading structure problems found: " + strings.Join(issues, "; ")
	f.Recommendation = "Ensure proper heading hierarchy with a single H1 tag and logical H2/H3 structure."
	f.Impact = "Proper heading structure helps search engines understand page content and improves accessibility."
	f.Element = ptr("h1, h2, h3")
	return f, nil
}

type imageAltCheck struct{}

func (imageAltCheck) Code() string              { return "TECH_IMAGE_ALT" }
func (imageAltCheck) Name() string              { return "Image Alt Text Check" }
func (imageAltCheck) Category() domain.Category { return domain.CategoryTechnical }

func (c imageAltCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	missing := 0
	for _, img := range snap.Images {
		if !img.HasAlt() {
			missing++
		}
	}
	if missing == 0 {
		return nil, nil
	}

	f := newFinding(c, domain.SeverityMedium, domain.DifficultyEasy, -5)
	f.Title = "Images Missing Alt Text"
	f.Description = fmt.Sprintf("%d images are missing alt text attributes.", missing)
	f.Recommendation = "Add descriptive alt text to all images for better accessibility and SEO."
	f.Impact = "Alt text helps search engines understand images and improves accessibility for screen readers."
	f.Element = ptr("img")
	f.Attribute = ptr("alt")
	return f, nil
}

type canonicalURLCheck struct{}

func (canonicalURLCheck) Code() string              { return "TECH_CANONICAL_URL" }
func (canonicalURLCheck) Name() string              { return "Canonical URL Check" }
func (canonicalURLCheck) Category() domain.Category { return domain.CategoryTechnical }

func (c canonicalURLCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	if snap.CanonicalURL != "" {
		return nil, nil
	}
	f := newFinding(c, domain.SeverityMedium, domain.DifficultyEasy, -5)
	f.Title = "Missing Canonical URL"
	f.Description = "The page is missing a canonical URL tag."
	f.Recommendation = "Add a canonical URL tag to prevent duplicate content issues."
	f.Impact = "Canonical URLs help search engines understand the preferred version of a page."
	f.Element = ptr("link[rel='canonical']")
	return f, nil
}

type robotsDirectivesCheck struct{}

func (robotsDirectivesCheck) Code() string              { return "TECH_ROBOTS_DIRECTIVES" }
func (robotsDirectivesCheck) Name() string              { return "Robots Directives Check" }
func (robotsDirectivesCheck) Category() domain.Category { return domain.CategoryTechnical }

func (c robotsDirectivesCheck) Run(snap *domain.PageSnapshot) (*domain.Finding, error) {
	var blocking []string
	for _, directive := range strings.Split(strings.ToLower(snap.MetaRobots), ",") {
		switch d := strings.TrimSpace(directive); d {
		case "noindex", "nofollow", "none":
			blocking = append(blocking, d)
		}
	}
	if len(blocking) == 0 {
		return nil, nil
	}

	f := newFinding(c, domain.SeverityHigh, domain.DifficultyEasy, -8)
	f.Title = "Robots Directives Blocking Indexing"
	f.Description = "Page has robots directives that prevent search engine indexing: " + strings.Join(blocking, ", ")
	f.Recommendation = "Remove or modify robots directives (noindex, nofollow) to allow search engines " +
		"to index and follow links on this page."
	f.Impact = "Pages marked noindex are dropped from search results and nofollow stops link equity from flowing."
	f.Element = ptr("meta[name='robots']")
	f.Attribute = ptr("content")
	f.CurrentValue = ptr(snap.MetaRobots)
	f.ExpectedValue = ptr("index, follow")
	return f, nil
}
