package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

type headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
}

type pageRow struct {
	AuditRunID      string    `db:"audit_run_id"`
	Position        int       `db:"position"`
	URL             string    `db:"url"`
	FinalURL        string    `db:"final_url"`
	Depth           int       `db:"depth"`
	StatusCode      int       `db:"status_code"`
	ResponseTimeMS  float64   `db:"response_time_ms"`
	ContentLength   int64     `db:"content_length"`
	ContentType     string    `db:"content_type"`
	Title           string    `db:"title"`
	MetaDescription string    `db:"meta_description"`
	MetaKeywords    string    `db:"meta_keywords"`
	MetaRobots      string    `db:"meta_robots"`
	Viewport        string    `db:"viewport"`
	CanonicalURL    string    `db:"canonical_url"`
	Language        string    `db:"language"`
	WordCount       int       `db:"word_count"`
	ReadingTime     int       `db:"reading_time"`
	Headings        string    `db:"headings"`
	Images          string    `db:"images"`
	Links           string    `db:"links"`
	Scripts         string    `db:"scripts"`
	Stylesheets     string    `db:"stylesheets"`
	RedirectChain   string    `db:"redirect_chain"`
	CrawledAt       time.Time `db:"crawled_at"`
}

func newPageRow(runID string, position int, snap *domain.PageSnapshot) (pageRow, error) {
	row := pageRow{
		AuditRunID:      runID,
		Position:        position,
		URL:             snap.URL,
		FinalURL:        snap.FinalURL,
		Depth:           snap.Depth,
		StatusCode:      snap.StatusCode,
		ResponseTimeMS:  snap.ResponseTimeMillis(),
		ContentLength:   snap.ContentLength,
		ContentType:     snap.ContentType,
		Title:           snap.Title,
		MetaDescription: snap.MetaDescription,
		MetaKeywords:    snap.MetaKeywords,
		MetaRobots:      snap.MetaRobots,
		Viewport:        snap.Viewport,
		CanonicalURL:    snap.CanonicalURL,
		Language:        snap.Language,
		WordCount:       snap.WordCount,
		ReadingTime:     snap.ReadingTime,
		CrawledAt:       snap.CrawledAt,
	}

	fields := []struct {
		dst *string
		src any
	}{
		{&row.Headings, headings{H1: snap.H1, H2: snap.H2, H3: snap.H3}},
		{&row.Images, snap.Images},
		{&row.Links, snap.Links},
		{&row.Scripts, snap.Scripts},
		{&row.Stylesheets, snap.Stylesheets},
		{&row.RedirectChain, snap.RedirectChain},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return pageRow{}, fmt.Errorf("failed to encode page %s: %w", snap.URL, err)
		}
		*f.dst = string(b)
	}
	return row, nil
}

// values follows the order of pageColumns.
func (r *pageRow) values() []any {
	return []any{
		r.AuditRunID, r.Position, r.URL, r.FinalURL, r.Depth, r.StatusCode, r.ResponseTimeMS,
		r.ContentLength, r.ContentType, r.Title, r.MetaDescription, r.MetaKeywords, r.MetaRobots,
		r.Viewport, r.CanonicalURL, r.Language, r.WordCount, r.ReadingTime,
		r.Headings, r.Images, r.Links, r.Scripts, r.Stylesheets, r.RedirectChain, r.CrawledAt,
	}
}

func (r *pageRow) toDomain() (*domain.PageSnapshot, error) {
	snap := &domain.PageSnapshot{
		URL:             r.URL,
		FinalURL:        r.FinalURL,
		Depth:           r.Depth,
		StatusCode:      r.StatusCode,
		ResponseTime:    time.Duration(r.ResponseTimeMS * float64(time.Millisecond)),
		ContentLength:   r.ContentLength,
		ContentType:     r.ContentType,
		Title:           r.Title,
		MetaDescription: r.MetaDescription,
		MetaKeywords:    r.MetaKeywords,
		MetaRobots:      r.MetaRobots,
		Viewport:        r.Viewport,
		CanonicalURL:    r.CanonicalURL,
		Language:        r.Language,
		WordCount:       r.WordCount,
		ReadingTime:     r.ReadingTime,
		CrawledAt:       r.CrawledAt,
	}

	var h headings
	fields := []struct {
		src string
		dst any
	}{
		{r.Headings, &h},
		{r.Images, &snap.Images},
		{r.Links, &snap.Links},
		{r.Scripts, &snap.Scripts},
		{r.Stylesheets, &snap.Stylesheets},
		{r.RedirectChain, &snap.RedirectChain},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode page %s: %w", r.URL, err)
		}
	}
	snap.H1, snap.H2, snap.H3 = h.H1, h.H2, h.H3
	return snap, nil
}

type findingRow struct {
	domain.Finding
	Position int    `db:"position"`
	TagsJSON string `db:"tags"`
}

func newFindingRow(position int, f *domain.Finding) (findingRow, error) {
	tags := f.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return findingRow{}, fmt.Errorf("failed to encode tags of finding %s: %w", f.ID, err)
	}
	return findingRow{Finding: *f, Position: position, TagsJSON: string(b)}, nil
}

// values follows the order of findingColumns.
func (r *findingRow) values() []any {
	return []any{
		r.ID, r.AuditRunID, r.Position, r.PageURL, r.CheckCode, r.CheckName,
		string(r.Category), string(r.Severity), string(r.Status),
		r.Title, r.Description, r.Recommendation, r.Impact,
		r.Element, r.Attribute, r.CurrentValue, r.ExpectedValue,
		r.ScoreImpact, string(r.Difficulty), r.PriorityScore, r.TagsJSON, r.CreatedAt,
	}
}

func (r *findingRow) toDomain() (domain.Finding, error) {
	f := r.Finding
	f.Tags = nil
	if r.TagsJSON != "" && r.TagsJSON != "{}" {
		if err := json.Unmarshal([]byte(r.TagsJSON), &f.Tags); err != nil {
			return domain.Finding{}, fmt.Errorf("failed to decode tags of finding %s: %w", r.ID, err)
		}
	}
	return f, nil
}

type failureRow struct {
	AuditRunID string `db:"audit_run_id"`
	Position   int    `db:"position"`
	URL        string `db:"url"`
	Depth      int    `db:"depth"`
	Reason     string `db:"reason"`
	StatusCode int    `db:"status_code"`
	Attempts   int    `db:"attempts"`
	Message    string `db:"message"`
}

func newFailureRow(runID string, position int, f domain.FetchFailure) failureRow {
	return failureRow{
		AuditRunID: runID,
		Position:   position,
		URL:        f.URL,
		Depth:      f.Depth,
		Reason:     string(f.Reason),
		StatusCode: f.StatusCode,
		Attempts:   f.Attempts,
		Message:    f.Message,
	}
}

// values follows the order of failureColumns.
func (r *failureRow) values() []any {
	return []any{r.AuditRunID, r.Position, r.URL, r.Depth, r.Reason, r.StatusCode, r.Attempts, r.Message}
}

func (r *failureRow) toDomain() domain.FetchFailure {
	return domain.FetchFailure{
		URL:        r.URL,
		Depth:      r.Depth,
		Reason:     domain.FailureReason(r.Reason),
		StatusCode: r.StatusCode,
		Attempts:   r.Attempts,
		Message:    r.Message,
	}
}
