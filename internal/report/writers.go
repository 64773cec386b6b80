package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format selects a report encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

// DefaultTopFindings is how many findings WriteTable lists.
const DefaultTopFindings = 10

const csvDateLayout = "2006-01-02 15:04:05"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Write renders r in format f.
func Write(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatTable:
		return WriteTable(w, r, DefaultTopFindings)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteCSV writes three sections separated by blank lines: a run summary,
// one row per finding and one row per page.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{
			"Audit Name", "Audit ID", "Seed URLs", "Audit Date", "Pages Crawled", "Pages Analyzed",
			"Total Findings", "Critical Findings", "High Findings", "Medium Findings", "Low Findings",
		},
		{
			r.AuditInfo.Name,
			r.AuditInfo.ID,
			strings.Join(r.AuditInfo.SeedURLs, " "),
			r.AuditInfo.CreatedAt.Format(csvDateLayout),
			strconv.Itoa(r.AuditInfo.PagesCrawled),
			strconv.Itoa(r.AuditInfo.PagesAnalyzed),
			strconv.Itoa(r.Summary.TotalFindings),
			strconv.Itoa(r.Summary.CriticalFindings),
			strconv.Itoa(r.Summary.HighFindings),
			strconv.Itoa(r.Summary.MediumFindings),
			strconv.Itoa(r.Summary.LowFindings),
		},
		{},
		{
			"Finding ID", "Check Code", "Title", "Severity", "Category", "Description",
			"Recommendation", "Impact", "Element", "URL", "Status",
		},
	}
	for i := range r.Findings {
		f := &r.Findings[i]
		rows = append(rows, []string{
			f.ID,
			f.CheckCode,
			f.Title,
			string(f.Severity),
			string(f.Category),
			f.Description,
			f.Recommendation,
			f.Impact,
			deref(f.Element),
			f.PageURL,
			string(f.Status),
		})
	}

	rows = append(rows, []string{}, []string{
		"URL", "Final URL", "Title", "Status Code", "Response Time (ms)", "Word Count",
		"Total Findings", "Critical Findings", "High Findings", "Score",
	})
	for _, p := range r.Pages {
		rows = append(rows, []string{
			p.URL,
			p.FinalURL,
			p.Title,
			strconv.Itoa(p.StatusCode),
			strconv.FormatFloat(p.ResponseTimeMS, 'f', 0, 64),
			strconv.Itoa(p.WordCount),
			strconv.Itoa(p.Findings.Total),
			strconv.Itoa(p.Findings.Critical),
			strconv.Itoa(p.Findings.High),
			strconv.FormatFloat(p.Score, 'f', 1, 64),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}

// WriteTable renders a summary table followed by the top findings.
func WriteTable(w io.Writer, r *Report, top int) error {
	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleLight)
	summary.SetTitle("Audit: " + r.AuditInfo.Name)
	summary.AppendRows([]table.Row{
		{"State", r.AuditInfo.State},
		{"Seeds", strings.Join(r.AuditInfo.SeedURLs, "\n")},
		{"Pages crawled", r.AuditInfo.PagesCrawled},
		{"Pages failed", r.Summary.FailedPages},
		{"Overall score", fmt.Sprintf("%.1f", r.Summary.OverallScore)},
		{"Findings", r.Summary.TotalFindings},
		{"  critical / high", fmt.Sprintf("%d / %d", r.Summary.CriticalFindings, r.Summary.HighFindings)},
		{"  medium / low / info", fmt.Sprintf("%d / %d / %d",
			r.Summary.MediumFindings, r.Summary.LowFindings, r.Summary.InfoFindings)},
	})
	if r.AuditInfo.StartedAt != nil && r.AuditInfo.FinishedAt != nil {
		summary.AppendRow(table.Row{"Duration", r.AuditInfo.FinishedAt.Sub(*r.AuditInfo.StartedAt).Round(time.Millisecond)})
	}
	summary.Render()

	if len(r.Findings) == 0 {
		_, err := fmt.Fprintln(w, "No findings.")
		return err
	}

	findings := table.NewWriter()
	findings.SetOutputMirror(w)
	findings.SetStyle(table.StyleLight)
	findings.SetTitle(fmt.Sprintf("Top findings (%d of %d)", min(top, len(r.Findings)), len(r.Findings)))
	findings.AppendHeader(table.Row{"Priority", "Severity", "Check", "Page", "Title"})
	findings.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, WidthMax: 50},
		{Number: 5, WidthMax: 60},
	})
	for i := range r.Findings {
		if i >= top {
			break
		}
		f := &r.Findings[i]
		findings.AppendRow(table.Row{f.PriorityScore, f.Severity, f.CheckCode, f.PageURL, f.Title})
	}
	findings.Render()
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
