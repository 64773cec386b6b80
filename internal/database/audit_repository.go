package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/audit"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

const pqUniqueViolation = "23505"

var runColumns = []string{
	"id", "name", "description", "requested_by", "config", "state",
	"created_at", "updated_at", "started_at", "finished_at",
	"pages_crawled", "pages_analyzed", "pages_failed",
	"total_findings", "critical_findings", "high_findings", "medium_findings", "low_findings", "info_findings",
	"overall_score", "retry_count", "max_retries", "error_message",
}

var pageColumns = []string{
	"audit_run_id", "position", "url", "final_url", "depth", "status_code", "response_time_ms",
	"content_length", "content_type", "title", "meta_description", "meta_keywords", "meta_robots",
	"viewport", "canonical_url", "language", "word_count", "reading_time",
	"headings", "images", "links", "scripts", "stylesheets", "redirect_chain", "crawled_at",
}

var findingColumns = []string{
	"id", "audit_run_id", "position", "page_url", "check_code", "check_name", "category", "severity", "status",
	"title", "description", "recommendation", "impact",
	"element", "attribute", "current_value", "expected_value",
	"score_impact", "difficulty", "priority_score", "tags", "created_at",
}

var failureColumns = []string{
	"audit_run_id", "position", "url", "depth", "reason", "status_code", "attempts", "message",
}

// AuditRepository stores audit runs and their results in SQL.
type AuditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*AuditRepository)(nil)

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new run.
func (r *AuditRepository) Create(ctx context.Context, run *domain.AuditRun) error {
	row, err := newRunRow(run)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(insertQuery("audit_runs", runColumns)), row.values()...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", audit.ErrDuplicateRun, run.ID)
		}
		return fmt.Errorf("failed to create audit run: %w", err)
	}
	return nil
}

// Get retrieves a run by its ID.
func (r *AuditRepository) Get(ctx context.Context, id string) (*domain.AuditRun, error) {
	var row runRow
	query := r.db.Rebind(`SELECT ` + strings.Join(runColumns, ", ") + ` FROM audit_runs WHERE id = ?`)

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", audit.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get audit run: %w", err)
	}
	return row.toDomain()
}

// Update overwrites every mutable column of a run.
func (r *AuditRepository) Update(ctx context.Context, run *domain.AuditRun) error {
	row, err := newRunRow(run)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(runColumns)-1)
	for _, col := range runColumns[1:] {
		sets = append(sets, col+" = ?")
	}
	query := r.db.Rebind(`UPDATE audit_runs SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	values := row.values()
	args := append(slices.Clone(values[1:]), values[0])

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update audit run: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: %s", audit.ErrRunNotFound, run.ID))
}

// List returns runs newest first. A non-positive limit returns every run.
func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]*domain.AuditRun, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	offset = max(offset, 0)

	var rows []runRow
	query := r.db.Rebind(`SELECT ` + strings.Join(runColumns, ", ") +
		` FROM audit_runs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list audit runs: %w", err)
	}

	runs := make([]*domain.AuditRun, 0, len(rows))
	for i := range rows {
		run, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// SaveResults replaces the stored pages, findings and failures of a run.
func (r *AuditRepository) SaveResults(ctx context.Context, runID string, results *audit.Results) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.requireRun(ctx, tx, runID); err != nil {
		return err
	}

	for _, table := range []string{"audit_pages", "audit_findings", "audit_fetch_failures"} {
		if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE audit_run_id = ?`), runID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	pageQuery := tx.Rebind(insertQuery("audit_pages", pageColumns))
	for i, snap := range results.Pages {
		row, rowErr := newPageRow(runID, i, snap)
		if rowErr != nil {
			return rowErr
		}
		if _, err = tx.ExecContext(ctx, pageQuery, row.values()...); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", snap.URL, err)
		}
	}

	findingQuery := tx.Rebind(insertQuery("audit_findings", findingColumns))
	for i := range results.Findings {
		row, rowErr := newFindingRow(i, &results.Findings[i])
		if rowErr != nil {
			return rowErr
		}
		row.AuditRunID = runID
		if _, err = tx.ExecContext(ctx, findingQuery, row.values()...); err != nil {
			return fmt.Errorf("failed to insert finding %s: %w", row.ID, err)
		}
	}

	failureQuery := tx.Rebind(insertQuery("audit_fetch_failures", failureColumns))
	for i, f := range results.Failures {
		row := newFailureRow(runID, i, f)
		if _, err = tx.ExecContext(ctx, failureQuery, row.values()...); err != nil {
			return fmt.Errorf("failed to insert fetch failure %s: %w", f.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

// Results loads everything stored for a run.
func (r *AuditRepository) Results(ctx context.Context, runID string) (*audit.Results, error) {
	if err := r.requireRun(ctx, r.db, runID); err != nil {
		return nil, err
	}

	var pages []pageRow
	query := r.db.Rebind(`SELECT ` + strings.Join(pageColumns, ", ") +
		` FROM audit_pages WHERE audit_run_id = ? ORDER BY position`)
	if err := r.db.SelectContext(ctx, &pages, query, runID); err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}

	var findings []findingRow
	query = r.db.Rebind(`SELECT ` + strings.Join(findingColumns, ", ") +
		` FROM audit_findings WHERE audit_run_id = ? ORDER BY position`)
	if err := r.db.SelectContext(ctx, &findings, query, runID); err != nil {
		return nil, fmt.Errorf("failed to load findings: %w", err)
	}

	var failures []failureRow
	query = r.db.Rebind(`SELECT ` + strings.Join(failureColumns, ", ") +
		` FROM audit_fetch_failures WHERE audit_run_id = ? ORDER BY position`)
	if err := r.db.SelectContext(ctx, &failures, query, runID); err != nil {
		return nil, fmt.Errorf("failed to load fetch failures: %w", err)
	}

	out := &audit.Results{
		Pages:    make([]*domain.PageSnapshot, 0, len(pages)),
		Findings: make([]domain.Finding, 0, len(findings)),
		Failures: make([]domain.FetchFailure, 0, len(failures)),
	}
	for i := range pages {
		snap, err := pages[i].toDomain()
		if err != nil {
			return nil, err
		}
		out.Pages = append(out.Pages, snap)
	}
	for i := range findings {
		f, err := findings[i].toDomain()
		if err != nil {
			return nil, err
		}
		out.Findings = append(out.Findings, f)
	}
	for i := range failures {
		out.Failures = append(out.Failures, failures[i].toDomain())
	}
	return out, nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func (r *AuditRepository) requireRun(ctx context.Context, q queryer, runID string) error {
	var one int
	err := sqlx.GetContext(ctx, q, &one, q.Rebind(`SELECT 1 FROM audit_runs WHERE id = ?`), runID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", audit.ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up audit run: %w", err)
	}
	return nil
}

func insertQuery(table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type runRow struct {
	ID               string     `db:"id"`
	Name             string     `db:"name"`
	Description      string     `db:"description"`
	RequestedBy      string     `db:"requested_by"`
	Config           string     `db:"config"`
	State            string     `db:"state"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	StartedAt        *time.Time `db:"started_at"`
	FinishedAt       *time.Time `db:"finished_at"`
	PagesCrawled     int        `db:"pages_crawled"`
	PagesAnalyzed    int        `db:"pages_analyzed"`
	PagesFailed      int        `db:"pages_failed"`
	TotalFindings    int        `db:"total_findings"`
	CriticalFindings int        `db:"critical_findings"`
	HighFindings     int        `db:"high_findings"`
	MediumFindings   int        `db:"medium_findings"`
	LowFindings      int        `db:"low_findings"`
	InfoFindings     int        `db:"info_findings"`
	OverallScore     *float64   `db:"overall_score"`
	RetryCount       int        `db:"retry_count"`
	MaxRetries       int        `db:"max_retries"`
	ErrorMessage     *string    `db:"error_message"`
}

func newRunRow(run *domain.AuditRun) (runRow, error) {
	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to encode audit config: %w", err)
	}
	return runRow{
		ID:               run.ID,
		Name:             run.Name,
		Description:      run.Description,
		RequestedBy:      run.RequestedBy,
		Config:           string(cfg),
		State:            string(run.State),
		CreatedAt:        run.CreatedAt,
		UpdatedAt:        run.UpdatedAt,
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
		PagesCrawled:     run.PagesCrawled,
		PagesAnalyzed:    run.PagesAnalyzed,
		PagesFailed:      run.PagesFailed,
		TotalFindings:    run.TotalFindings,
		CriticalFindings: run.CriticalFindings,
		HighFindings:     run.HighFindings,
		MediumFindings:   run.MediumFindings,
		LowFindings:      run.LowFindings,
		InfoFindings:     run.InfoFindings,
		OverallScore:     run.OverallScore,
		RetryCount:       run.RetryCount,
		MaxRetries:       run.MaxRetries,
		ErrorMessage:     run.ErrorMessage,
	}, nil
}

// values follows the order of runColumns.
func (r *runRow) values() []any {
	return []any{
		r.ID, r.Name, r.Description, r.RequestedBy, r.Config, r.State,
		r.CreatedAt, r.UpdatedAt, r.StartedAt, r.FinishedAt,
		r.PagesCrawled, r.PagesAnalyzed, r.PagesFailed,
		r.TotalFindings, r.CriticalFindings, r.HighFindings, r.MediumFindings, r.LowFindings, r.InfoFindings,
		r.OverallScore, r.RetryCount, r.MaxRetries, r.ErrorMessage,
	}
}

func (r *runRow) toDomain() (*domain.AuditRun, error) {
	var cfg domain.AuditConfig
	if err := json.Unmarshal([]byte(r.Config), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config of audit run %s: %w", r.ID, err)
	}
	return &domain.AuditRun{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		RequestedBy:      r.RequestedBy,
		Config:           cfg,
		State:            domain.RunState(r.State),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		PagesCrawled:     r.PagesCrawled,
		PagesAnalyzed:    r.PagesAnalyzed,
		PagesFailed:      r.PagesFailed,
		TotalFindings:    r.TotalFindings,
		CriticalFindings: r.CriticalFindings,
		HighFindings:     r.HighFindings,
		MediumFindings:   r.MediumFindings,
		LowFindings:      r.LowFindings,
		InfoFindings:     r.InfoFindings,
		OverallScore:     r.OverallScore,
		RetryCount:       r.RetryCount,
		MaxRetries:       r.MaxRetries,
		ErrorMessage:     r.ErrorMessage,
	}, nil
}
