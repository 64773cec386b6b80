package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schema is written in the subset of SQL that PostgreSQL and SQLite share.
// {{timestamp}} is replaced with the driver's timestamp type.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS audit_runs (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		requested_by      TEXT NOT NULL DEFAULT '',
		config            TEXT NOT NULL,
		state             TEXT NOT NULL,
		created_at        {{timestamp}} NOT NULL,
		updated_at        {{timestamp}} NOT NULL,
		started_at        {{timestamp}},
		finished_at       {{timestamp}},
		pages_crawled     INTEGER NOT NULL DEFAULT 0,
		pages_analyzed    INTEGER NOT NULL DEFAULT 0,
		pages_failed      INTEGER NOT NULL DEFAULT 0,
		total_findings    INTEGER NOT NULL DEFAULT 0,
		critical_findings INTEGER NOT NULL DEFAULT 0,
		high_findings     INTEGER NOT NULL DEFAULT 0,
		medium_findings   INTEGER NOT NULL DEFAULT 0,
		low_findings      INTEGER NOT NULL DEFAULT 0,
		info_findings     INTEGER NOT NULL DEFAULT 0,
		overall_score     DOUBLE PRECISION,
		retry_count       INTEGER NOT NULL DEFAULT 0,
		max_retries       INTEGER NOT NULL DEFAULT 0,
		error_message     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_runs_created_at ON audit_runs (created_at)`,
	`CREATE TABLE IF NOT EXISTS audit_pages (
		audit_run_id     TEXT NOT NULL REFERENCES audit_runs (id) ON DELETE CASCADE,
		position         INTEGER NOT NULL,
		url              TEXT NOT NULL,
		final_url        TEXT NOT NULL,
		depth            INTEGER NOT NULL,
		status_code      INTEGER NOT NULL,
		response_time_ms DOUBLE PRECISION NOT NULL,
		content_length   BIGINT NOT NULL,
		content_type     TEXT NOT NULL,
		title            TEXT NOT NULL,
		meta_description TEXT NOT NULL,
		meta_keywords    TEXT NOT NULL,
		meta_robots      TEXT NOT NULL,
		viewport         TEXT NOT NULL,
		canonical_url    TEXT NOT NULL,
		language         TEXT NOT NULL,
		word_count       INTEGER NOT NULL,
		reading_time     INTEGER NOT NULL,
		headings         TEXT NOT NULL,
		images           TEXT NOT NULL,
		links            TEXT NOT NULL,
		scripts          TEXT NOT NULL,
		stylesheets      TEXT NOT NULL,
		redirect_chain   TEXT NOT NULL,
		crawled_at       {{timestamp}} NOT NULL,
		PRIMARY KEY (audit_run_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_findings (
		id             TEXT PRIMARY KEY,
		audit_run_id   TEXT NOT NULL REFERENCES audit_runs (id) ON DELETE CASCADE,
		position       INTEGER NOT NULL,
		page_url       TEXT NOT NULL,
		check_code     TEXT NOT NULL,
		check_name     TEXT NOT NULL,
		category       TEXT NOT NULL,
		severity       TEXT NOT NULL,
		status         TEXT NOT NULL,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL,
		recommendation TEXT NOT NULL,
		impact         TEXT NOT NULL,
		element        TEXT,
		attribute      TEXT,
		current_value  TEXT,
		expected_value TEXT,
		score_impact   DOUBLE PRECISION NOT NULL,
		difficulty     TEXT NOT NULL,
		priority_score INTEGER NOT NULL,
		tags           TEXT NOT NULL DEFAULT '{}',
		created_at     {{timestamp}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_findings_run ON audit_findings (audit_run_id, position)`,
	`CREATE TABLE IF NOT EXISTS audit_fetch_failures (
		audit_run_id TEXT NOT NULL REFERENCES audit_runs (id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		url          TEXT NOT NULL,
		depth        INTEGER NOT NULL,
		reason       TEXT NOT NULL,
		status_code  INTEGER NOT NULL DEFAULT 0,
		attempts     INTEGER NOT NULL DEFAULT 0,
		message      TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (audit_run_id, position)
	)`,
}

func timestampType(driver string) string {
	if driver == DriverPostgres {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

// Migrate creates the audit tables when they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	r := strings.NewReplacer("{{timestamp}}", timestampType(db.DriverName()))
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
