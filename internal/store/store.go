// SPDX-License-Identifier: Apache-2.0

// Package store persists uploaded row sets and produced reports in SQLite,
// keyed by opaque identifiers, with a finite retention window.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/getsproj/getscheck/internal/analyze"
	"github.com/getsproj/getscheck/internal/report"
)

// DefaultRetention is how long uploads and reports are kept before the
// purge removes them.
const DefaultRetention = 7 * 24 * time.Hour

// ErrNotFound is returned when the requested record does not exist or has
// aged out of the retention window.
var ErrNotFound = errors.New("not found")

const ddl = `
CREATE TABLE IF NOT EXISTS uploads (
	upload_id   TEXT PRIMARY KEY,
	country     TEXT NOT NULL DEFAULT '',
	erp         TEXT NOT NULL DEFAULT '',
	rows_parsed INTEGER NOT NULL,
	raw_data    TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
	report_id      TEXT PRIMARY KEY,
	upload_id      TEXT NOT NULL,
	scores_overall INTEGER NOT NULL,
	report_json    TEXT NOT NULL,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_uploads_created ON uploads(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
`

// Upload is a stored row set plus the context captured at upload time.
type Upload struct {
	UploadID   string
	Country    string
	ERP        string
	RowsParsed int
	Rows       []analyze.Row
	CreatedAt  time.Time
}

// ReportSummary is the listing shape for recent reports.
type ReportSummary struct {
	ReportID     string    `json:"reportId"`
	OverallScore int       `json:"overallScore"`
	Date         time.Time `json:"date"`
}

// Store wraps the SQLite database.
type Store struct {
	db        *sql.DB
	retention time.Duration
}

// Open opens (creating if needed) the SQLite database at path. A
// non-positive retention falls back to DefaultRetention.
func Open(path string, retention time.Duration) (*Store, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, retention: retention}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports database reachability, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// NewUploadID returns a fresh upload identifier.
func NewUploadID() string {
	return "u_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// SaveUpload stores a row set. CreatedAt is stamped here.
func (s *Store) SaveUpload(ctx context.Context, u Upload) error {
	raw, err := json.Marshal(u.Rows)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO uploads (upload_id, country, erp, rows_parsed, raw_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.UploadID, u.Country, u.ERP, u.RowsParsed, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// GetUpload retrieves an upload by id. Records past the retention window
// report ErrNotFound even before the purge removes them.
func (s *Store) GetUpload(ctx context.Context, id string) (*Upload, error) {
	var (
		u       Upload
		raw     string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT upload_id, country, erp, rows_parsed, raw_data, created_at
		 FROM uploads WHERE upload_id = ? AND created_at >= ?`,
		id, s.cutoff()).
		Scan(&u.UploadID, &u.Country, &u.ERP, &u.RowsParsed, &raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query upload: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &u.Rows); err != nil {
		return nil, fmt.Errorf("unmarshal rows: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0)
	return &u, nil
}

// SaveReport stores a produced report document.
func (s *Store) SaveReport(ctx context.Context, uploadID string, rep report.Report) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (report_id, upload_id, scores_overall, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rep.ReportID, uploadID, rep.Scores.Overall, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport returns the stored report JSON verbatim.
func (s *Store) GetReport(ctx context.Context, id string) (json.RawMessage, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM reports WHERE report_id = ? AND created_at >= ?`,
		id, s.cutoff()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}
	return json.RawMessage(raw), nil
}

// RecentReports lists the newest reports, most recent first.
func (s *Store) RecentReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT report_id, scores_overall, created_at
		 FROM reports WHERE created_at >= ?
		 ORDER BY created_at DESC, report_id DESC LIMIT ?`,
		s.cutoff(), limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	summaries := []ReportSummary{}
	for rows.Next() {
		var (
			sum     ReportSummary
			created int64
		)
		if err := rows.Scan(&sum.ReportID, &sum.OverallScore, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		sum.Date = time.Unix(created, 0)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Purge deletes uploads and reports older than the retention window.
func (s *Store) Purge(ctx context.Context) error {
	cutoff := s.cutoff()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("purge uploads: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("purge reports: %w", err)
	}
	return nil
}

func (s *Store) cutoff() int64 {
	return time.Now().Add(-s.retention).Unix()
}
