package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MikeSquared-Agency/Scorecard/internal/report"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS scorecard_reports (
		report_id     TEXT PRIMARY KEY,
		subject       TEXT NOT NULL,
		pipeline      TEXT NOT NULL,
		overall_score REAL NOT NULL,
		label         TEXT NOT NULL DEFAULT '',
		next_label    TEXT NOT NULL DEFAULT '',
		points_needed REAL NOT NULL DEFAULT 0,
		inputs        TEXT NOT NULL,
		stages        TEXT NOT NULL,
		created_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scorecard_reports_pipeline ON scorecard_reports (pipeline, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_scorecard_reports_subject ON scorecard_reports (subject, created_at DESC);`

// SQLiteStore keeps reports in a local SQLite file, for single-node
// deployments and development. created_at is stored as unix microseconds,
// the precision Postgres keeps.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path; ":memory:" works for
// throwaway stores.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, r *report.Report) error {
	inputsJSON, stagesJSON, err := encodeReport(r)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scorecard_reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (report_id) DO NOTHING`,
		r.ID.String(), r.Subject, r.Pipeline, r.OverallScore, r.Label, r.NextLabel,
		r.PointsNeeded, string(inputsJSON), string(stagesJSON), r.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrReportExists, r.ID)
	}
	return nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	r, err := scanSQLiteReport(s.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM scorecard_reports WHERE report_id = ?`, id.String(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]*report.Report, error) {
	query, args := listQuery(filter, func(int) string { return "?" })

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		r, err := scanSQLiteReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*ReportStats, error) {
	stats := &ReportStats{ByLabel: []LabelCount{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(overall_score), 0)
		FROM scorecard_reports`,
	).Scan(&stats.TotalReports, &stats.AvgOverallScore)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, statsByLabelQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Pipeline, &lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		stats.ByLabel = append(stats.ByLabel, lc)
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteReport(row rowScanner) (*report.Report, error) {
	r := &report.Report{}
	var (
		id                     string
		inputsJSON, stagesJSON string
		createdAt              int64
	)
	if err := row.Scan(
		&id, &r.Subject, &r.Pipeline, &r.OverallScore, &r.Label, &r.NextLabel,
		&r.PointsNeeded, &inputsJSON, &stagesJSON, &createdAt,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse report id %q: %w", id, err)
	}
	r.ID = parsed
	r.CreatedAt = time.UnixMicro(createdAt).UTC()
	if err := decodeReport(r, []byte(inputsJSON), []byte(stagesJSON)); err != nil {
		return nil, err
	}
	return r, nil
}
