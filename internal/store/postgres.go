package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Scorecard/internal/report"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrReportExists is returned by SaveReport when a report with the same id is
// already stored. Reports are immutable once saved.
var ErrReportExists = errors.New("report already exists")

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate applies the embedded migrations in file name order. Every migration
// is idempotent, so it is safe to run on each start.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		ddl, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, r *report.Report) error {
	inputsJSON, stagesJSON, err := encodeReport(r)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO scorecard_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (report_id) DO NOTHING`,
		r.ID, r.Subject, r.Pipeline, r.OverallScore, r.Label, r.NextLabel,
		r.PointsNeeded, inputsJSON, stagesJSON, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrReportExists, r.ID)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	r, err := scanPostgresReport(s.pool.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM scorecard_reports WHERE report_id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]*report.Report, error) {
	query, args := listQuery(filter, func(n int) string { return fmt.Sprintf("$%d", n) })

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		r, err := scanPostgresReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *PostgresStore) GetStats(ctx context.Context) (*ReportStats, error) {
	stats := &ReportStats{ByLabel: []LabelCount{}}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(overall_score), 0)
		FROM scorecard_reports`,
	).Scan(&stats.TotalReports, &stats.AvgOverallScore)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, statsByLabelQuery)
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

func scanPostgresReport(row pgx.Row) (*report.Report, error) {
	r := &report.Report{}
	var inputsJSON, stagesJSON []byte
	if err := row.Scan(
		&r.ID, &r.Subject, &r.Pipeline, &r.OverallScore, &r.Label, &r.NextLabel,
		&r.PointsNeeded, &inputsJSON, &stagesJSON, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeReport(r, inputsJSON, stagesJSON); err != nil {
		return nil, err
	}
	return r, nil
}
