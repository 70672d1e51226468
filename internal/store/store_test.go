package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func assembleCompliance(t *testing.T, at time.Time, subject string, checks map[string]bool) *report.Report {
	t.Helper()
	a, err := report.NewAssembler(report.DefaultPipelines(), scoring.DefaultLadders(), nil)
	require.NoError(t, err)
	r, err := a.Assemble(report.Request{
		ID:        uuid.New(),
		CreatedAt: at,
		Pipeline:  report.PipelineCompliance,
		Subject:   subject,
		Inputs:    map[string]scoring.ScoreSet{report.InputCompliance: report.ComplianceScores(checks)},
	})
	require.NoError(t, err)
	return r
}

var (
	allPassed = map[string]bool{"kyc_aml": true, "tax_compliance": true}
	oneFailed = map[string]bool{"kyc_aml": true, "tax_compliance": false}
)

func TestSQLiteSaveAndGetReport(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 4, 10, 30, 0, 123456000, time.UTC)

	want := assembleCompliance(t, at, "tower-a", oneFailed)
	require.NoError(t, s.SaveReport(ctx, want))

	got, err := s.GetReport(ctx, want.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, got)
}

func TestSQLiteCreatedAtRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"far future", time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"far past", time.Date(1600, 6, 15, 12, 0, 0, 0, time.UTC), time.Date(1600, 6, 15, 12, 0, 0, 0, time.UTC)},
		{"year 9999", time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC), time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)},
		{"truncated to micros", time.Date(2026, 5, 4, 10, 30, 0, 123456789, time.UTC), time.Date(2026, 5, 4, 10, 30, 0, 123456000, time.UTC)},
		{"non-UTC zone", time.Date(2026, 5, 4, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600)), time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := assembleCompliance(t, tt.at, "tower-a", allPassed)
			require.NoError(t, s.SaveReport(ctx, r))

			got, err := s.GetReport(ctx, r.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.CreatedAt)
		})
	}
}

func TestSQLiteGetReportNotFound(t *testing.T) {
	s := newSQLiteStore(t)

	got, err := s.GetReport(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil report, got %+v", got)
	}
}

func TestSQLiteSaveReportTwice(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	r := assembleCompliance(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "tower-a", allPassed)

	require.NoError(t, s.SaveReport(ctx, r))
	err := s.SaveReport(ctx, r)
	if !errors.Is(err, ErrReportExists) {
		t.Fatalf("expected ErrReportExists, got %v", err)
	}
}

func TestSQLiteListReports(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	var saved []*report.Report
	for i, subject := range []string{"tower-a", "tower-b", "tower-a", "tower-c"} {
		checks := allPassed
		if i%2 == 1 {
			checks = oneFailed
		}
		r := assembleCompliance(t, base.Add(time.Duration(i)*time.Hour), subject, checks)
		require.NoError(t, s.SaveReport(ctx, r))
		saved = append(saved, r)
	}

	all, err := s.ListReports(ctx, ReportFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Newest first.
	for i := range all {
		assert.Equal(t, saved[len(saved)-1-i].ID, all[i].ID)
	}

	bySubject, err := s.ListReports(ctx, ReportFilter{Subject: "tower-a"})
	require.NoError(t, err)
	assert.Len(t, bySubject, 2)

	byLabel, err := s.ListReports(ctx, ReportFilter{Label: "non_compliant"})
	require.NoError(t, err)
	assert.Len(t, byLabel, 2)

	byPipeline, err := s.ListReports(ctx, ReportFilter{Pipeline: report.PipelineEco})
	require.NoError(t, err)
	assert.Empty(t, byPipeline)

	page, err := s.ListReports(ctx, ReportFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, saved[2].ID, page[0].ID)
	assert.Equal(t, saved[1].ID, page[1].ID)
}

func TestSQLiteGetStats(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	empty, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalReports)
	assert.Empty(t, empty.ByLabel)

	require.NoError(t, s.SaveReport(ctx, assembleCompliance(t, at, "a", allPassed)))
	require.NoError(t, s.SaveReport(ctx, assembleCompliance(t, at.Add(time.Minute), "b", allPassed)))
	require.NoError(t, s.SaveReport(ctx, assembleCompliance(t, at.Add(2*time.Minute), "c", oneFailed)))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalReports)
	// (100 + 100 + 50) / 3
	assert.InDelta(t, 83.333, stats.AvgOverallScore, 0.001)
	assert.Equal(t, []LabelCount{
		{Pipeline: report.PipelineCompliance, Label: "compliant", Count: 2},
		{Pipeline: report.PipelineCompliance, Label: "non_compliant", Count: 1},
	}, stats.ByLabel)
}

func TestListQueryPlaceholders(t *testing.T) {
	query, args := listQuery(ReportFilter{Pipeline: "asset", Label: "BUY", Offset: 20},
		func(n int) string { return "$" + string(rune('0'+n)) })

	for _, want := range []string{"pipeline = $1", "label = $2", "LIMIT $3", "OFFSET $4", "ORDER BY created_at DESC"} {
		if !strings.Contains(query, want) {
			t.Errorf("expected query to contain %q: %s", want, query)
		}
	}
	if strings.Contains(query, "subject =") {
		t.Errorf("unexpected subject filter: %s", query)
	}
	want := []interface{}{"asset", "BUY", DefaultListLimit, 20}
	assert.Equal(t, want, args)
}
