package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Scorecard/internal/report"
)

// DefaultListLimit caps ListReports when the filter leaves Limit unset.
const DefaultListLimit = 100

type ReportFilter struct {
	Pipeline string
	Subject  string
	Label    string
	Limit    int
	Offset   int
}

func (f ReportFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// LabelCount is the number of stored reports of one pipeline with one label.
type LabelCount struct {
	Pipeline string `json:"pipeline"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
}

type ReportStats struct {
	TotalReports    int          `json:"total_reports"`
	AvgOverallScore float64      `json:"avg_overall_score"`
	ByLabel         []LabelCount `json:"by_label"`
}

type Store interface {
	SaveReport(ctx context.Context, r *report.Report) error
	// GetReport returns (nil, nil) when no report has the id.
	GetReport(ctx context.Context, id uuid.UUID) (*report.Report, error)
	// ListReports returns matching reports, newest first.
	ListReports(ctx context.Context, filter ReportFilter) ([]*report.Report, error)

	GetStats(ctx context.Context) (*ReportStats, error)

	Close() error
}
