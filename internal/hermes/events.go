package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

// ReportRequestEvent asks the service to assemble a report. Inputs missing
// from the event are collected from the configured analyzers.
type ReportRequestEvent struct {
	Pipeline string                      `json:"pipeline"`
	Subject  string                      `json:"subject"`
	Inputs   map[string]scoring.ScoreSet `json:"inputs,omitempty"`
}

type ReportAssembledEvent struct {
	ReportID     string    `json:"report_id"`
	Pipeline     string    `json:"pipeline"`
	Subject      string    `json:"subject"`
	OverallScore float64   `json:"overall_score"`
	Label        string    `json:"label,omitempty"`
	NextLabel    string    `json:"next_label,omitempty"`
	PointsNeeded float64   `json:"points_needed,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type StatsEvent struct {
	TotalReports    int       `json:"total_reports"`
	AvgOverallScore float64   `json:"avg_overall_score"`
	Timestamp       time.Time `json:"timestamp"`
}
