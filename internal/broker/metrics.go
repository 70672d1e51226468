package broker

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

var (
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorecard_reports_total",
		Help: "Reports assembled, by pipeline and label.",
	}, []string{"pipeline", "label"})

	overallScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scorecard_overall_score",
		Help:    "Overall report scores, by pipeline.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	}, []string{"pipeline"})

	scoringErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorecard_scoring_errors_total",
		Help: "Rejected scoring requests, by error kind.",
	}, []string{"kind"})

	analyzerErrors = scoringErrors.WithLabelValues("analyzer")
)

// Error kinds reported by ErrorKind.
const (
	KindInvalidInput         = "invalid_input"
	KindInvalidConfiguration = "invalid_configuration"
	KindUnknownPipeline      = "unknown_pipeline"
	KindInternal             = "internal"
)

// ErrorKind classifies a scoring error for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, scoring.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, scoring.ErrInvalidConfiguration):
		return KindInvalidConfiguration
	case errors.Is(err, report.ErrUnknownPipeline):
		return KindUnknownPipeline
	default:
		return KindInternal
	}
}

// RecordError counts a rejected scoring request.
func RecordError(err error) {
	scoringErrors.WithLabelValues(ErrorKind(err)).Inc()
}

// RecordReport counts an assembled report and observes its overall score.
func RecordReport(rep *report.Report) {
	reportsTotal.WithLabelValues(rep.Pipeline, rep.Label).Inc()
	overallScore.WithLabelValues(rep.Pipeline).Observe(rep.OverallScore)
}
