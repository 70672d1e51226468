package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

const reportColumns = `report_id, subject, pipeline, overall_score, label, next_label,
	points_needed, inputs, stages, created_at`

func encodeReport(r *report.Report) (inputs, stages []byte, err error) {
	inputs, err = json.Marshal(r.Inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode inputs: %w", err)
	}
	stages, err = json.Marshal(r.Stages)
	if err != nil {
		return nil, nil, fmt.Errorf("encode stages: %w", err)
	}
	return inputs, stages, nil
}

func decodeReport(r *report.Report, inputs, stages []byte) error {
	r.Inputs = map[string]scoring.ScoreSet{}
	if len(inputs) > 0 {
		if err := json.Unmarshal(inputs, &r.Inputs); err != nil {
			return fmt.Errorf("decode inputs: %w", err)
		}
	}
	if len(stages) > 0 {
		if err := json.Unmarshal(stages, &r.Stages); err != nil {
			return fmt.Errorf("decode stages: %w", err)
		}
	}
	return nil
}

// listQuery builds the ListReports query. placeholder renders the n-th bind
// parameter in the driver's syntax.
func listQuery(filter ReportFilter, placeholder func(n int) string) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT ` + reportColumns + ` FROM scorecard_reports WHERE 1=1`)
	args := []interface{}{}
	n := 0

	add := func(column string, v interface{}) {
		n++
		fmt.Fprintf(&b, " AND %s = %s", column, placeholder(n))
		args = append(args, v)
	}
	if filter.Pipeline != "" {
		add("pipeline", filter.Pipeline)
	}
	if filter.Subject != "" {
		add("subject", filter.Subject)
	}
	if filter.Label != "" {
		add("label", filter.Label)
	}

	b.WriteString(" ORDER BY created_at DESC, report_id ASC")

	n++
	fmt.Fprintf(&b, " LIMIT %s", placeholder(n))
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		n++
		fmt.Fprintf(&b, " OFFSET %s", placeholder(n))
		args = append(args, filter.Offset)
	}
	return b.String(), args
}

const statsByLabelQuery = `
	SELECT pipeline, label, COUNT(*)
	FROM scorecard_reports
	GROUP BY pipeline, label
	ORDER BY pipeline, label`
