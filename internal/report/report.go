package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

// StageResult is the outcome of one pipeline stage.
type StageResult struct {
	Name    string                 `json:"name"`
	Raw     float64                `json:"raw"`
	Score   float64                `json:"score"`
	Label   string                 `json:"label,omitempty"`
	Factors []scoring.FactorResult `json:"factors"`
}

// Report is the packaged result of a pipeline run: the inputs it was given,
// every intermediate stage score and the final score and label.
//
// Reports are built once by the Assembler and never modified afterwards; the
// inputs are copied so later changes by the caller do not leak in.
type Report struct {
	ID           uuid.UUID                   `json:"id"`
	Subject      string                      `json:"subject"`
	Pipeline     string                      `json:"pipeline"`
	CreatedAt    time.Time                   `json:"created_at"`
	Inputs       map[string]scoring.ScoreSet `json:"inputs"`
	Stages       []StageResult               `json:"stages"`
	OverallScore float64                     `json:"overall_score"`
	Label        string                      `json:"label,omitempty"`
	NextLabel    string                      `json:"next_label,omitempty"`
	PointsNeeded float64                     `json:"points_needed,omitempty"`
}

// Stage returns the result of the named stage.
func (r *Report) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

func copyInputs(in map[string]scoring.ScoreSet) map[string]scoring.ScoreSet {
	out := make(map[string]scoring.ScoreSet, len(in))
	for name, set := range in {
		out[name] = set.Clone()
	}
	return out
}
