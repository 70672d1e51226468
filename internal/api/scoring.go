package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/Scorecard/internal/broker"
	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

// ScoringHandler exposes the stateless scoring primitives and the configured
// ladders and pipelines.
type ScoringHandler struct {
	assembler *report.Assembler
}

func NewScoringHandler(a *report.Assembler) *ScoringHandler {
	return &ScoringHandler{assembler: a}
}

type AggregateRequest struct {
	Scores  scoring.ScoreSet    `json:"scores"`
	Weights scoring.WeightTable `json:"weights"`
}

type AggregateResponse struct {
	Score   float64                `json:"score"`
	Rounded float64                `json:"rounded"`
	Factors []scoring.FactorResult `json:"factors"`
}

// Aggregate computes a weighted score from caller-supplied tables, so a bad
// weight table is the caller's error here (422), not a server misconfiguration.
func (h *ScoringHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := scoring.AggregateDetailed(req.Scores, req.Weights)
	if err != nil {
		broker.RecordError(err)
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AggregateResponse{
		Score:   b.Score,
		Rounded: scoring.Round(b.Score, scoring.FinalPrecision),
		Factors: b.Factors,
	})
}

type ClassifyRequest struct {
	Score      *float64            `json:"score"`
	Ladder     string              `json:"ladder,omitempty"`
	Thresholds []scoring.Threshold `json:"thresholds,omitempty"`
}

type ClassifyResponse struct {
	Label        string  `json:"label"`
	Rank         int     `json:"rank"`
	NextLabel    string  `json:"next_label,omitempty"`
	PointsNeeded float64 `json:"points_needed,omitempty"`
}

// Classify labels a score with a configured ladder or with thresholds given
// inline.
func (h *ScoringHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Score == nil {
		writeErr(w, http.StatusBadRequest, "score required")
		return
	}

	var table *scoring.ThresholdTable
	switch {
	case req.Ladder != "" && len(req.Thresholds) > 0:
		writeErr(w, http.StatusBadRequest, "ladder and thresholds are mutually exclusive")
		return
	case req.Ladder != "":
		t, ok := h.assembler.Ladder(req.Ladder)
		if !ok {
			writeErr(w, http.StatusNotFound, "ladder not found")
			return
		}
		table = t
	case len(req.Thresholds) > 0:
		t, err := scoring.NewThresholdTable(req.Thresholds...)
		if err != nil {
			broker.RecordError(err)
			writeErr(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		table = t
	default:
		writeErr(w, http.StatusBadRequest, "ladder or thresholds required")
		return
	}

	resp := ClassifyResponse{
		Label: table.Classify(*req.Score),
		Rank:  table.Rank(*req.Score),
	}
	if next, points, ok := table.Next(*req.Score); ok {
		resp.NextLabel = next
		resp.PointsNeeded = points
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ScoringHandler) Ladders(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]scoring.Threshold)
	for _, name := range h.assembler.Ladders() {
		l, _ := h.assembler.Ladder(name)
		out[name] = l.Thresholds()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ScoringHandler) Pipelines(w http.ResponseWriter, r *http.Request) {
	out := []report.Pipeline{}
	for _, name := range h.assembler.Pipelines() {
		p, _ := h.assembler.Pipeline(name)
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, out)
}
