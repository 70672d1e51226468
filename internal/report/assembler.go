package report

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

// ErrUnknownPipeline is returned when a report is requested for a pipeline the
// assembler was not configured with.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// Request carries everything a report is built from. ID and CreatedAt are
// supplied by the caller so the assembler stays deterministic.
type Request struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Pipeline  string
	Subject   string
	Inputs    map[string]scoring.ScoreSet
}

// Assembler runs pipelines over sub-scores and packages the results into reports.
// It holds no mutable state and is safe for concurrent use.
type Assembler struct {
	pipelines map[string]Pipeline
	ladders   map[string]*scoring.ThresholdTable
	logger    *slog.Logger
}

// NewAssembler validates every pipeline up front, so a bad weight table or ladder
// reference fails at startup rather than on the first request.
func NewAssembler(pipelines []Pipeline, ladders map[string]*scoring.ThresholdTable, logger *slog.Logger) (*Assembler, error) {
	a := &Assembler{
		pipelines: make(map[string]Pipeline, len(pipelines)),
		ladders:   make(map[string]*scoring.ThresholdTable, len(ladders)),
		logger:    logger,
	}
	for name, l := range ladders {
		if l == nil {
			return nil, fmt.Errorf("%w: ladder %q is nil", scoring.ErrInvalidConfiguration, name)
		}
		a.ladders[name] = l
	}
	for _, p := range pipelines {
		if err := p.Validate(a.ladders); err != nil {
			return nil, err
		}
		if _, dup := a.pipelines[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate pipeline %q", scoring.ErrInvalidConfiguration, p.Name)
		}
		a.pipelines[p.Name] = clonePipeline(p)
	}
	return a, nil
}

// Pipelines returns the configured pipeline names in sorted order.
func (a *Assembler) Pipelines() []string {
	names := make([]string, 0, len(a.pipelines))
	for name := range a.pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pipeline returns a copy of the named pipeline definition.
func (a *Assembler) Pipeline(name string) (Pipeline, bool) {
	p, ok := a.pipelines[name]
	if !ok {
		return Pipeline{}, false
	}
	return clonePipeline(p), true
}

// Ladder returns the named ladder.
func (a *Assembler) Ladder(name string) (*scoring.ThresholdTable, bool) {
	l, ok := a.ladders[name]
	return l, ok
}

// Ladders returns the configured ladder names in sorted order.
func (a *Assembler) Ladders() []string {
	names := make([]string, 0, len(a.ladders))
	for name := range a.ladders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Assemble runs the requested pipeline and returns the finished report.
//
// Stage scores are rounded to scoring.IntermediatePrecision before later stages
// read them; the overall score is rounded to scoring.FinalPrecision before it is
// classified.
func (a *Assembler) Assemble(req Request) (*Report, error) {
	p, ok := a.pipelines[req.Pipeline]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, req.Pipeline)
	}
	if req.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: report id is required", scoring.ErrInvalidInput)
	}
	if req.CreatedAt.IsZero() {
		return nil, fmt.Errorf("%w: report timestamp is required", scoring.ErrInvalidInput)
	}

	rep := &Report{
		ID:        req.ID,
		Subject:   req.Subject,
		Pipeline:  p.Name,
		CreatedAt: req.CreatedAt,
		Inputs:    copyInputs(req.Inputs),
	}

	stageScores := make(scoring.ScoreSet, len(p.Stages))
	overallName := p.OverallStage()
	overallIdx := -1

	for _, s := range p.Stages {
		scores := stageScores
		if s.Source != "" {
			in, ok := rep.Inputs[s.Source]
			if !ok || len(in) == 0 {
				return nil, fmt.Errorf("stage %q: %w: input %q is missing", s.Name, scoring.ErrInvalidInput, s.Source)
			}
			scores = in
		}

		b, err := scoring.AggregateDetailed(scores, s.Weights)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", s.Name, err)
		}

		raw := scoring.Clamp(b.Score * s.scale())
		if s.Invert {
			raw = scoring.Invert(raw)
		}
		res := StageResult{
			Name:    s.Name,
			Raw:     raw,
			Score:   scoring.Round(raw, scoring.IntermediatePrecision),
			Factors: b.Factors,
		}
		if s.Ladder != "" {
			res.Label = a.ladders[s.Ladder].Classify(res.Score)
		}

		stageScores[s.Name] = res.Score
		if s.Name == overallName {
			overallIdx = len(rep.Stages)
		}
		rep.Stages = append(rep.Stages, res)
	}

	rep.OverallScore = scoring.Round(rep.Stages[overallIdx].Raw, scoring.FinalPrecision)
	if ladder := a.overallLadder(p); ladder != nil {
		// The overall stage is labelled from the integer score, like the report.
		rep.Label = ladder.Classify(rep.OverallScore)
		rep.Stages[overallIdx].Label = rep.Label
		if next, points, ok := ladder.Next(rep.OverallScore); ok {
			rep.NextLabel = next
			rep.PointsNeeded = points
		}
	}

	if a.logger != nil {
		a.logger.Debug("report assembled",
			"report_id", rep.ID,
			"pipeline", rep.Pipeline,
			"subject", rep.Subject,
			"overall_score", rep.OverallScore,
			"label", rep.Label,
		)
	}
	return rep, nil
}

func (a *Assembler) overallLadder(p Pipeline) *scoring.ThresholdTable {
	name := p.OverallStage()
	for _, s := range p.Stages {
		if s.Name == name && s.Ladder != "" {
			return a.ladders[s.Ladder]
		}
	}
	return nil
}

func clonePipeline(p Pipeline) Pipeline {
	out := Pipeline{Name: p.Name, Overall: p.Overall, Stages: make([]Stage, len(p.Stages))}
	for i, s := range p.Stages {
		s.Weights = s.Weights.Clone()
		out.Stages[i] = s
	}
	return out
}
