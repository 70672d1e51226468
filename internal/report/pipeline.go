package report

import (
	"fmt"
	"math"

	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

// Stage is one aggregation step of a pipeline.
//
// A stage with a Source reads the named input score set. A stage without a Source
// reads the scores of the stages before it, which is how already-aggregated
// dimensions are combined into an overall score.
type Stage struct {
	Name    string              `json:"name" yaml:"name"`
	Source  string              `json:"source,omitempty" yaml:"source"`
	Weights scoring.WeightTable `json:"weights" yaml:"weights"`
	Scale   float64             `json:"scale,omitempty" yaml:"scale"`   // 0 means 1
	Invert  bool                `json:"invert,omitempty" yaml:"invert"` // applied after Scale
	Ladder  string              `json:"ladder,omitempty" yaml:"ladder"`
}

// Pipeline is an ordered list of stages. Overall names the stage whose score,
// rounded to an integer, becomes the report's overall score; it defaults to the
// last stage.
type Pipeline struct {
	Name    string  `json:"name" yaml:"name"`
	Overall string  `json:"overall,omitempty" yaml:"overall"`
	Stages  []Stage `json:"stages" yaml:"stages"`
}

// OverallStage returns the name of the stage that produces the overall score.
func (p Pipeline) OverallStage() string {
	if p.Overall != "" {
		return p.Overall
	}
	if len(p.Stages) == 0 {
		return ""
	}
	return p.Stages[len(p.Stages)-1].Name
}

// Sources returns the input score sets the pipeline reads, in stage order.
func (p Pipeline) Sources() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range p.Stages {
		if s.Source != "" && !seen[s.Source] {
			seen[s.Source] = true
			out = append(out, s.Source)
		}
	}
	return out
}

// Validate checks the pipeline against the available ladders. All failures
// wrap scoring.ErrInvalidConfiguration.
func (p Pipeline) Validate(ladders map[string]*scoring.ThresholdTable) error {
	if p.Name == "" {
		return fmt.Errorf("%w: pipeline has no name", scoring.ErrInvalidConfiguration)
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("%w: pipeline %q has no stages", scoring.ErrInvalidConfiguration, p.Name)
	}

	prior := make(map[string]bool, len(p.Stages))
	for i, s := range p.Stages {
		if s.Name == "" {
			return fmt.Errorf("%w: pipeline %q stage %d has no name", scoring.ErrInvalidConfiguration, p.Name, i)
		}
		if prior[s.Name] {
			return fmt.Errorf("%w: pipeline %q has duplicate stage %q", scoring.ErrInvalidConfiguration, p.Name, s.Name)
		}
		if err := s.Weights.Validate(); err != nil {
			return fmt.Errorf("pipeline %q stage %q: %w", p.Name, s.Name, err)
		}
		if math.IsNaN(s.Scale) || s.Scale < 0 {
			return fmt.Errorf("%w: pipeline %q stage %q has invalid scale %v", scoring.ErrInvalidConfiguration, p.Name, s.Name, s.Scale)
		}
		if s.Ladder != "" {
			if _, ok := ladders[s.Ladder]; !ok {
				return fmt.Errorf("%w: pipeline %q stage %q references unknown ladder %q", scoring.ErrInvalidConfiguration, p.Name, s.Name, s.Ladder)
			}
		}
		if s.Source == "" && !readsAny(s.Weights, prior) {
			return fmt.Errorf("%w: pipeline %q stage %q has no source and weights no earlier stage", scoring.ErrInvalidConfiguration, p.Name, s.Name)
		}
		prior[s.Name] = true
	}

	if !prior[p.OverallStage()] {
		return fmt.Errorf("%w: pipeline %q overall stage %q does not exist", scoring.ErrInvalidConfiguration, p.Name, p.Overall)
	}
	return nil
}

func (s Stage) scale() float64 {
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

func readsAny(weights scoring.WeightTable, stages map[string]bool) bool {
	for name := range weights {
		if stages[name] {
			return true
		}
	}
	return false
}
