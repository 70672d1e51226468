package report

import (
	"math"

	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
)

// Built-in pipeline names.
const (
	PipelineAsset      = "asset"
	PipelineCompliance = "compliance"
	PipelineEco        = "eco"
)

// Input score set names read by the built-in pipelines.
const (
	InputValuation  = "valuation"
	InputRisk       = "risk"
	InputMarket     = "market"
	InputCompliance = "compliance"
	InputEco        = "eco"
)

// ComplianceChecks are the regulatory checks of the compliance pipeline.
var ComplianceChecks = []string{
	"securities_regulation",
	"kyc_aml",
	"tax_compliance",
	"environmental_compliance",
	"zoning_permits",
}

// DefaultPipelines returns the built-in pipelines.
func DefaultPipelines() []Pipeline {
	return []Pipeline{AssetPipeline(), CompliancePipeline(), EcoPipeline()}
}

// AssetPipeline scores tokenization readiness of an asset.
//
//	valuation = min(100, confidence * 1.1)
//	risk      = 100 - weighted risk factors
//	market    = mean(liquidity, demand)
//	overall   = valuation*0.40 + risk*0.35 + market*0.25  -> recommendation
func AssetPipeline() Pipeline {
	return Pipeline{
		Name:    PipelineAsset,
		Overall: "overall",
		Stages: []Stage{
			{Name: "valuation", Source: InputValuation, Weights: scoring.WeightTable{"confidence": 1}, Scale: 1.1},
			{Name: "risk_level", Source: InputRisk, Weights: scoring.DefaultRiskWeights(), Ladder: scoring.LadderRisk},
			{Name: "risk", Source: InputRisk, Weights: scoring.DefaultRiskWeights(), Invert: true},
			{Name: "market", Source: InputMarket, Weights: scoring.WeightTable{"liquidity": 1, "demand": 1}},
			{Name: "overall", Weights: scoring.DefaultOverallWeights(), Ladder: scoring.LadderRecommendation},
		},
	}
}

// CompliancePipeline scores the share of passed compliance checks. Checks not
// applicable to an asset are left out of the input and do not count.
func CompliancePipeline() Pipeline {
	weights := make(scoring.WeightTable, len(ComplianceChecks))
	for _, c := range ComplianceChecks {
		weights[c] = 1
	}
	return Pipeline{
		Name: PipelineCompliance,
		Stages: []Stage{
			{Name: "compliance", Source: InputCompliance, Weights: weights, Ladder: scoring.LadderCompliance},
		},
	}
}

// EcoPipeline scores a user's sustainability activity into a membership tier.
// The eco score is the sum of the capped sub-score points, at most 100. With
// the caps as weights the weighted mean is that sum over 120, hence Scale 1.2.
func EcoPipeline() Pipeline {
	return Pipeline{
		Name:    PipelineEco,
		Overall: "eco_score",
		Stages: []Stage{
			{Name: "eco_score", Source: InputEco, Weights: scoring.DefaultEcoWeights(), Scale: 1.2, Ladder: scoring.LadderTier},
			{Name: "expertise", Weights: scoring.WeightTable{"eco_score": 1}, Ladder: scoring.LadderExpertise},
		},
	}
}

// ComplianceScores maps pass/fail checks onto 100/0 sub-scores.
func ComplianceScores(checks map[string]bool) scoring.ScoreSet {
	out := make(scoring.ScoreSet, len(checks))
	for name, passed := range checks {
		if passed {
			out[name] = scoring.MaxScore
		} else {
			out[name] = scoring.MinScore
		}
	}
	return out
}

// EcoActivity summarizes a user's eco-action log.
type EcoActivity struct {
	Actions      int     `json:"actions"`
	Categories   int     `json:"categories"`
	CarbonOffset float64 `json:"carbon_offset"` // tons CO2
}

// EcoActionScores derives the eco sub-scores from an activity summary. Each
// sub-score is the fraction of its cap reached, on [0, 100]:
//
//	action      2 points per action,    cap 80
//	consistency 0.5 points per action,  cap 15
//	diversity   2 points per category,  cap 10
//	impact      10 points per ton CO2,  cap 15
func EcoActionScores(a EcoActivity) scoring.ScoreSet {
	n := float64(a.Actions)
	return scoring.ScoreSet{
		"action":      capped(n*2, 80),
		"consistency": capped(n*0.5, 15),
		"diversity":   capped(float64(a.Categories)*2, 10),
		"impact":      capped(a.CarbonOffset*10, 15),
	}
}

func capped(points, limit float64) float64 {
	return math.Max(0, math.Min(points, limit)) / limit * scoring.MaxScore
}
