package scoring

import "math"

const (
	MinScore = 0.0
	MaxScore = 100.0

	// IntermediatePrecision is used for stage scores that feed later stages.
	IntermediatePrecision = 1
	// FinalPrecision is used for the overall score that gets classified.
	FinalPrecision = 0
)

// FactorResult captures one factor's contribution to an aggregate score.
type FactorResult struct {
	Name     string  `json:"name"`
	Raw      float64 `json:"raw"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Used     bool    `json:"used"`
	Reason   string  `json:"reason,omitempty"`
}

// Clamp limits v to [0, 100].
func Clamp(v float64) float64 {
	return clamp(v, MinScore, MaxScore)
}

// Invert maps a "higher is worse" score onto "higher is better", e.g. risk 35 -> 65.
func Invert(v float64) float64 {
	return MaxScore - Clamp(v)
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	if places <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
