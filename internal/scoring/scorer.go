package scoring

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput is returned when a score set cannot produce a weighted mean:
	// it is empty, shares no factor with the weight table, or the shared weights sum to zero.
	// Callers recover by supplying at least one valid factor.
	ErrInvalidInput = errors.New("invalid scoring input")

	// ErrInvalidConfiguration marks a malformed weight or threshold table.
	// It indicates a defect in static configuration and is never retried.
	ErrInvalidConfiguration = errors.New("invalid scoring configuration")
)

// Breakdown is the detailed output of a weighted aggregation.
type Breakdown struct {
	Score   float64        `json:"score"`
	Factors []FactorResult `json:"factors"`
}

// Aggregate combines the sub-scores with the weight table into one score in [0, 100].
//
//	score = sum(clamp(s_i) * w_i) / sum(w_i)   over factors present in both maps
//
// Factors missing from either side are ignored. Out-of-range sub-scores are clamped,
// not rejected.
func Aggregate(scores ScoreSet, weights WeightTable) (float64, error) {
	agg, err := AggregateDetailed(scores, weights)
	if err != nil {
		return 0, err
	}
	return agg.Score, nil
}

// AggregateDetailed is Aggregate with a per-factor breakdown. Factors that did
// not participate are included with Used=false so reports can still show them.
func AggregateDetailed(scores ScoreSet, weights WeightTable) (Breakdown, error) {
	if len(scores) == 0 {
		return Breakdown{}, fmt.Errorf("%w: score set is empty", ErrInvalidInput)
	}
	if err := weights.Validate(); err != nil {
		return Breakdown{}, err
	}

	var (
		factors     []FactorResult
		total       float64
		weightTotal float64
		used        int
	)

	// Sorted order keeps float summation identical across calls.
	for _, name := range sortedKeys(scores) {
		raw := scores[name]
		if math.IsNaN(raw) {
			return Breakdown{}, fmt.Errorf("%w: score %q is NaN", ErrInvalidInput, name)
		}
		fr := FactorResult{Name: name, Raw: raw, Score: Clamp(raw)}
		if fr.Score != raw {
			fr.Reason = "clamped"
		}

		w, ok := weights[name]
		if !ok {
			fr.Reason = "no weight"
			factors = append(factors, fr)
			continue
		}
		fr.Weight = w
		fr.Weighted = fr.Score * w
		fr.Used = true
		total += fr.Weighted
		weightTotal += w
		used++
		factors = append(factors, fr)
	}

	for _, name := range sortedKeys(weights) {
		if _, ok := scores[name]; !ok {
			factors = append(factors, FactorResult{Name: name, Weight: weights[name], Reason: "no score"})
		}
	}

	if used == 0 {
		return Breakdown{Factors: factors}, fmt.Errorf("%w: no factor is present in both scores and weights", ErrInvalidInput)
	}
	if weightTotal <= 0 {
		return Breakdown{Factors: factors}, fmt.Errorf("%w: weights of the scored factors sum to zero", ErrInvalidInput)
	}

	score := total / weightTotal
	if math.IsInf(total, 0) {
		score = rescaledMean(factors)
	}
	return Breakdown{Score: Clamp(score), Factors: factors}, nil
}

// rescaledMean recomputes the weighted mean with weights divided by the largest
// one, for weight tables large enough that score*weight overflows.
func rescaledMean(factors []FactorResult) float64 {
	var maxWeight float64
	for _, f := range factors {
		if f.Used && f.Weight > maxWeight {
			maxWeight = f.Weight
		}
	}
	var total, weightTotal float64
	for _, f := range factors {
		if !f.Used {
			continue
		}
		w := f.Weight / maxWeight
		total += f.Score * w
		weightTotal += w
	}
	return total / weightTotal
}
