package scoring

import (
	"fmt"
	"math"
	"sort"
)

// ScoreSet maps a factor name to its sub-score, nominally in [0, 100].
type ScoreSet map[string]float64

// WeightTable maps a factor name to its relative importance.
// Weights need not sum to 1; aggregation normalizes by the weights actually used.
type WeightTable map[string]float64

// With returns a copy of the set with one extra (or replaced) factor.
func (s ScoreSet) With(name string, value float64) ScoreSet {
	out := s.Clone()
	out[name] = value
	return out
}

// Clone returns a shallow copy. A nil set clones to an empty one.
func (s ScoreSet) Clone() ScoreSet {
	out := make(ScoreSet, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Names returns the factor names in sorted order.
func (s ScoreSet) Names() []string {
	return sortedKeys(s)
}

// Clone returns a shallow copy of the table.
func (w WeightTable) Clone() WeightTable {
	out := make(WeightTable, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Sum returns the total of all weights.
func (w WeightTable) Sum() float64 {
	var total float64
	for _, name := range sortedKeys(w) {
		total += w[name]
	}
	return total
}

// Validate checks that the table is non-empty, has no negative or NaN weights,
// and that at least one weight is positive.
func (w WeightTable) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: weight table is empty", ErrInvalidConfiguration)
	}
	for _, name := range sortedKeys(w) {
		v := w[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight %q is not a finite number", ErrInvalidConfiguration, name)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative weight %q: %f", ErrInvalidConfiguration, name, v)
		}
	}
	sum := w.Sum()
	if math.IsInf(sum, 0) {
		return fmt.Errorf("%w: weights sum overflows", ErrInvalidConfiguration)
	}
	if sum <= 0 {
		return fmt.Errorf("%w: weights sum to %.4f, must be positive", ErrInvalidConfiguration, sum)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultRiskWeights returns the weight of each risk factor in the weighted risk score.
func DefaultRiskWeights() WeightTable {
	return WeightTable{
		"market_volatility":  0.15,
		"liquidity_risk":     0.20,
		"regulatory_risk":    0.10,
		"operational_risk":   0.12,
		"credit_risk":        0.18,
		"technology_risk":    0.08,
		"environmental_risk": 0.17,
	}
}

// DefaultOverallWeights combines the already-aggregated valuation, inverted risk
// and market dimensions into the tokenization readiness score.
func DefaultOverallWeights() WeightTable {
	return WeightTable{
		"valuation": 0.40,
		"risk":      0.35,
		"market":    0.25,
	}
}

// DefaultEcoWeights weights each eco sub-score by the points it could contribute
// to the additive eco score (action 80, consistency 15, diversity 10, impact 15).
func DefaultEcoWeights() WeightTable {
	return WeightTable{
		"action":      80,
		"consistency": 15,
		"diversity":   10,
		"impact":      15,
	}
}
