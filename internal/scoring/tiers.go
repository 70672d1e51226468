package scoring

import (
	"fmt"
	"math"
)

// Threshold is one rung of a ladder: scores at or above Lower get Label,
// until the next rung's bound.
type Threshold struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Label string  `json:"label" yaml:"label"`
}

// ThresholdTable is a validated ladder of thresholds ordered by strictly increasing
// lower bound. Bounds are inclusive on the lower edge; the top label extends to 100
// and beyond. Scores below the first bound fall into the first label.
//
// A ThresholdTable is immutable and safe for concurrent use.
type ThresholdTable struct {
	thresholds []Threshold
}

// NewThresholdTable validates the ladder. Rungs must be given in ascending order;
// out-of-order or duplicate bounds are rejected rather than sorted, because they
// almost always mean a typo in configuration.
func NewThresholdTable(thresholds ...Threshold) (*ThresholdTable, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: threshold table is empty", ErrInvalidConfiguration)
	}
	seen := make(map[string]bool, len(thresholds))
	for i, t := range thresholds {
		if math.IsNaN(t.Lower) || t.Lower < MinScore || t.Lower > MaxScore {
			return nil, fmt.Errorf("%w: threshold %d (%q) bound %v outside [0,100]", ErrInvalidConfiguration, i, t.Label, t.Lower)
		}
		if t.Label == "" {
			return nil, fmt.Errorf("%w: threshold %d has an empty label", ErrInvalidConfiguration, i)
		}
		if seen[t.Label] {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidConfiguration, t.Label)
		}
		seen[t.Label] = true
		if i > 0 && t.Lower <= thresholds[i-1].Lower {
			return nil, fmt.Errorf("%w: threshold %q (%v) must be strictly above %q (%v)",
				ErrInvalidConfiguration, t.Label, t.Lower, thresholds[i-1].Label, thresholds[i-1].Lower)
		}
	}
	return &ThresholdTable{thresholds: append([]Threshold(nil), thresholds...)}, nil
}

// MustThresholdTable is NewThresholdTable for static ladders; it panics on error.
func MustThresholdTable(thresholds ...Threshold) *ThresholdTable {
	t, err := NewThresholdTable(thresholds...)
	if err != nil {
		panic(err)
	}
	return t
}

// Classify returns the label of the highest threshold whose bound is <= score.
// A zero-value table has no labels and returns "".
func (t *ThresholdTable) Classify(score float64) string {
	if len(t.thresholds) == 0 {
		return ""
	}
	return t.thresholds[t.Rank(score)].Label
}

// Rank returns the ladder index of the label Classify would return (0 = lowest).
func (t *ThresholdTable) Rank(score float64) int {
	rank := 0
	for i, th := range t.thresholds {
		if th.Lower <= score {
			rank = i
			continue
		}
		break
	}
	return rank
}

// Next returns the label above the score's current tier and how many points are
// missing to reach it. ok is false when the score is already in the top tier or
// the table is empty. A score below the first bound already holds the first
// label, so its next tier is the second rung.
func (t *ThresholdTable) Next(score float64) (label string, pointsNeeded float64, ok bool) {
	rank := t.Rank(score)
	if rank >= len(t.thresholds)-1 {
		return "", 0, false
	}
	next := t.thresholds[rank+1]
	return next.Label, next.Lower - score, true
}

// Labels returns the labels in ascending order.
func (t *ThresholdTable) Labels() []string {
	labels := make([]string, len(t.thresholds))
	for i, th := range t.thresholds {
		labels[i] = th.Label
	}
	return labels
}

// Thresholds returns a copy of the ladder.
func (t *ThresholdTable) Thresholds() []Threshold {
	return append([]Threshold(nil), t.thresholds...)
}

// Len returns the number of tiers.
func (t *ThresholdTable) Len() int {
	return len(t.thresholds)
}
