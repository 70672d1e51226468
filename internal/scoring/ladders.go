package scoring

// Ladder names used by pipelines and configuration.
const (
	LadderRisk           = "risk"
	LadderRecommendation = "recommendation"
	LadderTier           = "tier"
	LadderExpertise      = "expertise"
	LadderCompliance     = "compliance"
)

// Recommendation labels.
const (
	RecommendationAvoid     = "AVOID"
	RecommendationWeakHold  = "WEAK_HOLD"
	RecommendationHold      = "HOLD"
	RecommendationBuy       = "BUY"
	RecommendationStrongBuy = "STRONG_BUY"
)

// RiskLadder maps a weighted risk score to Low / Medium / High.
func RiskLadder() *ThresholdTable {
	return MustThresholdTable(
		Threshold{Lower: 0, Label: "Low"},
		Threshold{Lower: 31, Label: "Medium"},
		Threshold{Lower: 61, Label: "High"},
	)
}

// RecommendationLadder maps an overall tokenization score to a recommendation.
func RecommendationLadder() *ThresholdTable {
	return MustThresholdTable(
		Threshold{Lower: 0, Label: RecommendationAvoid},
		Threshold{Lower: 35, Label: RecommendationWeakHold},
		Threshold{Lower: 50, Label: RecommendationHold},
		Threshold{Lower: 65, Label: RecommendationBuy},
		Threshold{Lower: 80, Label: RecommendationStrongBuy},
	)
}

// TierLadder maps an eco score to a membership tier.
func TierLadder() *ThresholdTable {
	return MustThresholdTable(
		Threshold{Lower: 0, Label: "Bronze"},
		Threshold{Lower: 30, Label: "Silver"},
		Threshold{Lower: 60, Label: "Gold"},
		Threshold{Lower: 85, Label: "Platinum"},
	)
}

// ExpertiseLadder maps an eco score to the user's expertise bracket.
func ExpertiseLadder() *ThresholdTable {
	return MustThresholdTable(
		Threshold{Lower: 0, Label: "beginner"},
		Threshold{Lower: 30, Label: "intermediate"},
		Threshold{Lower: 70, Label: "advanced"},
		Threshold{Lower: 90, Label: "expert"},
	)
}

// ComplianceLadder only reports "compliant" when every applicable check passed.
func ComplianceLadder() *ThresholdTable {
	return MustThresholdTable(
		Threshold{Lower: 0, Label: "non_compliant"},
		Threshold{Lower: 100, Label: "compliant"},
	)
}

// DefaultLadders returns the built-in ladders keyed by name.
func DefaultLadders() map[string]*ThresholdTable {
	return map[string]*ThresholdTable{
		LadderRisk:           RiskLadder(),
		LadderRecommendation: RecommendationLadder(),
		LadderTier:           TierLadder(),
		LadderExpertise:      ExpertiseLadder(),
		LadderCompliance:     ComplianceLadder(),
	}
}
