package models

// RiskTier is the triage tier assigned to a symptom report.
type RiskTier string

const (
	TierLow      RiskTier = "low"
	TierMedium   RiskTier = "medium"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)

var tierRank = map[RiskTier]int{
	TierLow:      0,
	TierMedium:   1,
	TierHigh:     2,
	TierCritical: 3,
}

// AtLeast reports whether t is at or above the given tier.
func (t RiskTier) AtLeast(min RiskTier) bool {
	return tierRank[t] >= tierRank[min]
}

// RiskAssessment is derived 1:1 from a SymptomReport at classification time.
// Invariant: SeekImmediateCare is true iff RiskTier is critical.
type RiskAssessment struct {
	RiskTier          RiskTier `json:"risk_tier"`
	Recommendations   []string `json:"recommendations"`
	SeekImmediateCare bool     `json:"seek_immediate_care"`
	Confidence        float64  `json:"confidence"`
}
