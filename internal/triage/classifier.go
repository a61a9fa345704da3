package triage

import (
	"emergency-service/internal/models"
)

// Confidence values attached to assessments. The risk matrix is a fixed,
// auditable lookup, so confidence is a constant rather than a computed score;
// degraded (unmatched) assessments report a lower constant so callers can
// tell them apart.
const (
	matrixConfidence   = 0.85
	fallbackConfidence = 0.5
)

type matrixKey struct {
	Type     models.SymptomType
	Severity models.Severity
}

// riskMatrix covers the full (type, severity) product. Missing combinations
// are a test-time gap, not a runtime surprise; Classify still degrades to low
// if a key is absent.
var riskMatrix = map[matrixKey]models.RiskTier{
	{models.SymptomBleeding, models.SeveritySevere}:       models.TierCritical,
	{models.SymptomBleeding, models.SeverityModerate}:     models.TierHigh,
	{models.SymptomBleeding, models.SeverityMild}:         models.TierHigh,
	{models.SymptomContractions, models.SeveritySevere}:   models.TierHigh,
	{models.SymptomContractions, models.SeverityModerate}: models.TierMedium,
	{models.SymptomContractions, models.SeverityMild}:     models.TierLow,
	{models.SymptomHeadache, models.SeveritySevere}:       models.TierMedium,
	{models.SymptomHeadache, models.SeverityModerate}:     models.TierLow,
	{models.SymptomHeadache, models.SeverityMild}:         models.TierLow,
	{models.SymptomSwelling, models.SeveritySevere}:       models.TierMedium,
	{models.SymptomSwelling, models.SeverityModerate}:     models.TierLow,
	{models.SymptomSwelling, models.SeverityMild}:         models.TierLow,
	{models.SymptomDizziness, models.SeveritySevere}:      models.TierMedium,
	{models.SymptomDizziness, models.SeverityModerate}:    models.TierLow,
	{models.SymptomDizziness, models.SeverityMild}:        models.TierLow,
	{models.SymptomNausea, models.SeveritySevere}:         models.TierLow,
	{models.SymptomNausea, models.SeverityModerate}:       models.TierLow,
	{models.SymptomNausea, models.SeverityMild}:           models.TierLow,
	{models.SymptomFatigue, models.SeveritySevere}:        models.TierLow,
	{models.SymptomFatigue, models.SeverityModerate}:      models.TierLow,
	{models.SymptomFatigue, models.SeverityMild}:          models.TierLow,
	{models.SymptomBackPain, models.SeveritySevere}:       models.TierLow,
	{models.SymptomBackPain, models.SeverityModerate}:     models.TierLow,
	{models.SymptomBackPain, models.SeverityMild}:         models.TierLow,
	{models.SymptomCramping, models.SeveritySevere}:       models.TierLow,
	{models.SymptomCramping, models.SeverityModerate}:     models.TierLow,
	{models.SymptomCramping, models.SeverityMild}:         models.TierLow,
	{models.SymptomOther, models.SeveritySevere}:          models.TierLow,
	{models.SymptomOther, models.SeverityModerate}:        models.TierLow,
	{models.SymptomOther, models.SeverityMild}:            models.TierLow,
}

var tierRecommendations = map[models.RiskTier][]string{
	models.TierCritical: {
		"Seek immediate medical attention",
	},
	models.TierHigh: {
		"Contact your healthcare provider immediately",
		"Monitor symptoms closely",
	},
	models.TierMedium: {
		"Schedule an appointment with your healthcare provider",
		"Rest and monitor symptoms",
	},
	models.TierLow: {
		"Monitor symptoms",
		"Try home remedies if appropriate",
	},
}

var typeRecommendations = map[models.SymptomType][]string{
	models.SymptomBleeding: {
		"Seek care for any bleeding regardless of severity",
	},
	models.SymptomNausea: {
		"Eat small, frequent meals",
		"Stay hydrated",
		"Try ginger or peppermint tea",
	},
	models.SymptomHeadache: {
		"Rest in a quiet, dark room",
		"Stay hydrated",
		"Consider acetaminophen if approved by your doctor",
	},
	models.SymptomSwelling: {
		"Elevate your feet",
		"Reduce sodium intake",
		"Stay hydrated",
	},
}

// Classify maps a symptom report onto a risk assessment. It is a total,
// deterministic function: identical input always yields an identical
// assessment, and an unrecognized (type, severity) combination degrades to a
// conservative low tier instead of erroring.
func Classify(report models.SymptomReport) models.RiskAssessment {
	tier, known := riskMatrix[matrixKey{report.Type, report.Severity}]

	var recs []string
	if known {
		recs = append(recs, tierRecommendations[tier]...)
	} else {
		tier = models.TierLow
		recs = append(recs, "Assessment incomplete: symptom combination not recognized")
		recs = append(recs, tierRecommendations[models.TierLow]...)
	}
	recs = append(recs, typeRecommendations[report.Type]...)

	confidence := matrixConfidence
	if !known {
		confidence = fallbackConfidence
	}

	return models.RiskAssessment{
		RiskTier:          tier,
		Recommendations:   recs,
		SeekImmediateCare: tier == models.TierCritical,
		Confidence:        confidence,
	}
}
