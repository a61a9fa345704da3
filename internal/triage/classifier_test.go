package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergency-service/internal/models"
)

func report(t models.SymptomType, s models.Severity) models.SymptomReport {
	return models.SymptomReport{UserID: 1, Type: t, Severity: s}
}

func TestClassifyCoversFullMatrix(t *testing.T) {
	types := []models.SymptomType{
		models.SymptomNausea, models.SymptomHeadache, models.SymptomSwelling,
		models.SymptomBleeding, models.SymptomContractions, models.SymptomDizziness,
		models.SymptomFatigue, models.SymptomBackPain, models.SymptomCramping,
		models.SymptomOther,
	}
	severities := []models.Severity{models.SeverityMild, models.SeverityModerate, models.SeveritySevere}

	for _, typ := range types {
		for _, sev := range severities {
			a := Classify(report(typ, sev))
			assert.InDelta(t, matrixConfidence, a.Confidence, 1e-9,
				"%s/%s should hit the matrix", typ, sev)
			assert.NotEmpty(t, a.Recommendations, "%s/%s", typ, sev)
			assert.Equal(t, a.RiskTier == models.TierCritical, a.SeekImmediateCare, "%s/%s", typ, sev)
		}
	}
}

func TestClassifySevereBleedingIsCritical(t *testing.T) {
	a := Classify(report(models.SymptomBleeding, models.SeveritySevere))

	require.Equal(t, models.TierCritical, a.RiskTier)
	assert.True(t, a.SeekImmediateCare)
	assert.Contains(t, a.Recommendations, "Seek immediate medical attention")
	assert.Contains(t, a.Recommendations, "Seek care for any bleeding regardless of severity")
}

func TestClassifyBleedingNeverBelowHigh(t *testing.T) {
	for _, sev := range []models.Severity{models.SeverityMild, models.SeverityModerate} {
		a := Classify(report(models.SymptomBleeding, sev))
		assert.Equal(t, models.TierHigh, a.RiskTier, "bleeding/%s", sev)
	}
}

func TestClassifyTierTable(t *testing.T) {
	cases := []struct {
		typ  models.SymptomType
		sev  models.Severity
		want models.RiskTier
	}{
		{models.SymptomContractions, models.SeveritySevere, models.TierHigh},
		{models.SymptomContractions, models.SeverityModerate, models.TierMedium},
		{models.SymptomContractions, models.SeverityMild, models.TierLow},
		{models.SymptomHeadache, models.SeveritySevere, models.TierMedium},
		{models.SymptomSwelling, models.SeveritySevere, models.TierMedium},
		{models.SymptomDizziness, models.SeveritySevere, models.TierMedium},
		{models.SymptomNausea, models.SeveritySevere, models.TierLow},
		{models.SymptomFatigue, models.SeverityModerate, models.TierLow},
	}
	for _, tc := range cases {
		a := Classify(report(tc.typ, tc.sev))
		assert.Equal(t, tc.want, a.RiskTier, "%s/%s", tc.typ, tc.sev)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	r := report(models.SymptomHeadache, models.SeveritySevere)
	first := Classify(r)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(r))
	}
}

func TestClassifyUnknownCombinationDegrades(t *testing.T) {
	a := Classify(report(models.SymptomType("palpitations"), models.SeverityMild))

	assert.Equal(t, models.TierLow, a.RiskTier)
	assert.False(t, a.SeekImmediateCare)
	assert.InDelta(t, fallbackConfidence, a.Confidence, 1e-9)
	assert.Contains(t, a.Recommendations, "Assessment incomplete: symptom combination not recognized")
}
