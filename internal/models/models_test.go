package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationValidate(t *testing.T) {
	assert.NoError(t, Location{Latitude: 21.0285, Longitude: 105.8542}.Validate())
	assert.NoError(t, Location{Latitude: -90, Longitude: 180}.Validate())
	assert.Error(t, Location{Latitude: 91, Longitude: 0}.Validate())
	assert.Error(t, Location{Latitude: 0, Longitude: -181}.Validate())
}

func TestSymptomReportCreateValidate(t *testing.T) {
	valid := SymptomReportCreate{UserID: 1, Type: "bleeding", Severity: "severe"}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Type = "sneezing"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Severity = "catastrophic"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Location = &Location{Latitude: 100}
	assert.Error(t, bad.Validate())
}

func TestRiskTierAtLeast(t *testing.T) {
	assert.True(t, TierCritical.AtLeast(TierHigh))
	assert.True(t, TierHigh.AtLeast(TierHigh))
	assert.False(t, TierMedium.AtLeast(TierHigh))
	assert.False(t, TierLow.AtLeast(TierMedium))
}

func TestAlertStatusTerminal(t *testing.T) {
	assert.True(t, AlertResolved.Terminal())
	assert.True(t, AlertUnresolved.Terminal())
	assert.False(t, AlertOpen.Terminal())
	assert.False(t, AlertAcknowledged.Terminal())
	assert.False(t, AlertEscalated.Terminal())
}

func TestAlertMarshalsIDAsUUIDString(t *testing.T) {
	id := uuid.New()
	reportID := [16]byte(uuid.New())
	a := Alert{ID: id, ReportID: &reportID, Status: AlertOpen}

	raw, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id.String(), decoded["id"])
	assert.Equal(t, uuid.UUID(reportID).String(), decoded["report_id"])
}
