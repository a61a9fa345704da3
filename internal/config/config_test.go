package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/emergency")
	t.Setenv("KAFKA_BROKER", "localhost:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "symptom_reports", cfg.Kafka.Topic)
	assert.Equal(t, "emergency-service", cfg.Kafka.GroupID)
	assert.Equal(t, ":8080", cfg.API.Port)
	assert.Equal(t, 5*time.Minute, cfg.Escalation.AckDeadline)
	assert.Equal(t, 3, cfg.Escalation.MaxRounds)
	assert.Equal(t, 3, cfg.Escalation.FacilityTopK)
	assert.Equal(t, 25.0, cfg.Escalation.FacilityRadiusKm)
	assert.Equal(t, 3, cfg.Escalation.DispatchMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Escalation.DispatchBackoff)
	assert.Equal(t, "high", cfg.Escalation.EscalationThreshold)
	assert.Equal(t, 10, cfg.RateLimit.MessagesPerSecond)
	assert.Equal(t, 500, cfg.Intake.QueueSize)
	assert.Equal(t, 10, cfg.Intake.MaxWorkers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/emergency")
	t.Setenv("KAFKA_BROKER", "localhost:9092")
	t.Setenv("ACK_DEADLINE_SECONDS", "60")
	t.Setenv("MAX_ESCALATION_ROUNDS", "5")
	t.Setenv("FACILITY_RADIUS_KM", "10.5")
	t.Setenv("ESCALATION_THRESHOLD", "critical")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Escalation.AckDeadline)
	assert.Equal(t, 5, cfg.Escalation.MaxRounds)
	assert.Equal(t, 10.5, cfg.Escalation.FacilityRadiusKm)
	assert.Equal(t, "critical", cfg.Escalation.EscalationThreshold)
}

func TestLoadRequiresDatabaseAndBroker(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("KAFKA_BROKER", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
	assert.Contains(t, err.Error(), "KAFKA_BROKER")
}
