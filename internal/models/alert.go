package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AlertStatus is the lifecycle state of an Alert.
type AlertStatus string

const (
	AlertOpen         AlertStatus = "open"
	AlertDispatching  AlertStatus = "dispatching"
	AlertAwaitingAck  AlertStatus = "awaiting_ack"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertEscalated    AlertStatus = "escalated"
	AlertResolved     AlertStatus = "resolved"
	AlertUnresolved   AlertStatus = "unresolved"
)

// Terminal reports whether the status admits no further transitions.
func (s AlertStatus) Terminal() bool {
	return s == AlertResolved || s == AlertUnresolved
}

// Reason codes recorded when an Alert ends unresolved.
const (
	ReasonAllChannelsFailed = "all-channels-failed"
	ReasonAckTimeout        = "ack-timeout"
	ReasonNoChannels        = "no-channels"
)

// Alert is the central stateful entity of the escalation engine. Its status
// is always a pure function of its channel states plus elapsed time; terminal
// alerts are retained for audit and never deleted.
type Alert struct {
	ID              [16]byte          `json:"id"`
	OwnerUserID     int64             `json:"owner_user_id"`
	ReportID        *[16]byte         `json:"-"`
	Severity        RiskTier          `json:"severity"`
	UserDeclared    bool              `json:"user_declared"`
	Message         string            `json:"message,omitempty"`
	Location        *Location         `json:"location,omitempty"`
	Status          AlertStatus       `json:"status"`
	Round           int               `json:"round"`
	Reason          string            `json:"reason,omitempty"`
	ResolutionNotes string            `json:"resolution_notes,omitempty"`
	Channels        []ChannelDispatch `json:"channels"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (a Alert) MarshalJSON() ([]byte, error) {
	type Alias Alert
	reportID := ""
	if a.ReportID != nil {
		reportID = uuid.UUID(*a.ReportID).String()
	}
	return json.Marshal(&struct {
		ID       string `json:"id"`
		ReportID string `json:"report_id,omitempty"`
		*Alias
	}{
		ID:       uuid.UUID(a.ID).String(),
		ReportID: reportID,
		Alias:    (*Alias)(&a),
	})
}
