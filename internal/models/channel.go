package models

import "time"

// ChannelKind selects the delivery mechanism for a dispatch target.
type ChannelKind string

const (
	ChannelContact  ChannelKind = "contact"
	ChannelFacility ChannelKind = "facility"
	ChannelService  ChannelKind = "service"
)

// DeliveryStatus is the per-channel delivery state.
type DeliveryStatus string

const (
	DeliveryPending      DeliveryStatus = "pending"
	DeliveryDelivered    DeliveryStatus = "delivered"
	DeliveryFailed       DeliveryStatus = "failed"
	DeliveryAcknowledged DeliveryStatus = "acknowledged"
)

// ChannelDispatch tracks one notification target of an Alert. Owned
// exclusively by the parent Alert; only the escalation engine writes it.
type ChannelDispatch struct {
	TargetRef     string                 `json:"target_ref"`
	Kind          ChannelKind            `json:"kind"`
	Name          string                 `json:"name"`
	Round         int                    `json:"round"`
	Configuration map[string]interface{} `json:"configuration,omitempty"`
	Status        DeliveryStatus         `json:"status"`
	Attempts      int                    `json:"attempts"`
	LastAttemptAt *time.Time             `json:"last_attempt_at,omitempty"`
	AckDeadline   *time.Time             `json:"ack_deadline,omitempty"`
	LastError     string                 `json:"last_error,omitempty"`
}
