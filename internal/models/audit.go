package models

import "time"

// DispatchRecord is one append-only audit row per dispatch attempt.
type DispatchRecord struct {
	AlertID   [16]byte    `json:"alert_id"`
	TargetRef string      `json:"target_ref"`
	Kind      ChannelKind `json:"kind"`
	Attempt   int         `json:"attempt"`
	Delivered bool        `json:"delivered"`
	Detail    string      `json:"detail,omitempty"`
	Error     string      `json:"error,omitempty"`
	At        time.Time   `json:"at"`
}
