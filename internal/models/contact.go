package models

import "time"

// EmergencyContact is a person from the owner's profile to be alerted in an
// emergency. Managed by profile management; read-only here.
type EmergencyContact struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	Relationship   string    `json:"relationship"`
	CreatedAt      time.Time `json:"created_at"`
}
