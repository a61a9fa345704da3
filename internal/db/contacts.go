package db

import (
	"context"
	"fmt"

	"emergency-service/internal/models"
)

// ContactsByUser returns the emergency contacts registered in the owner's
// profile. Contact CRUD belongs to profile management; this is a read.
func (d *DB) ContactsByUser(ctx context.Context, userID int64) ([]models.EmergencyContact, error) {
	query := `
	SELECT id, user_id, name, phone, email, telegram_chat_id, relationship, created_at
	FROM emergency_contacts
	WHERE user_id = $1
	ORDER BY id`

	rows, err := d.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var contacts []models.EmergencyContact
	for rows.Next() {
		var c models.EmergencyContact
		var email *string
		var chatID *int64
		err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &email, &chatID,
			&c.Relationship, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		if email != nil {
			c.Email = *email
		}
		if chatID != nil {
			c.TelegramChatID = *chatID
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}
