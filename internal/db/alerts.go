package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"emergency-service/internal/models"
)

// CreateAlert inserts an alert and its initial channel set in one
// transaction.
func (d *DB) CreateAlert(ctx context.Context, a models.Alert) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var lat, lon *float64
	if a.Location != nil {
		lat, lon = &a.Location.Latitude, &a.Location.Longitude
	}
	var reportID *uuid.UUID
	if a.ReportID != nil {
		rid := uuid.UUID(*a.ReportID)
		reportID = &rid
	}

	query := `
	INSERT INTO alerts (
		id, owner_user_id, report_id, severity, user_declared, message,
		latitude, longitude, status, round, reason, resolution_notes,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, query,
		uuid.UUID(a.ID), a.OwnerUserID, reportID, a.Severity, a.UserDeclared,
		a.Message, lat, lon, a.Status, a.Round, a.Reason, a.ResolutionNotes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	if err := upsertChannels(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit alert: %w", err)
	}
	return nil
}

// UpdateAlert writes the alert row and upserts every channel. Called on each
// state transition by the escalation engine.
func (d *DB) UpdateAlert(ctx context.Context, a models.Alert) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	UPDATE alerts
	SET status = $1, round = $2, reason = $3, resolution_notes = $4, updated_at = $5
	WHERE id = $6`

	tag, err := tx.Exec(ctx, query,
		a.Status, a.Round, a.Reason, a.ResolutionNotes, a.UpdatedAt, uuid.UUID(a.ID))
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no alert updated for id %s", uuid.UUID(a.ID))
	}

	if err := upsertChannels(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit alert update: %w", err)
	}
	return nil
}

func upsertChannels(ctx context.Context, tx pgx.Tx, a models.Alert) error {
	query := `
	INSERT INTO alert_channels (
		alert_id, target_ref, kind, name, round, configuration,
		status, attempts, last_attempt_at, ack_deadline, last_error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (alert_id, target_ref) DO UPDATE
	SET status = EXCLUDED.status,
	    attempts = EXCLUDED.attempts,
	    last_attempt_at = EXCLUDED.last_attempt_at,
	    ack_deadline = EXCLUDED.ack_deadline,
	    last_error = EXCLUDED.last_error`

	for _, ch := range a.Channels {
		conf, err := json.Marshal(ch.Configuration)
		if err != nil {
			return fmt.Errorf("failed to marshal channel configuration: %w", err)
		}
		_, err = tx.Exec(ctx, query,
			uuid.UUID(a.ID), ch.TargetRef, ch.Kind, ch.Name, ch.Round, conf,
			ch.Status, ch.Attempts, ch.LastAttemptAt, ch.AckDeadline, ch.LastError)
		if err != nil {
			return fmt.Errorf("failed to upsert channel %s: %w", ch.TargetRef, err)
		}
	}
	return nil
}

// GetAlert fetches an alert with its channels by UUID string.
func (d *DB) GetAlert(ctx context.Context, idStr string) (models.Alert, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return models.Alert{}, fmt.Errorf("invalid alert ID: %w", err)
	}

	query := `
	SELECT id, owner_user_id, report_id, severity, user_declared, message,
	       latitude, longitude, status, round, reason, resolution_notes,
	       created_at, updated_at
	FROM alerts
	WHERE id = $1`

	a, err := scanAlert(d.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.Alert{}, fmt.Errorf("alert %s not found", idStr)
		}
		return models.Alert{}, fmt.Errorf("failed to get alert: %w", err)
	}

	a.Channels, err = d.alertChannels(ctx, id)
	if err != nil {
		return models.Alert{}, err
	}
	return a, nil
}

// GetAlertsByUserID returns a user's alerts, newest first, with channels.
func (d *DB) GetAlertsByUserID(ctx context.Context, userID int64) ([]models.Alert, error) {
	query := `
	SELECT id, owner_user_id, report_id, severity, user_declared, message,
	       latitude, longitude, status, round, reason, resolution_notes,
	       created_at, updated_at
	FROM alerts
	WHERE owner_user_id = $1
	ORDER BY created_at DESC`

	rows, err := d.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	rows.Close()

	for i := range alerts {
		alerts[i].Channels, err = d.alertChannels(ctx, uuid.UUID(alerts[i].ID))
		if err != nil {
			return nil, err
		}
	}
	return alerts, nil
}

func (d *DB) alertChannels(ctx context.Context, alertID uuid.UUID) ([]models.ChannelDispatch, error) {
	query := `
	SELECT target_ref, kind, name, round, configuration, status,
	       attempts, last_attempt_at, ack_deadline, last_error
	FROM alert_channels
	WHERE alert_id = $1
	ORDER BY round, target_ref`

	rows, err := d.Pool.Query(ctx, query, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channels for alert %s: %w", alertID, err)
	}
	defer rows.Close()

	var channels []models.ChannelDispatch
	for rows.Next() {
		var ch models.ChannelDispatch
		var conf []byte
		err := rows.Scan(&ch.TargetRef, &ch.Kind, &ch.Name, &ch.Round, &conf,
			&ch.Status, &ch.Attempts, &ch.LastAttemptAt, &ch.AckDeadline, &ch.LastError)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		if len(conf) > 0 {
			if err := json.Unmarshal(conf, &ch.Configuration); err != nil {
				return nil, fmt.Errorf("failed to unmarshal channel configuration: %w", err)
			}
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func scanAlert(row rowScanner) (models.Alert, error) {
	var a models.Alert
	var id, reportID pgtype.UUID
	var lat, lon *float64

	err := row.Scan(
		&id, &a.OwnerUserID, &reportID, &a.Severity, &a.UserDeclared, &a.Message,
		&lat, &lon, &a.Status, &a.Round, &a.Reason, &a.ResolutionNotes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return models.Alert{}, err
	}
	a.ID = id.Bytes
	if reportID.Valid {
		rid := reportID.Bytes
		a.ReportID = &rid
	}
	if lat != nil && lon != nil {
		a.Location = &models.Location{Latitude: *lat, Longitude: *lon}
	}
	return a, nil
}
