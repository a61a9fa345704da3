package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"emergency-service/internal/models"
)

// AppendDispatchRecord writes one audit row per dispatch attempt. The table
// is append-only; rows are never updated or deleted.
func (d *DB) AppendDispatchRecord(ctx context.Context, rec models.DispatchRecord) error {
	query := `
	INSERT INTO dispatch_log (alert_id, target_ref, kind, attempt, delivered, detail, error, at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := d.Pool.Exec(ctx, query,
		uuid.UUID(rec.AlertID), rec.TargetRef, rec.Kind, rec.Attempt,
		rec.Delivered, rec.Detail, rec.Error, rec.At)
	if err != nil {
		return fmt.Errorf("failed to append dispatch record: %w", err)
	}
	return nil
}

// AppendAuditNote records an engine-side audit note for an alert (duplicate
// acks, operator annotations on terminal alerts).
func (d *DB) AppendAuditNote(ctx context.Context, alertID [16]byte, note string) error {
	query := `
	INSERT INTO alert_audit_notes (alert_id, note, at)
	VALUES ($1, $2, $3)`

	_, err := d.Pool.Exec(ctx, query, uuid.UUID(alertID), note, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append audit note: %w", err)
	}
	return nil
}
