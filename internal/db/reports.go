package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"emergency-service/internal/models"
)

// CreateSymptomReport inserts a new symptom report with its assessment.
func (d *DB) CreateSymptomReport(ctx context.Context, r models.SymptomReport) error {
	assessment, err := json.Marshal(r.Assessment)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}
	var lat, lon *float64
	if r.Location != nil {
		lat, lon = &r.Location.Latitude, &r.Location.Longitude
	}

	query := `
	INSERT INTO symptom_reports (
		id, user_id, pregnancy_id, type, severity, description,
		duration_amount, duration_unit, triggers, body_location,
		latitude, longitude, assessment, resolved, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = d.Pool.Exec(ctx, query,
		uuid.UUID(r.ID),
		r.UserID,
		r.PregnancyID,
		r.Type,
		r.Severity,
		r.Description,
		r.Duration.Amount,
		r.Duration.Unit,
		r.Triggers,
		r.BodyLocation,
		lat,
		lon,
		assessment,
		r.Resolved,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert symptom report: %w", err)
	}
	return nil
}

// GetSymptomReport fetches one report by its UUID string.
func (d *DB) GetSymptomReport(ctx context.Context, idStr string) (models.SymptomReport, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return models.SymptomReport{}, fmt.Errorf("invalid report ID: %w", err)
	}

	query := `
	SELECT id, user_id, pregnancy_id, type, severity, description,
	       duration_amount, duration_unit, triggers, body_location,
	       latitude, longitude, assessment, resolved, resolved_at, action_taken, created_at
	FROM symptom_reports
	WHERE id = $1`

	r, err := scanReport(d.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.SymptomReport{}, fmt.Errorf("symptom report %s not found", idStr)
		}
		return models.SymptomReport{}, fmt.Errorf("failed to get symptom report: %w", err)
	}
	return r, nil
}

// ListSymptomReports returns a user's reports, newest first, optionally
// filtered by type and severity.
func (d *DB) ListSymptomReports(ctx context.Context, userID int64, symptomType, severity string) ([]models.SymptomReport, error) {
	query := `
	SELECT id, user_id, pregnancy_id, type, severity, description,
	       duration_amount, duration_unit, triggers, body_location,
	       latitude, longitude, assessment, resolved, resolved_at, action_taken, created_at
	FROM symptom_reports
	WHERE user_id = $1`

	args := []interface{}{userID}
	if symptomType != "" {
		args = append(args, symptomType)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if severity != "" {
		args = append(args, severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list symptom reports: %w", err)
	}
	defer rows.Close()

	var reports []models.SymptomReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan symptom report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// ResolveSymptomReport marks a report resolved with optional action notes.
// Clinical fields stay immutable.
func (d *DB) ResolveSymptomReport(ctx context.Context, idStr string, userID int64, actionTaken string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid report ID: %w", err)
	}

	query := `
	UPDATE symptom_reports
	SET resolved = TRUE, resolved_at = $1, action_taken = $2
	WHERE id = $3 AND user_id = $4`

	tag, err := d.Pool.Exec(ctx, query, time.Now(), actionTaken, id, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve symptom report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("symptom report %s not found", idStr)
	}
	return nil
}

// SymptomStats aggregates a user's reports by type, severity and risk tier.
func (d *DB) SymptomStats(ctx context.Context, userID int64) (map[string]map[string]int, error) {
	reports, err := d.ListSymptomReports(ctx, userID, "", "")
	if err != nil {
		return nil, err
	}

	stats := map[string]map[string]int{
		"by_type":     {},
		"by_severity": {},
		"by_risk":     {},
		"status":      {},
	}
	for _, r := range reports {
		stats["by_type"][string(r.Type)]++
		stats["by_severity"][string(r.Severity)]++
		risk := "unknown"
		if r.Assessment != nil {
			risk = string(r.Assessment.RiskTier)
		}
		stats["by_risk"][risk]++
		if r.Resolved {
			stats["status"]["resolved"]++
		} else {
			stats["status"]["active"]++
		}
	}
	stats["status"]["total"] = len(reports)
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (models.SymptomReport, error) {
	var r models.SymptomReport
	var id pgtype.UUID
	var assessment []byte
	var lat, lon *float64
	var actionTaken *string

	err := row.Scan(
		&id, &r.UserID, &r.PregnancyID, &r.Type, &r.Severity, &r.Description,
		&r.Duration.Amount, &r.Duration.Unit, &r.Triggers, &r.BodyLocation,
		&lat, &lon, &assessment, &r.Resolved, &r.ResolvedAt, &actionTaken, &r.CreatedAt,
	)
	if err != nil {
		return models.SymptomReport{}, err
	}
	r.ID = id.Bytes
	if lat != nil && lon != nil {
		r.Location = &models.Location{Latitude: *lat, Longitude: *lon}
	}
	if actionTaken != nil {
		r.ActionTaken = *actionTaken
	}
	if len(assessment) > 0 && string(assessment) != "null" {
		var a models.RiskAssessment
		if err := json.Unmarshal(assessment, &a); err != nil {
			return models.SymptomReport{}, fmt.Errorf("failed to unmarshal assessment: %w", err)
		}
		r.Assessment = &a
	}
	return r, nil
}
