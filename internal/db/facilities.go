package db

import (
	"context"
	"fmt"

	"emergency-service/internal/models"
)

// Facilities returns the full facility registry. The registry is managed by
// administrative collaborators and read-only here; it is small and read per
// query rather than cached, so ranking always sees current coordinates.
func (d *DB) Facilities(ctx context.Context) ([]models.Facility, error) {
	query := `
	SELECT id, name, type, address, phone, latitude, longitude, services, webhook_url
	FROM facilities
	ORDER BY id`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get facilities: %w", err)
	}
	defer rows.Close()

	var facilities []models.Facility
	for rows.Next() {
		var f models.Facility
		var webhook *string
		err := rows.Scan(&f.ID, &f.Name, &f.Type, &f.Address, &f.Phone,
			&f.Coordinates.Latitude, &f.Coordinates.Longitude, &f.Services, &webhook)
		if err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		if webhook != nil {
			f.WebhookURL = *webhook
		}
		facilities = append(facilities, f)
	}
	return facilities, nil
}
