package models

import "fmt"

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks coordinate ranges.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range", l.Longitude)
	}
	return nil
}

// Facility is a care facility from the external directory. Read-only here;
// facility CRUD belongs to administrative collaborators.
type Facility struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Coordinates Location `json:"coordinates"`
	Services    []string `json:"services"`
	WebhookURL  string   `json:"webhook_url,omitempty"`
}

// RankedFacility is a Facility plus its distance from a query location.
// Ephemeral; recomputed per query, never persisted.
type RankedFacility struct {
	Facility
	DistanceKm float64 `json:"distance_km"`
}
