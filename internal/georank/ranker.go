package georank

import (
	"sort"

	"github.com/golang/geo/s2"

	"emergency-service/internal/models"
)

// earthRadiusKm is the spherical-Earth radius used for great-circle
// distances. Adequate at ambulance-dispatch scale; not geodesically exact.
const earthRadiusKm = 6371.0

// Ranking is the result of a facility query.
type Ranking struct {
	Facilities []models.RankedFacility `json:"facilities"`
	// Unordered is set when no query location was available: the list is an
	// arbitrary registry slice capped at the limit, with no distances.
	Unordered bool `json:"unordered"`
}

// DistanceKm returns the great-circle distance between two coordinates.
func DistanceKm(a, b models.Location) float64 {
	from := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	to := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return from.Distance(to).Radians() * earthRadiusKm
}

// Rank returns facilities within radiusKm of loc, ordered by ascending
// distance with ties broken by facility id. Facilities outside the radius are
// excluded entirely. A nil loc skips ranking and returns the registry capped
// at limit, flagged unordered. An empty result is valid; the caller falls
// back to contact-only dispatch.
func Rank(loc *models.Location, facilities []models.Facility, radiusKm float64, limit int) Ranking {
	if limit <= 0 {
		return Ranking{Facilities: []models.RankedFacility{}}
	}

	if loc == nil {
		ranked := make([]models.RankedFacility, 0, limit)
		for _, f := range facilities {
			if len(ranked) == limit {
				break
			}
			ranked = append(ranked, models.RankedFacility{Facility: f})
		}
		return Ranking{Facilities: ranked, Unordered: true}
	}

	ranked := make([]models.RankedFacility, 0, len(facilities))
	for _, f := range facilities {
		d := DistanceKm(*loc, f.Coordinates)
		if d > radiusKm {
			continue
		}
		ranked = append(ranked, models.RankedFacility{Facility: f, DistanceKm: d})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return Ranking{Facilities: ranked}
}
