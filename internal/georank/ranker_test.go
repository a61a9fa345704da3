package georank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergency-service/internal/models"
)

// Coordinates around central Hanoi; offsets of 0.01 degrees are roughly 1.1km
// of latitude.
var origin = models.Location{Latitude: 21.0285, Longitude: 105.8542}

func facility(id int64, lat, lon float64) models.Facility {
	return models.Facility{
		ID:          id,
		Name:        "facility",
		Coordinates: models.Location{Latitude: lat, Longitude: lon},
	}
}

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(origin, origin), 1e-9)
}

func TestDistanceKmKnownPair(t *testing.T) {
	// Hanoi to Ho Chi Minh City is about 1140km great-circle.
	hcmc := models.Location{Latitude: 10.8231, Longitude: 106.6297}
	d := DistanceKm(origin, hcmc)
	assert.InDelta(t, 1140, d, 20)
}

func TestRankOrdersByDistance(t *testing.T) {
	facilities := []models.Facility{
		facility(1, origin.Latitude+0.05, origin.Longitude),
		facility(2, origin.Latitude+0.01, origin.Longitude),
		facility(3, origin.Latitude+0.03, origin.Longitude),
	}

	r := Rank(&origin, facilities, 25, 10)
	require.Len(t, r.Facilities, 3)
	assert.False(t, r.Unordered)
	assert.Equal(t, int64(2), r.Facilities[0].ID)
	assert.Equal(t, int64(3), r.Facilities[1].ID)
	assert.Equal(t, int64(1), r.Facilities[2].ID)
	assert.True(t, r.Facilities[0].DistanceKm <= r.Facilities[1].DistanceKm)
	assert.True(t, r.Facilities[1].DistanceKm <= r.Facilities[2].DistanceKm)
}

func TestRankExcludesOutsideRadius(t *testing.T) {
	facilities := []models.Facility{
		facility(1, origin.Latitude+0.01, origin.Longitude),
		facility(2, origin.Latitude+2.0, origin.Longitude), // ~220km away
	}

	r := Rank(&origin, facilities, 25, 10)
	require.Len(t, r.Facilities, 1)
	assert.Equal(t, int64(1), r.Facilities[0].ID)
}

func TestRankTieBreaksByID(t *testing.T) {
	// Identical coordinates produce identical distances.
	facilities := []models.Facility{
		facility(7, origin.Latitude+0.01, origin.Longitude),
		facility(3, origin.Latitude+0.01, origin.Longitude),
		facility(5, origin.Latitude+0.01, origin.Longitude),
	}

	r := Rank(&origin, facilities, 25, 10)
	require.Len(t, r.Facilities, 3)
	assert.Equal(t, int64(3), r.Facilities[0].ID)
	assert.Equal(t, int64(5), r.Facilities[1].ID)
	assert.Equal(t, int64(7), r.Facilities[2].ID)
}

func TestRankAppliesLimit(t *testing.T) {
	var facilities []models.Facility
	for i := int64(1); i <= 8; i++ {
		facilities = append(facilities, facility(i, origin.Latitude+float64(i)*0.005, origin.Longitude))
	}

	r := Rank(&origin, facilities, 25, 3)
	require.Len(t, r.Facilities, 3)
	assert.Equal(t, int64(1), r.Facilities[0].ID)
	assert.Equal(t, int64(3), r.Facilities[2].ID)
}

func TestRankNilLocationIsUnordered(t *testing.T) {
	facilities := []models.Facility{
		facility(1, 0, 0), facility(2, 0, 0), facility(3, 0, 0), facility(4, 0, 0),
	}

	r := Rank(nil, facilities, 25, 2)
	assert.True(t, r.Unordered)
	assert.Len(t, r.Facilities, 2)
	for _, f := range r.Facilities {
		assert.Zero(t, f.DistanceKm)
	}
}

func TestRankEmptyResults(t *testing.T) {
	far := []models.Facility{facility(1, origin.Latitude+5, origin.Longitude)}

	assert.Empty(t, Rank(&origin, far, 25, 10).Facilities)
	assert.Empty(t, Rank(&origin, nil, 25, 10).Facilities)
	assert.Empty(t, Rank(&origin, far, 25, 0).Facilities)
}
