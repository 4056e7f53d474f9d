package ports

import (
	"context"
	"freight-route-engine/internal/domain"
)

// Road distance and travel duration between two cities.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Kilometers converts the road distance for price-per-km computations.
func (r DistanceResult) Kilometers() float64 { return float64(r.DistanceMeters) / 1000 }

// Contract for retrieving road distance between cities.
type DistanceProvider interface {
	// Return travel distance and estimated duration between two cities.
	GetDistance(ctx context.Context, origin, destination domain.City) (DistanceResult, error)
}
