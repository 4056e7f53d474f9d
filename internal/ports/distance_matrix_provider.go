package ports

import (
	"context"
	"freight-route-engine/internal/domain"
)

// Optional extension of DistanceProvider that supports batched lookups.
type DistanceMatrixProvider interface {
	DistanceProvider
	// Return distances from one origin to many destinations, keyed by destination id.
	GetDistances(ctx context.Context, origin domain.City, destinations []domain.City) (map[domain.CityID]DistanceResult, error)
}
