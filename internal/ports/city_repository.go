package ports

import (
	"context"
	"freight-route-engine/internal/domain"
)

// Port: lookup of cities already resolved by the geo resolver.
type CityRepository interface {
	// Return the city with the given id, or domain.ErrCityNotFound.
	GetCity(ctx context.Context, id domain.CityID) (domain.City, error)
	// Resolve a canonical name or alias, or domain.ErrCityNotFound.
	FindCity(ctx context.Context, name string) (domain.City, error)
}
