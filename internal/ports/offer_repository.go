package ports

import (
	"context"
	"freight-route-engine/internal/domain"
)

// Port: the read-only query surface the route engine needs from the offer store.
//
// Both methods return domain.ErrCityNotFound for an unknown city. Any other
// error is treated as a store failure.
type OfferRepository interface {
	// Offers whose origin is cityID, created within the last windowDays days.
	OffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) ([]domain.Offer, error)
	// Number of offers whose origin is cityID, created within the last windowDays days.
	CountOffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) (int, error)
}
