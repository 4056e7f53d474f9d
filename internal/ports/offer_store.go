package ports

import (
	"context"
	"freight-route-engine/internal/domain"
)

// Port: write and correction surface of the offer store, used by ingestion and operators.
type OfferStore interface {
	OfferRepository

	InsertOffer(ctx context.Context, offer domain.Offer) (int64, error)
	GetOffer(ctx context.Context, id int64) (domain.Offer, error)
	ListUnverified(ctx context.Context) ([]domain.Offer, error)
	MarkUnverified(ctx context.Context, id int64) error
	// Replace origin, destination and price, and clear the unverified flag.
	CorrectOffer(ctx context.Context, id int64, c domain.Correction) error
}
