package services

import (
	"context"
	"fmt"
	"freight-route-engine/internal/domain"
	"slices"
)

// BestLoadsFrom ranks the offers departing cityID by price-per-km and returns
// at most limit of them. A non-positive limit falls back to the configured default.
//
// Offers with an unknown ratio rank as 0; equal ratios are ordered by offer id.
// A known city with no offers yields an empty slice.
func (e *Engine) BestLoadsFrom(ctx context.Context, cityID domain.CityID, limit int) ([]domain.ScoredOffer, error) {
	if limit <= 0 {
		limit = e.cfg.BestLoadsLimit
	}

	offers, err := e.offersFrom(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("best loads from: %w", err)
	}

	departing := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.Origin == cityID {
			departing = append(departing, o)
		}
	}

	ranked := rankOffers(departing)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	e.events.Emit(ctx, domain.Event{
		Name:   domain.EventBestLoads,
		CityID: cityID,
		Fields: map[string]any{"candidates": len(departing), "returned": len(ranked)},
	})

	return ranked, nil
}

// RecentOffers returns the scored offers departing cityID within windowDays,
// newest first. A non-positive window falls back to the configured lookback.
func (e *Engine) RecentOffers(ctx context.Context, cityID domain.CityID, windowDays int) ([]domain.ScoredOffer, error) {
	windowDays, err := e.window(windowDays)
	if err != nil {
		return nil, fmt.Errorf("recent offers: %w", err)
	}

	offers, err := e.repo.OffersDepartingCity(ctx, cityID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("recent offers: %w", e.repoErr(ctx, cityID, "offers departing city", err))
	}

	scored := scoreAll(offers)
	slices.SortStableFunc(scored, func(a, b domain.ScoredOffer) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return 1
		}
		if a.ID > b.ID {
			return -1
		}
		return 0
	})

	e.events.Emit(ctx, domain.Event{
		Name:   domain.EventRecentOffers,
		CityID: cityID,
		Fields: map[string]any{"window_days": windowDays, "returned": len(scored)},
	})

	return scored, nil
}
