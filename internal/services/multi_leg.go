package services

import (
	"context"
	"fmt"
	"freight-route-engine/internal/domain"
)

// BuildRoute chains up to maxLegs offers starting at startID.
//
// At each step the best departing offer by price-per-km is taken (ties by
// offer id) and the vehicle moves to its destination. The search is greedy and
// never backtracks, so the itinerary is not guaranteed to be globally optimal.
//
// It returns nil when no segment could be appended or the total distance is zero.
// A non-positive maxLegs falls back to the configured default; one above
// MaxLegsLimit is rejected with ErrInvalidArgument. The chain stops with ctx's
// error as soon as ctx is done.
func (e *Engine) BuildRoute(ctx context.Context, startID domain.CityID, maxLegs int) (*domain.Route, error) {
	if maxLegs <= 0 {
		maxLegs = e.cfg.MaxLegs
	}
	if e.cfg.MaxLegsLimit > 0 && maxLegs > e.cfg.MaxLegsLimit {
		return nil, fmt.Errorf("build route: %d legs exceeds %d: %w", maxLegs, e.cfg.MaxLegsLimit, domain.ErrInvalidArgument)
	}

	route := domain.Route{Segments: []domain.ScoredOffer{}}
	current := startID

	for len(route.Segments) < maxLegs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build route: leg %d: %w", len(route.Segments)+1, err)
		}

		offers, err := e.offersFrom(ctx, current)
		if err != nil {
			if current != startID {
				err = asStoreFault(err)
			}
			return nil, fmt.Errorf("build route: leg %d: %w", len(route.Segments)+1, err)
		}

		best, ok := pickBest(offers)
		if !ok {
			break
		}

		route.Append(best)
		current = best.Destination
	}

	if len(route.Segments) == 0 || route.TotalDistance == 0 {
		e.events.Emit(ctx, domain.Event{
			Name:   domain.EventMultiLegNone,
			CityID: startID,
			Fields: map[string]any{"segments": len(route.Segments)},
		})
		return nil, nil
	}

	e.events.Emit(ctx, domain.Event{
		Name:   domain.EventMultiLegBuilt,
		CityID: startID,
		Fields: map[string]any{
			"segments":       len(route.Segments),
			"total_distance": route.TotalDistance,
			"total_revenue":  route.TotalRevenue,
			"price_per_km":   route.PricePerKm,
		},
	})
	return &route, nil
}
