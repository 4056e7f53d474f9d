package services

import (
	"context"
	"fmt"
	"freight-route-engine/internal/domain"
)

// Route finds a way from startID to endID with one or two offers.
//
// Direct offers start->end are always preferred: when any exist, each is
// returned as a single-segment route and no indirect search happens, whatever
// their profitability.
//
// Otherwise the first two-leg combination start->X->end (in repository order
// over the first leg, then the second) whose aggregate price-per-km is at least
// minRatio is returned. This is a satisficing search, not an optimum: a better
// connection found later in iteration order is never considered.
//
// No path yields an empty slice.
func (e *Engine) Route(ctx context.Context, startID, endID domain.CityID, minRatio float64) ([]domain.Route, error) {
	if err := e.ensureCity(ctx, endID); err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}

	fromStart, err := e.offersFrom(ctx, startID)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}

	direct := make([]domain.Route, 0)
	for _, o := range fromStart {
		if o.Destination == endID {
			direct = append(direct, domain.NewRoute(ScoreOffer(o)))
		}
	}
	if len(direct) > 0 {
		e.events.Emit(ctx, domain.Event{
			Name:   domain.EventRouteDirect,
			CityID: startID,
			Fields: map[string]any{"to": endID, "routes": len(direct)},
		})
		return direct, nil
	}

	route, ok, err := e.firstIndirect(ctx, fromStart, endID, minRatio)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	if !ok {
		e.events.Emit(ctx, domain.Event{
			Name:   domain.EventRouteNone,
			CityID: startID,
			Fields: map[string]any{"to": endID, "min_ratio": minRatio},
		})
		return []domain.Route{}, nil
	}

	e.events.Emit(ctx, domain.Event{
		Name:   domain.EventRouteIndirect,
		CityID: startID,
		Fields: map[string]any{"to": endID, "via": route.Segments[0].Destination, "price_per_km": route.PricePerKm},
	})
	return []domain.Route{route}, nil
}

func (e *Engine) firstIndirect(
	ctx context.Context,
	firstLegs []domain.Offer,
	endID domain.CityID,
	minRatio float64,
) (domain.Route, bool, error) {
	// Second legs per intermediate city, fetched at most once per call.
	fetched := make(map[domain.CityID][]domain.Offer)

	for _, a := range firstLegs {
		secondLegs, ok := fetched[a.Destination]
		if !ok {
			var err error
			secondLegs, err = e.offersFrom(ctx, a.Destination)
			if err != nil {
				return domain.Route{}, false, asStoreFault(err)
			}
			fetched[a.Destination] = secondLegs
		}

		for _, b := range secondLegs {
			if b.Destination != endID {
				continue
			}

			route := domain.NewRoute(ScoreOffer(a), ScoreOffer(b))
			if route.TotalDistance > 0 && route.PricePerKm >= minRatio {
				return route, true, nil
			}
		}
	}

	return domain.Route{}, false, nil
}
