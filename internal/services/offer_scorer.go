package services

import (
	"freight-route-engine/internal/domain"
	"slices"
)

// ScoreOffer derives the effective price and price-per-km of an offer.
//
// Unknown price or distance propagates as an unknown ratio. A zero distance
// also yields an unknown ratio rather than a division by zero.
func ScoreOffer(o domain.Offer) domain.ScoredOffer {
	s := domain.ScoredOffer{Offer: o, Effective: o.EffectivePrice()}
	if s.Effective != nil && o.Distance != nil && *o.Distance > 0 {
		ratio := *s.Effective / *o.Distance
		s.PricePerKm = &ratio
	}
	return s
}

func scoreAll(offers []domain.Offer) []domain.ScoredOffer {
	out := make([]domain.ScoredOffer, 0, len(offers))
	for _, o := range offers {
		out = append(out, ScoreOffer(o))
	}
	return out
}

// compareRank orders by ranking ratio descending, then offer id ascending.
func compareRank(a, b domain.ScoredOffer) int {
	ra, rb := a.RankingRatio(), b.RankingRatio()
	if ra > rb {
		return -1
	}
	if ra < rb {
		return 1
	}
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}

// rankOffers scores and sorts offers best first. Unknown ratios sink to the bottom.
func rankOffers(offers []domain.Offer) []domain.ScoredOffer {
	scored := scoreAll(offers)
	slices.SortStableFunc(scored, compareRank)
	return scored
}

// pickBest returns the single best-ranked offer.
func pickBest(offers []domain.Offer) (domain.ScoredOffer, bool) {
	if len(offers) == 0 {
		return domain.ScoredOffer{}, false
	}

	best := ScoreOffer(offers[0])
	for _, o := range offers[1:] {
		s := ScoreOffer(o)
		if compareRank(s, best) < 0 {
			best = s
		}
	}
	return best, true
}
