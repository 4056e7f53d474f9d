package services

import (
	"context"
	"errors"
	"fmt"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/ports"
	"strings"
	"time"
)

// RawOffer is an offer as handed over by ingestion, with city names not yet resolved.
type RawOffer struct {
	Source         string
	Sender         string
	Origin         string
	Destination    string
	Price          *float64
	LFNumber       string
	Urgency        string
	AdditionalInfo string
	RawMessage     string
}

// OfferNormalizer turns RawOffers into canonical offers: resolved cities, road
// distance and, when no price was stated, an estimated price.
type OfferNormalizer struct {
	Cities      ports.CityRepository
	Distances   ports.DistanceProvider
	Store       ports.OfferStore
	DefaultRate float64
	Events      ports.EventSink
	Now         func() time.Time
}

// Normalize resolves both cities and computes derived fields.
//
// A distance lookup failure leaves Distance (and so EstimatedPrice) nil; it is
// reported as an event and never coerced to zero.
func (n *OfferNormalizer) Normalize(ctx context.Context, raw RawOffer) (domain.Offer, error) {
	if n.Cities == nil {
		return domain.Offer{}, errors.New("normalize offer: city repository is nil")
	}

	originName := strings.TrimSpace(raw.Origin)
	destName := strings.TrimSpace(raw.Destination)
	if originName == "" || destName == "" {
		return domain.Offer{}, errors.New("normalize offer: origin and destination must be non-empty")
	}

	origin, err := n.Cities.FindCity(ctx, originName)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("normalize offer: origin %q: %w", originName, err)
	}
	dest, err := n.Cities.FindCity(ctx, destName)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("normalize offer: destination %q: %w", destName, err)
	}

	offer := domain.Offer{
		Source:         defaultString(raw.Source, "unknown"),
		Sender:         defaultString(raw.Sender, "unknown"),
		Origin:         origin.ID,
		Destination:    dest.ID,
		Price:          raw.Price,
		LFNumber:       raw.LFNumber,
		Urgency:        raw.Urgency,
		AdditionalInfo: raw.AdditionalInfo,
		RawMessage:     raw.RawMessage,
		CreatedAt:      n.now(),
	}

	if n.Distances != nil {
		res, err := n.Distances.GetDistance(ctx, origin, dest)
		if err != nil {
			n.emit(ctx, domain.Event{Name: domain.EventDistanceMissing, CityID: origin.ID, Err: err,
				Fields: map[string]any{"to": dest.ID}})
		} else {
			km := res.Kilometers()
			offer.Distance = &km
		}
	}

	if offer.Price == nil {
		offer.EstimatedPrice = EstimatePrice(offer.Distance, n.DefaultRate)
	}

	return offer, nil
}

// Ingest normalizes raw and persists the result, returning the stored offer.
func (n *OfferNormalizer) Ingest(ctx context.Context, raw RawOffer) (domain.Offer, error) {
	if n.Store == nil {
		return domain.Offer{}, errors.New("ingest offer: offer store is nil")
	}

	offer, err := n.Normalize(ctx, raw)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("ingest offer: %w", err)
	}

	id, err := n.Store.InsertOffer(ctx, offer)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("ingest offer: insert: %w: %w", domain.ErrRepository, err)
	}
	offer.ID = id

	n.emit(ctx, domain.Event{Name: domain.EventOfferIngested, CityID: offer.Origin,
		Fields: map[string]any{"offer_id": id, "to": offer.Destination, "source": offer.Source}})
	return offer, nil
}

func (n *OfferNormalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now().UTC()
}

func (n *OfferNormalizer) emit(ctx context.Context, evt domain.Event) {
	if n.Events != nil {
		n.Events.Emit(ctx, evt)
	}
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
