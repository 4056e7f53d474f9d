package domain

import "time"

// Represents a single normalized cargo-movement opportunity.
//
// Price, Distance and EstimatedPrice are optional: nil means unknown, which is
// never the same as zero. EstimatedPrice is only populated by ingestion when
// Price is absent and Distance is known.
type Offer struct {
	ID             int64
	Source         string
	Sender         string
	Origin         CityID
	Destination    CityID
	Price          *float64
	LFNumber       string
	Urgency        string
	Distance       *float64
	EstimatedPrice *float64
	AdditionalInfo string
	RawMessage     string
	Unverified     bool
	CreatedAt      time.Time
}

// EffectivePrice returns the stated price, else the estimated price, else nil.
func (o Offer) EffectivePrice() *float64 {
	if o.Price != nil {
		return o.Price
	}
	return o.EstimatedPrice
}

// An Offer plus the metrics derived from it. Never persisted.
// PricePerKm is nil unless both effective price and distance are known and distance > 0.
type ScoredOffer struct {
	Offer
	Effective  *float64
	PricePerKm *float64
}

// RankingRatio is the ratio used for ordering: an unknown ratio ranks as 0.
func (s ScoredOffer) RankingRatio() float64 {
	if s.PricePerKm == nil {
		return 0
	}
	return *s.PricePerKm
}

// Correction replaces the fields an operator may fix on an offer.
type Correction struct {
	Origin      CityID
	Destination CityID
	Price       *float64
}

// Float returns a pointer to v. Handy for optional offer fields.
func Float(v float64) *float64 { return &v }
