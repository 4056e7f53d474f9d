package dto

import "time"

type OfferResponse struct {
	ID             int64     `json:"id"`
	Source         string    `json:"source"`
	Sender         string    `json:"sender"`
	OriginID       int64     `json:"origin_id"`
	DestinationID  int64     `json:"destination_id"`
	Price          *float64  `json:"price"`
	EstimatedPrice *float64  `json:"estimated_price"`
	EffectivePrice *float64  `json:"effective_price"`
	DistanceKm     *float64  `json:"distance_km"`
	PricePerKm     *float64  `json:"price_per_km"`
	RateClass      string    `json:"rate_class"`
	LFNumber       string    `json:"lf_number,omitempty"`
	Urgency        string    `json:"urgency,omitempty"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	Unverified     bool      `json:"unverified"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListOffersResponse struct {
	Offers []OfferResponse `json:"offers"`
}

type IngestOfferRequest struct {
	Source         string   `json:"source"`
	Sender         string   `json:"sender"`
	Origin         string   `json:"origin"`
	Destination    string   `json:"destination"`
	Price          *float64 `json:"price"`
	LFNumber       string   `json:"lf_number"`
	Urgency        string   `json:"urgency"`
	AdditionalInfo string   `json:"additional_info"`
	RawMessage     string   `json:"raw_message"`
}

type CorrectionRequest struct {
	OriginID      int64    `json:"origin_id"`
	DestinationID int64    `json:"destination_id"`
	Price         *float64 `json:"price"`
}
