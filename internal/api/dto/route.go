package dto

type RouteResponse struct {
	// "direct" for a single offer, "indirect" or "multi_leg" for chained offers.
	Kind            string          `json:"kind"`
	Segments        []OfferResponse `json:"segments"`
	TotalDistanceKm float64         `json:"total_distance_km"`
	TotalRevenue    float64         `json:"total_revenue"`
	PricePerKm      float64         `json:"price_per_km"`
	RateClass       string          `json:"rate_class"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type MultiLegResponse struct {
	Route     *RouteResponse `json:"route"`
	FinalCity *int64         `json:"final_city_id"`
	// Return-load risk at FinalCity; empty when there is no route.
	ReturnLoadRisk string `json:"return_load_risk,omitempty"`
}

type RiskResponse struct {
	CityID     int64  `json:"city_id"`
	WindowDays int    `json:"window_days"`
	Risk       string `json:"risk"`
}
