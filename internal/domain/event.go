package domain

// Event is a structured notification emitted by the engine for observability.
type Event struct {
	Name   string
	CityID CityID
	Fields map[string]any
	Err    error
}

const (
	EventBestLoads         = "best_loads.selected"
	EventRecentOffers      = "offers.recent"
	EventRouteDirect       = "route.direct"
	EventRouteIndirect     = "route.indirect"
	EventRouteNone         = "route.none"
	EventMultiLegBuilt     = "multi_leg.built"
	EventMultiLegNone      = "multi_leg.none"
	EventRiskAssessed      = "risk.assessed"
	EventRepositoryFailure = "repository.failure"
	EventOfferIngested     = "offer.ingested"
	EventDistanceMissing   = "offer.distance_missing"
)
