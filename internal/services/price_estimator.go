package services

// EstimatePrice prices a load from its road distance at the default rate.
// It returns nil when the distance is unknown or not positive.
func EstimatePrice(distanceKm *float64, rate float64) *float64 {
	if distanceKm == nil || *distanceKm <= 0 {
		return nil
	}
	v := *distanceKm * rate
	return &v
}
