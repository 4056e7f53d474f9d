package domain

// Qualitative likelihood that a vehicle ends up stranded in a city without a return load.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "High"
	RiskMedium  RiskLevel = "Medium"
	RiskLow     RiskLevel = "Low"
	RiskUnknown RiskLevel = "Unknown"
)

// Coarse label for a price-per-km figure.
type RateClass string

const (
	RateGood       RateClass = "good"
	RateAcceptable RateClass = "acceptable"
	RatePoor       RateClass = "poor"
	RateUnknown    RateClass = "unknown"
)

// ClassifyRate buckets a ratio against the acceptable and high-demand floors.
func ClassifyRate(ratio *float64, acceptable, highDemand float64) RateClass {
	if ratio == nil {
		return RateUnknown
	}
	switch {
	case *ratio >= highDemand:
		return RateGood
	case *ratio >= acceptable:
		return RateAcceptable
	default:
		return RatePoor
	}
}
