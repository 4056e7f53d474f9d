package domain

// Represents one or more offers driven in sequence.
//
// Multi-leg routes are continuous (each segment departs where the previous one
// arrived); single-load and point-to-point results are not required to be.
// PricePerKm is always set for display but is meaningless when TotalDistance is 0.
type Route struct {
	Segments      []ScoredOffer
	TotalDistance float64
	TotalRevenue  float64
	PricePerKm    float64
}

// NewRoute aggregates segments. Missing distances and prices count as zero in the totals.
func NewRoute(segments ...ScoredOffer) Route {
	r := Route{Segments: segments}
	for _, s := range segments {
		r.add(s)
	}
	r.recompute()
	return r
}

// Append adds a segment and refreshes the aggregates.
func (r *Route) Append(s ScoredOffer) {
	r.Segments = append(r.Segments, s)
	r.add(s)
	r.recompute()
}

func (r *Route) add(s ScoredOffer) {
	if s.Distance != nil {
		r.TotalDistance += *s.Distance
	}
	if s.Effective != nil {
		r.TotalRevenue += *s.Effective
	}
}

func (r *Route) recompute() {
	if r.TotalDistance > 0 {
		r.PricePerKm = r.TotalRevenue / r.TotalDistance
		return
	}
	r.PricePerKm = 0
}

// Final destination of the route, if it has any segment.
func (r Route) LastCity() (CityID, bool) {
	if len(r.Segments) == 0 {
		return 0, false
	}
	return r.Segments[len(r.Segments)-1].Destination, true
}
