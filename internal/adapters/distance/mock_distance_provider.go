package distance

import (
	"context"
	"fmt"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/ports"
	"math"
)

type MockPair struct {
	From, To domain.CityID
	Meters   int
	Seconds  int
}

type pairKey struct{ from, to domain.CityID }

// MockDistanceProvider answers from a fixed table of city pairs. Pairs are
// symmetric. With Fallback set, unknown pairs get a great-circle estimate
// stretched by a road factor; otherwise they fail.
type MockDistanceProvider struct {
	m        map[pairKey]ports.DistanceResult
	Fallback bool
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[pairKey]ports.DistanceResult, 2*len(pairs))
	for _, p := range pairs {
		r := ports.DistanceResult{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
		m[pairKey{p.From, p.To}] = r
		if _, ok := m[pairKey{p.To, p.From}]; !ok {
			m[pairKey{p.To, p.From}] = r
		}
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination domain.City) (ports.DistanceResult, error) {
	if origin.ID == destination.ID {
		return ports.DistanceResult{}, nil
	}
	if r, ok := p.m[pairKey{origin.ID, destination.ID}]; ok {
		return r, nil
	}
	if p.Fallback && requireCoordinates(origin) == nil && requireCoordinates(destination) == nil {
		return estimate(origin.Location, destination.Location), nil
	}
	return ports.DistanceResult{}, fmt.Errorf("missing pair %q -> %q", origin.Name, destination.Name)
}

const (
	earthRadiusMeters = 6371000.0
	roadFactor        = 1.25
	// Average truck speed used for the duration estimate, in m/s (70 km/h).
	truckSpeed = 70000.0 / 3600
)

func estimate(a, b domain.Coordinates) ports.DistanceResult {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	meters := 2 * earthRadiusMeters * math.Asin(math.Sqrt(h)) * roadFactor

	return ports.DistanceResult{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(meters / truckSpeed)),
	}
}
