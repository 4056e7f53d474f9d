package services

import (
	"context"
	"freight-route-engine/internal/domain"
	"sync"
)

// fakeRepo is an in-memory OfferRepository that records every call.
type fakeRepo struct {
	mu        sync.Mutex
	cities    map[domain.CityID]bool
	offers    []domain.Offer
	count     map[domain.CityID]int
	failOn    map[domain.CityID]error
	calls     map[domain.CityID]int
	countHits int

	// stray offers are returned for a city whatever their origin, like a store with a bad filter.
	stray map[domain.CityID][]domain.Offer
	// onDeparting runs on every OffersDepartingCity call with the running call total.
	onDeparting func(total int)
}

func newFakeRepo(cities ...domain.CityID) *fakeRepo {
	r := &fakeRepo{
		cities: map[domain.CityID]bool{},
		count:  map[domain.CityID]int{},
		failOn: map[domain.CityID]error{},
		calls:  map[domain.CityID]int{},
		stray:  map[domain.CityID][]domain.Offer{},
	}
	for _, c := range cities {
		r.cities[c] = true
	}
	return r
}

func (r *fakeRepo) add(id int64, from, to domain.CityID, price, distance *float64) {
	r.cities[from] = true
	r.cities[to] = true
	r.offers = append(r.offers, domain.Offer{ID: id, Origin: from, Destination: to, Price: price, Distance: distance})
}

func (r *fakeRepo) OffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) ([]domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[cityID]++
	if r.onDeparting != nil {
		total := 0
		for _, c := range r.calls {
			total += c
		}
		r.onDeparting(total)
	}

	if err, ok := r.failOn[cityID]; ok {
		return nil, err
	}
	if !r.cities[cityID] {
		return nil, domain.ErrCityNotFound
	}

	out := []domain.Offer{}
	for _, o := range r.offers {
		if o.Origin == cityID {
			out = append(out, o)
		}
	}
	out = append(out, r.stray[cityID]...)
	return out, nil
}

func (r *fakeRepo) CountOffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countHits++

	if err, ok := r.failOn[cityID]; ok {
		return 0, err
	}
	if !r.cities[cityID] {
		return 0, domain.ErrCityNotFound
	}
	return r.count[cityID], nil
}

func (r *fakeRepo) totalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

// recordingSink keeps emitted events in order.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Emit(ctx context.Context, evt domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Name)
	}
	return out
}

func f(v float64) *float64 { return &v }
