package repositories

import (
	"cmp"
	"context"
	"fmt"
	"freight-route-engine/internal/domain"
	"slices"
	"strings"
	"sync"
	"time"
)

// In-memory implementation of the OfferStore and CityRepository ports.
// Used when no database is configured and by tests.
type MemoryOfferRepository struct {
	mu      sync.RWMutex
	cities  map[domain.CityID]domain.City
	aliases map[string]domain.CityID
	offers  map[int64]domain.Offer
	nextID  int64
	now     func() time.Time
}

func NewMemoryOfferRepository() *MemoryOfferRepository {
	return &MemoryOfferRepository{
		cities:  make(map[domain.CityID]domain.City),
		aliases: make(map[string]domain.CityID),
		offers:  make(map[int64]domain.Offer),
		nextID:  1,
		now:     time.Now,
	}
}

// SetClock replaces the clock used for the lookback window and default timestamps.
func (m *MemoryOfferRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AddCity registers a city and optional aliases, replacing any previous entry with the same id.
func (m *MemoryOfferRepository) AddCity(c domain.City, aliases ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cities[c.ID] = c
	for _, a := range aliases {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			m.aliases[a] = c.ID
		}
	}
}

// LoadSeed loads a resolved seed file, the in-memory counterpart of SeedFromFile.
func (m *MemoryOfferRepository) LoadSeed(seed Seed) error {
	cities, aliases, offers, err := seed.Resolve(m.clock())
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range cities {
		m.cities[c.ID] = c
	}
	for a, id := range aliases {
		m.aliases[a] = id
	}
	for _, o := range offers {
		m.put(o)
	}
	return nil
}

func (m *MemoryOfferRepository) clock() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now()
}

// put stores o under its id, assigning the next id when it has none. Caller holds the lock.
func (m *MemoryOfferRepository) put(o domain.Offer) int64 {
	if o.ID <= 0 {
		o.ID = m.nextID
	}
	if o.ID >= m.nextID {
		m.nextID = o.ID + 1
	}
	m.offers[o.ID] = o
	return o.ID
}

func (m *MemoryOfferRepository) departing(cityID domain.CityID, windowDays int) ([]domain.Offer, error) {
	if _, ok := m.cities[cityID]; !ok {
		return nil, fmt.Errorf("city %d: %w", cityID, domain.ErrCityNotFound)
	}

	cutoff := m.now().AddDate(0, 0, -windowDays)
	out := make([]domain.Offer, 0, 16)
	for _, o := range m.offers {
		if o.Origin == cityID && !o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Offer) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryOfferRepository) OffersDepartingCity(_ context.Context, cityID domain.CityID, windowDays int) ([]domain.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	offers, err := m.departing(cityID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("offers departing city: %w", err)
	}
	return offers, nil
}

func (m *MemoryOfferRepository) CountOffersDepartingCity(_ context.Context, cityID domain.CityID, windowDays int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	offers, err := m.departing(cityID, windowDays)
	if err != nil {
		return 0, fmt.Errorf("count offers departing city: %w", err)
	}
	return len(offers), nil
}

func (m *MemoryOfferRepository) InsertOffer(_ context.Context, offer domain.Offer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range []domain.CityID{offer.Origin, offer.Destination} {
		if _, ok := m.cities[id]; !ok {
			return 0, fmt.Errorf("insert offer: city %d: %w", id, domain.ErrCityNotFound)
		}
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = m.now()
	}

	offer.ID = 0
	return m.put(offer), nil
}

func (m *MemoryOfferRepository) GetOffer(_ context.Context, id int64) (domain.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.offers[id]
	if !ok {
		return domain.Offer{}, fmt.Errorf("get offer %d: %w", id, domain.ErrOfferNotFound)
	}
	return o, nil
}

func (m *MemoryOfferRepository) ListUnverified(_ context.Context) ([]domain.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Offer, 0)
	for _, o := range m.offers {
		if o.Unverified {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Offer) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryOfferRepository) MarkUnverified(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.offers[id]
	if !ok {
		return fmt.Errorf("mark unverified: offer %d: %w", id, domain.ErrOfferNotFound)
	}
	o.Unverified = true
	m.offers[id] = o
	return nil
}

func (m *MemoryOfferRepository) CorrectOffer(_ context.Context, id int64, c domain.Correction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.offers[id]
	if !ok {
		return fmt.Errorf("correct offer: offer %d: %w", id, domain.ErrOfferNotFound)
	}
	for _, cityID := range []domain.CityID{c.Origin, c.Destination} {
		if _, ok := m.cities[cityID]; !ok {
			return fmt.Errorf("correct offer %d: city %d: %w", id, cityID, domain.ErrCityNotFound)
		}
	}

	o.Origin = c.Origin
	o.Destination = c.Destination
	o.Price = c.Price
	o.Unverified = false
	m.offers[id] = o
	return nil
}

func (m *MemoryOfferRepository) GetCity(_ context.Context, id domain.CityID) (domain.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cities[id]
	if !ok {
		return domain.City{}, fmt.Errorf("get city %d: %w", id, domain.ErrCityNotFound)
	}
	return c, nil
}

func (m *MemoryOfferRepository) FindCity(_ context.Context, name string) (domain.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if key != "" {
		ids := make([]domain.CityID, 0, len(m.cities))
		for id := range m.cities {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if strings.ToLower(m.cities[id].Name) == key {
				return m.cities[id], nil
			}
		}
		if id, ok := m.aliases[key]; ok {
			if c, ok := m.cities[id]; ok {
				return c, nil
			}
		}
	}
	return domain.City{}, fmt.Errorf("find city %q: %w", name, domain.ErrCityNotFound)
}
