package services

import (
	"context"
	"errors"
	"freight-route-engine/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteDirectSkipsIndirectSearch(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityB, f(100), f(100)) // 1.0: poor, still direct
	repo.add(2, cityA, cityC, f(500), f(100))
	repo.add(3, cityC, cityB, f(500), f(100))
	repo.add(4, cityA, cityB, nil, nil)

	sink := &recordingSink{}
	e := newTestEngine(t, repo, WithEventSink(sink))
	routes, err := e.Route(context.Background(), cityA, cityB, 1.5)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	for _, r := range routes {
		require.Len(t, r.Segments, 1)
		assert.Equal(t, cityB, r.Segments[0].Destination)
	}
	assert.Equal(t, 1, repo.calls[cityA])
	assert.Equal(t, 0, repo.calls[cityC], "intermediate city must not be queried")
	assert.Equal(t, 1, repo.totalCalls())
	assert.Equal(t, []string{domain.EventRouteDirect}, sink.names())

	// unknown distance and price aggregate to zero, ratio defaults to zero
	assert.Equal(t, 0.0, routes[1].TotalDistance)
	assert.Equal(t, 0.0, routes[1].PricePerKm)
}

func TestRouteIndirectRespectsFloor(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityC, f(100), f(100)) // via C
	repo.add(2, cityC, cityB, f(100), f(100)) // A-C-B: 200/200 = 1.0 below floor
	repo.add(3, cityA, cityD, f(300), f(100)) // via D
	repo.add(4, cityD, cityB, f(100), f(100)) // A-D-B: 400/200 = 2.0

	e := newTestEngine(t, repo)
	routes, err := e.Route(context.Background(), cityA, cityB, 1.5)
	require.NoError(t, err)
	require.Len(t, routes, 1)

	r := routes[0]
	require.Len(t, r.Segments, 2)
	assert.Equal(t, cityD, r.Segments[0].Destination)
	assert.Equal(t, cityD, r.Segments[1].Origin)
	assert.Equal(t, cityB, r.Segments[1].Destination)
	assert.InDelta(t, 200.0, r.TotalDistance, 1e-9)
	assert.InDelta(t, 400.0, r.TotalRevenue, 1e-9)
	assert.InDelta(t, 2.0, r.PricePerKm, 1e-9)
	assert.GreaterOrEqual(t, r.PricePerKm, 1.5)
}

func TestRouteIndirectReturnsFirstFoundNotBest(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityC, f(200), f(100))
	repo.add(2, cityC, cityB, f(200), f(100)) // 2.0, found first
	repo.add(3, cityA, cityD, f(900), f(100))
	repo.add(4, cityD, cityB, f(900), f(100)) // 9.0, never considered

	e := newTestEngine(t, repo)
	routes, err := e.Route(context.Background(), cityA, cityB, 1.5)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, cityC, routes[0].Segments[0].Destination)
	assert.Equal(t, 0, repo.calls[cityD])
}

func TestRouteNoPath(t *testing.T) {
	repo := newFakeRepo(cityB)
	repo.add(1, cityA, cityC, f(100), f(100))
	repo.add(2, cityC, cityD, f(100), f(100))

	sink := &recordingSink{}
	e := newTestEngine(t, repo, WithEventSink(sink))
	routes, err := e.Route(context.Background(), cityA, cityB, 1.5)
	require.NoError(t, err)
	assert.NotNil(t, routes)
	assert.Empty(t, routes)
	assert.Equal(t, []string{domain.EventRouteNone}, sink.names())
}

func TestRouteIntermediateQueriedOnce(t *testing.T) {
	repo := newFakeRepo(cityB)
	repo.add(1, cityA, cityC, f(10), f(100))
	repo.add(2, cityA, cityC, f(20), f(100))
	repo.add(3, cityC, cityB, f(10), f(100))

	e := newTestEngine(t, repo)
	routes, err := e.Route(context.Background(), cityA, cityB, 1.5)
	require.NoError(t, err)
	assert.Empty(t, routes)
	assert.Equal(t, 1, repo.calls[cityC])
}

func TestRouteErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityC, f(100), f(100))

	e := newTestEngine(t, repo)
	_, err := e.Route(context.Background(), domain.CityID(42), cityB, 1.5)
	assert.ErrorIs(t, err, domain.ErrCityNotFound)

	boom := errors.New("timeout")
	repo.failOn[cityC] = boom
	_, err = e.Route(context.Background(), cityA, cityB, 1.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRepository)
	assert.ErrorIs(t, err, boom)
}

type fakeCities map[domain.CityID]domain.City

func (c fakeCities) GetCity(ctx context.Context, id domain.CityID) (domain.City, error) {
	city, ok := c[id]
	if !ok {
		return domain.City{}, domain.ErrCityNotFound
	}
	return city, nil
}

func (c fakeCities) FindCity(ctx context.Context, name string) (domain.City, error) {
	for _, city := range c {
		if city.Name == name {
			return city, nil
		}
	}
	return domain.City{}, domain.ErrCityNotFound
}

func TestRouteUnknownDestination(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityC, f(100), f(100))

	cities := fakeCities{cityA: {ID: cityA}, cityC: {ID: cityC}}
	e := newTestEngine(t, repo, WithCityRepository(cities))

	_, err := e.Route(context.Background(), cityA, domain.CityID(77), 1.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCityNotFound)
	assert.Equal(t, 0, repo.totalCalls())
}
