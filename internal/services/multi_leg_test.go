package services

import (
	"context"
	"errors"
	"freight-route-engine/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRouteGreedyChain(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityB, f(300), f(100)) // 3.0 best from A
	repo.add(2, cityA, cityC, f(200), f(100))
	repo.add(3, cityB, cityC, f(150), f(100)) // 1.5
	repo.add(4, cityB, cityD, f(250), f(100)) // 2.5 best from B
	repo.add(5, cityD, cityE, f(100), f(50))  // 2.0 only from D
	repo.add(6, cityE, cityA, f(500), f(100))

	e := newTestEngine(t, repo)
	route, err := e.BuildRoute(context.Background(), cityA, 3)
	require.NoError(t, err)
	require.NotNil(t, route)
	require.Len(t, route.Segments, 3)

	assert.Equal(t, []int64{1, 4, 5}, ids(route.Segments))
	assert.Equal(t, cityA, route.Segments[0].Origin)
	for i := 1; i < len(route.Segments); i++ {
		assert.Equal(t, route.Segments[i-1].Destination, route.Segments[i].Origin)
	}
	assert.InDelta(t, 250.0, route.TotalDistance, 1e-9)
	assert.InDelta(t, 650.0, route.TotalRevenue, 1e-9)
	assert.InDelta(t, 2.6, route.PricePerKm, 1e-9)
}

func TestBuildRouteStopsWhenNoOffers(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityB, f(300), f(100))

	e := newTestEngine(t, repo)
	route, err := e.BuildRoute(context.Background(), cityA, 3)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Len(t, route.Segments, 1)
	last, ok := route.LastCity()
	assert.True(t, ok)
	assert.Equal(t, cityB, last)
}

func TestBuildRouteNeverExceedsMaxLegs(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityB, f(100), f(100))
	repo.add(2, cityB, cityA, f(100), f(100))

	e := newTestEngine(t, repo)
	for _, maxLegs := range []int{1, 2, 5} {
		route, err := e.BuildRoute(context.Background(), cityA, maxLegs)
		require.NoError(t, err)
		require.NotNil(t, route)
		assert.Len(t, route.Segments, maxLegs)
	}

	route, err := e.BuildRoute(context.Background(), cityA, 0)
	require.NoError(t, err)
	assert.Len(t, route.Segments, DefaultEngineConfig().MaxLegs)
}

func TestBuildRouteNoRoute(t *testing.T) {
	repo := newFakeRepo(cityA)
	sink := &recordingSink{}
	e := newTestEngine(t, repo, WithEventSink(sink))

	route, err := e.BuildRoute(context.Background(), cityA, 3)
	require.NoError(t, err)
	assert.Nil(t, route)
	assert.Equal(t, []string{domain.EventMultiLegNone}, sink.names())
}

func TestBuildRouteZeroDistanceIsNoRoute(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityB, f(300), nil)

	e := newTestEngine(t, repo)
	route, err := e.BuildRoute(context.Background(), cityA, 3)
	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestBuildRouteErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityB, f(300), f(100))

	e := newTestEngine(t, repo)
	_, err := e.BuildRoute(context.Background(), domain.CityID(50), 3)
	assert.ErrorIs(t, err, domain.ErrCityNotFound)

	boom := errors.New("disk I/O error")
	repo.failOn[cityB] = boom
	route, err := e.BuildRoute(context.Background(), cityA, 3)
	assert.Nil(t, route)
	assert.ErrorIs(t, err, domain.ErrRepository)
	assert.ErrorIs(t, err, boom)
}

func TestBuildRouteRejectsTooManyLegs(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityB, f(100), f(100))
	repo.add(2, cityB, cityA, f(100), f(100))

	e := newTestEngine(t, repo)
	limit := DefaultEngineConfig().MaxLegsLimit

	route, err := e.BuildRoute(context.Background(), cityA, limit)
	require.NoError(t, err)
	assert.Len(t, route.Segments, limit)

	calls := repo.totalCalls()
	route, err = e.BuildRoute(context.Background(), cityA, 2_000_000)
	assert.Nil(t, route)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, calls, repo.totalCalls())
}

func TestBuildRouteStopsWhenContextDone(t *testing.T) {
	repo := newFakeRepo()
	repo.add(1, cityA, cityB, f(100), f(100))
	repo.add(2, cityB, cityA, f(100), f(100))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo.onDeparting = func(total int) {
		if total == 3 {
			cancel()
		}
	}

	e := newTestEngine(t, repo)
	route, err := e.BuildRoute(ctx, cityA, 10)
	assert.Nil(t, route)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrRepository)
	assert.Equal(t, 3, repo.totalCalls())
}
