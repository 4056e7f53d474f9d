package services

import (
	"context"
	"freight-route-engine/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineRequiresRepository(t *testing.T) {
	_, err := NewEngine(nil, DefaultEngineConfig())
	assert.Error(t, err)
}

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.Equal(t, 7, cfg.LookbackDays)
	assert.Equal(t, 5, cfg.BestLoadsLimit)
	assert.Equal(t, 3, cfg.MaxLegs)
	assert.Equal(t, 20, cfg.MaxLegsLimit)
	assert.Equal(t, 365, cfg.MaxWindowDays)
	assert.Equal(t, 1.5, cfg.AcceptableRate)
	assert.Equal(t, 2.0, cfg.HighDemandRate)
	assert.Equal(t, 3, cfg.RiskHighBelow)
	assert.Equal(t, 10, cfg.RiskMediumMax)
}

// A small freight network exercised end to end through every engine operation.
func TestEngineScenario(t *testing.T) {
	repo := newFakeRepo(cityE)
	repo.add(1, cityA, cityB, f(300), f(150)) // 2.0
	repo.add(2, cityA, cityC, f(250), f(100)) // 2.5
	repo.add(3, cityC, cityD, f(400), f(200)) // 2.0
	repo.count[cityD] = 0

	e := newTestEngine(t, repo)
	ctx := context.Background()

	loads, err := e.BestLoadsFrom(ctx, cityA, 5)
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, cityC, loads[0].Destination)

	route, err := e.BuildRoute(ctx, cityA, 3)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, []int64{2, 3}, ids(route.Segments))

	last, _ := route.LastCity()
	level, err := e.AssessRisk(ctx, last, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, level)

	routes, err := e.Route(ctx, cityA, cityD, e.Config().AcceptableRate)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.InDelta(t, 650.0/300.0, routes[0].PricePerKm, 1e-9)

	none, err := e.BuildRoute(ctx, cityE, 3)
	require.NoError(t, err)
	assert.Nil(t, none)
}
