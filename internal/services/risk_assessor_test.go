package services

import (
	"context"
	"errors"
	"freight-route-engine/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRiskBoundaries(t *testing.T) {
	cfg := DefaultEngineConfig()
	tests := []struct {
		count int
		want  domain.RiskLevel
	}{
		{0, domain.RiskHigh},
		{2, domain.RiskHigh},
		{3, domain.RiskMedium},
		{10, domain.RiskMedium},
		{11, domain.RiskLow},
		{250, domain.RiskLow},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ClassifyRisk(tc.count, cfg), "count=%d", tc.count)
	}
}

func TestAssessRisk(t *testing.T) {
	repo := newFakeRepo(cityA, cityB, cityC)
	repo.count[cityB] = 7
	repo.count[cityC] = 11

	sink := &recordingSink{}
	e := newTestEngine(t, repo, WithEventSink(sink))

	level, err := e.AssessRisk(context.Background(), cityA, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, level)

	level, err = e.AssessRisk(context.Background(), cityB, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskMedium, level)

	level, err = e.AssessRisk(context.Background(), cityC, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskLow, level)

	require.Len(t, sink.events, 3)
	assert.Equal(t, "Low", sink.events[2].Fields["level"])
	assert.Equal(t, 7, sink.events[2].Fields["window_days"])
}

func TestAssessRiskFailuresAreUnknown(t *testing.T) {
	repo := newFakeRepo(cityA)
	sink := &recordingSink{}
	e := newTestEngine(t, repo, WithEventSink(sink))

	level, err := e.AssessRisk(context.Background(), domain.CityID(404), 7)
	assert.Equal(t, domain.RiskUnknown, level)
	assert.ErrorIs(t, err, domain.ErrCityNotFound)

	repo.failOn[cityA] = errors.New("database is locked")
	level, err = e.AssessRisk(context.Background(), cityA, 7)
	assert.Equal(t, domain.RiskUnknown, level)
	assert.ErrorIs(t, err, domain.ErrRepository)
	assert.Contains(t, sink.names(), domain.EventRepositoryFailure)
}

func TestAssessRiskRejectsWindowAboveLimit(t *testing.T) {
	repo := newFakeRepo(cityA)
	repo.count[cityA] = 12
	e := newTestEngine(t, repo)

	level, err := e.AssessRisk(context.Background(), cityA, 200000)
	assert.Equal(t, domain.RiskUnknown, level)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Zero(t, repo.countHits)

	level, err = e.AssessRisk(context.Background(), cityA, DefaultEngineConfig().MaxWindowDays)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskLow, level)
}
