package repositories

import (
	"freight-route-engine/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeedFileYAML(t *testing.T) {
	seed, err := ReadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)
	require.Len(t, seed.Cities, 3)
	require.Len(t, seed.Offers, 3)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cities, aliases, offers, err := seed.Resolve(now)
	require.NoError(t, err)

	assert.Equal(t, "DE", cities[0].CountryCode)
	assert.Equal(t, domain.CityID(3), aliases["warszawa"])
	assert.Equal(t, domain.CityID(1), aliases["berlin-mitte"])

	o := offers[1]
	assert.Equal(t, int64(11), o.ID)
	assert.Equal(t, domain.CityID(3), o.Origin)
	assert.Equal(t, domain.CityID(1), o.Destination)
	assert.Nil(t, o.Price)
	assert.Equal(t, 969.0, *o.EstimatedPrice)
	assert.True(t, o.Unverified)
	assert.Equal(t, now.Add(-30*time.Hour), o.CreatedAt)
}

func TestReadSeedFileJSON(t *testing.T) {
	seed, err := ReadSeedFile("testdata/seed.json")
	require.NoError(t, err)

	_, _, offers, err := seed.Resolve(time.Now())
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, int64(0), offers[0].ID)
	assert.Equal(t, 500.0, *offers[0].Price)
}

func TestSeedResolveErrors(t *testing.T) {
	_, _, _, err := Seed{Cities: []CitySeed{{ID: 0, Name: "Nowhere"}}}.Resolve(time.Now())
	assert.Error(t, err)

	_, _, _, err = Seed{Cities: []CitySeed{{ID: 1, Name: "  "}}}.Resolve(time.Now())
	assert.Error(t, err)

	_, _, _, err = Seed{
		Cities: []CitySeed{{ID: 1, Name: "Berlin"}},
		Offers: []OfferSeed{{Origin: "Berlin", Destination: "Paris"}},
	}.Resolve(time.Now())
	assert.ErrorIs(t, err, domain.ErrCityNotFound)
}

func TestReadSeedFileMissing(t *testing.T) {
	_, err := ReadSeedFile("testdata/nope.yaml")
	assert.Error(t, err)
}
