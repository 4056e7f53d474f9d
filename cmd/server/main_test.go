package main

import (
	"freight-route-engine/internal/adapters/repositories"
	"freight-route-engine/internal/ports"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offersOnly satisfies OfferStore without resolving cities.
type offersOnly struct {
	ports.OfferStore
}

func TestCityRepository(t *testing.T) {
	mem := repositories.NewMemoryOfferRepository()
	cities, err := cityRepository(mem)
	require.NoError(t, err)
	assert.Same(t, mem, cities)

	_, err = cityRepository(offersOnly{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot resolve cities")
}
