package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrproute/pkg/apperror"
)

func TestBuildModel_NegativeCapacity(t *testing.T) {
	req := baseRequest()
	req.Vehicles[0].Capacity = -1

	_, err := buildModel(req)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNegativeCapacity, apperror.Code(err))
}

func TestBuildModel_NegativeMatrixEntry(t *testing.T) {
	req := baseRequest()
	req.DistanceMatrix[0][1] = -5

	_, err := buildModel(req)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNegativeMatrix, apperror.Code(err))
}

func TestBuildModel_NegativePickupOrDelivery(t *testing.T) {
	req := baseRequest()
	req.Locations[1].Pickup = -1

	_, err := buildModel(req)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNegativeCapacity, apperror.Code(err))
}

func TestBuildModel_ResolvesAllowedVehicles(t *testing.T) {
	req := baseRequest()
	req.Vehicles = []Vehicle{{ID: 10, Capacity: 100}, {ID: 20, Capacity: 100}}
	req.Locations[1].AllowedVehicleIDs = []int{20}

	m, err := buildModel(req)
	require.NoError(t, err)

	// Location index 1 forbids vehicle index 0 (id 10) and allows index 1 (id 20).
	assert.False(t, m.allowed(1, 0))
	assert.True(t, m.allowed(1, 1))
}

func TestBuildModel_NoAllowListMeansEveryVehicleAllowed(t *testing.T) {
	req := baseRequest()
	m, err := buildModel(req)
	require.NoError(t, err)

	for v := range m.vehicleByIndex {
		assert.True(t, m.allowed(1, v))
	}
}

func TestModel_ArcCostAndTransitTime(t *testing.T) {
	req := baseRequest()
	req.Locations[1].ServiceTime = 3
	m, err := buildModel(req)
	require.NoError(t, err)

	assert.Equal(t, 10, m.arcCost(0, 1))
	assert.Equal(t, 5, m.transitTime(0, 1))
	assert.Equal(t, 5+3, m.transitTime(1, 0)) // service at origin (node 1), then travel
}

func TestModel_Demand(t *testing.T) {
	req := baseRequest()
	req.Locations[1].Pickup = 7
	req.Locations[1].Delivery = 2
	m, err := buildModel(req)
	require.NoError(t, err)

	assert.Equal(t, 5, m.demand(1))
}
