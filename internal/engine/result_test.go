package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_UnservedLocationsOmittedOnV1(t *testing.T) {
	req := &Request{
		DepotIndex: 0,
		Locations: []Location{
			{ID: 0, TimeWindowEnd: 1440},
			{ID: 1, TimeWindowEnd: 1440},
		},
		Vehicles:         []Vehicle{{ID: 1, Capacity: 100}},
		DistanceMatrix:   [][]int{{0, 1000}, {1000, 0}},
		TimeMatrix:       [][]int{{0, 5}, {5, 0}},
		TimeLimitSeconds: 1,
		V1:               true,
	}

	payload := Solve(context.Background(), 1, req, nil)

	require.Equal(t, StatusSuccess, payload.Status)
	assert.Nil(t, payload.UnservedLocations)

	data, err := payload.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "unserved_locations")
}

func TestProject_UnservedLocationsAlwaysPresentOnV2(t *testing.T) {
	req := &Request{
		DepotIndex: 0,
		Locations: []Location{
			{ID: 0, TimeWindowEnd: 1440},
			{ID: 1, TimeWindowEnd: 1440},
		},
		Vehicles:         []Vehicle{{ID: 1, Capacity: 100}},
		DistanceMatrix:   [][]int{{0, 10}, {10, 0}},
		TimeMatrix:       [][]int{{0, 5}, {5, 0}},
		TimeLimitSeconds: 1,
	}

	payload := Solve(context.Background(), 1, req, nil)

	require.Equal(t, StatusSuccess, payload.Status)
	assert.NotNil(t, payload.UnservedLocations)
	assert.Empty(t, payload.UnservedLocations)

	data, err := payload.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unserved_locations":[]`)
}

func TestProject_RouteDistanceExcludesFixedCost(t *testing.T) {
	req := &Request{
		DepotIndex: 0,
		Locations: []Location{
			{ID: 0, TimeWindowEnd: 1440},
			{ID: 1, TimeWindowEnd: 1440},
		},
		Vehicles:         []Vehicle{{ID: 1, Capacity: 100, FixedCost: 5000}},
		DistanceMatrix:   [][]int{{0, 10}, {10, 0}},
		TimeMatrix:       [][]int{{0, 5}, {5, 0}},
		TimeLimitSeconds: 1,
	}

	payload := Solve(context.Background(), 1, req, nil)

	require.Equal(t, StatusSuccess, payload.Status)
	require.Len(t, payload.Routes, 1)
	assert.Equal(t, 20, payload.Routes[0].TotalDistance)
	assert.Equal(t, 20, payload.TotalDistance)
}

func TestErrorPayload_RoundsElapsedSecondsToThreeDecimalPlaces(t *testing.T) {
	p := errorPayload(42, 1.23456789, "boom")

	assert.Equal(t, int64(42), p.ComputeID)
	assert.Equal(t, StatusError, p.Status)
	assert.Equal(t, "boom", p.Message)
	assert.Equal(t, 1.235, p.ElapsedSeconds)
}

func TestErrorPayload_MarshalOmitsSuccessFields(t *testing.T) {
	p := errorPayload(42, 0, "boom")

	data, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "total_distance")
	assert.NotContains(t, string(data), `"routes"`)
}

func TestProject_AllCustomersUnservedStillMarshalsRoutesAndTotalDistance(t *testing.T) {
	penalty := 0
	req := &Request{
		DepotIndex: 0,
		Locations: []Location{
			{ID: 0, TimeWindowEnd: 1440},
			{ID: 1, TimeWindowEnd: 1440, UnservedPenalty: &penalty},
		},
		Vehicles:         []Vehicle{{ID: 1, Capacity: 100}},
		DistanceMatrix:   [][]int{{0, 10}, {10, 0}},
		TimeMatrix:       [][]int{{0, 5}, {5, 0}},
		TimeLimitSeconds: 1,
	}

	payload := Solve(context.Background(), 1, req, nil)

	require.Equal(t, StatusSuccess, payload.Status)
	assert.Equal(t, 0, payload.TotalDistance)
	assert.Empty(t, payload.Routes)

	data, err := payload.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_distance":0`)
	assert.Contains(t, string(data), `"routes":[]`)
}
