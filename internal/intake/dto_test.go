package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToEngineRequest_DefaultsOmittedTimeWindowEndTo1440(t *testing.T) {
	dto := requestDTO{
		Locations: []locationDTO{
			{ID: 0},
			{ID: 1, TimeWindowStart: 10},
		},
	}

	req := dto.toEngineRequest(false)

	assert.Equal(t, 1440, req.Locations[0].TimeWindowEnd)
	assert.Equal(t, 1440, req.Locations[1].TimeWindowEnd)
}

func TestToEngineRequest_ExplicitTimeWindowEndIsPreserved(t *testing.T) {
	end := 60
	dto := requestDTO{
		Locations: []locationDTO{
			{ID: 0, TimeWindowEnd: &end},
		},
	}

	req := dto.toEngineRequest(false)

	assert.Equal(t, 60, req.Locations[0].TimeWindowEnd)
}

func TestToEngineRequest_ExplicitZeroTimeWindowEndIsPreserved(t *testing.T) {
	zero := 0
	dto := requestDTO{
		Locations: []locationDTO{
			{ID: 0, TimeWindowEnd: &zero},
		},
	}

	req := dto.toEngineRequest(false)

	assert.Equal(t, 0, req.Locations[0].TimeWindowEnd)
}
