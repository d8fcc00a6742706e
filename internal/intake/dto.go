package intake

import "vrproute/internal/engine"

// defaultTimeWindowEnd is applied when a location omits time_window_end,
// matching the source schema's field default of a full-day horizon.
const defaultTimeWindowEnd = 1440

// locationDTO is the wire shape of a single location, shared by the v1 and
// v2 endpoints. v1 requests must leave the v2-only fields unset; Validate
// enforces that once the DTO is converted to an engine.Request.
type locationDTO struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	Pickup            int     `json:"pickup"`
	Delivery          int     `json:"delivery"`
	ServiceTime       int     `json:"service_time"`
	TimeWindowStart   int     `json:"time_window_start"`
	TimeWindowEnd     *int    `json:"time_window_end,omitempty"`
	UnservedPenalty   *int    `json:"unserved_penalty,omitempty"`
	LatePenalty       *int    `json:"late_penalty,omitempty"`
	AllowedVehicleIDs []int   `json:"allowed_vehicle_ids,omitempty"`
}

type vehicleDTO struct {
	ID                 int  `json:"id"`
	Capacity           int  `json:"capacity"`
	FixedCost          int  `json:"fixed_cost"`
	MaxDurationMinutes *int `json:"max_duration_minutes,omitempty"`
}

// requestDTO is the wire shape of a solve request body.
type requestDTO struct {
	WebhookURL       string        `json:"webhook_url"`
	ComputeID        int64         `json:"compute_id"`
	DepotIndex       int           `json:"depot_index"`
	Locations        []locationDTO `json:"locations"`
	Vehicles         []vehicleDTO  `json:"vehicles"`
	DistanceMatrix   [][]int       `json:"distance_matrix"`
	TimeMatrix       [][]int       `json:"time_matrix"`
	TimeLimitSeconds int           `json:"time_limit_seconds"`
}

// toEngineRequest converts the wire DTO into the engine's typed Request. v1
// marks the request as arriving on the v1 endpoint, so Validate rejects
// v2-only fields instead of silently ignoring them.
func (d requestDTO) toEngineRequest(v1 bool) *engine.Request {
	locations := make([]engine.Location, len(d.Locations))
	for i, l := range d.Locations {
		timeWindowEnd := defaultTimeWindowEnd
		if l.TimeWindowEnd != nil {
			timeWindowEnd = *l.TimeWindowEnd
		}

		locations[i] = engine.Location{
			ID:                l.ID,
			Name:              l.Name,
			Lat:               l.Lat,
			Lng:               l.Lng,
			Pickup:            l.Pickup,
			Delivery:          l.Delivery,
			ServiceTime:       l.ServiceTime,
			TimeWindowStart:   l.TimeWindowStart,
			TimeWindowEnd:     timeWindowEnd,
			UnservedPenalty:   l.UnservedPenalty,
			LatePenalty:       l.LatePenalty,
			AllowedVehicleIDs: l.AllowedVehicleIDs,
		}
	}

	vehicles := make([]engine.Vehicle, len(d.Vehicles))
	for i, v := range d.Vehicles {
		vehicles[i] = engine.Vehicle{
			ID:                 v.ID,
			Capacity:           v.Capacity,
			FixedCost:          v.FixedCost,
			MaxDurationMinutes: v.MaxDurationMinutes,
		}
	}

	return &engine.Request{
		WebhookURL:       d.WebhookURL,
		ComputeID:        d.ComputeID,
		DepotIndex:       d.DepotIndex,
		Locations:        locations,
		Vehicles:         vehicles,
		DistanceMatrix:   d.DistanceMatrix,
		TimeMatrix:       d.TimeMatrix,
		TimeLimitSeconds: d.TimeLimitSeconds,
		V1:               v1,
	}
}
