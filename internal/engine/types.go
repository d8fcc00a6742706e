// Package engine implements the vehicle routing constraint-programming core:
// building a routing model from a request, searching for a low-cost
// assignment of stops to vehicles, and projecting the search result into a
// webhook-ready payload.
package engine

import "encoding/json"

// Location is a single stop candidate: the depot (index depot_index in a
// Request) or a customer. ID is a stable, domain-assigned identifier and is
// never an index into Locations.
type Location struct {
	ID   int
	Name string
	Lat  float64
	Lng  float64

	// Pickup and Delivery are non-negative load deltas; a vehicle's load
	// change at this stop is Pickup - Delivery.
	Pickup   int
	Delivery int

	ServiceTime     int
	TimeWindowStart int
	TimeWindowEnd   int

	// UnservedPenalty, if non-nil, marks this location optional: the search
	// may skip it at the cost of this many objective units instead of
	// routing a vehicle to it.
	UnservedPenalty *int

	// LatePenalty, if non-nil, turns TimeWindowEnd into a soft bound: the
	// search may arrive later for this many objective units per minute late.
	LatePenalty *int

	// AllowedVehicleIDs, if non-nil, restricts which vehicles may visit this
	// location. Vehicle IDs are matched against Vehicle.ID, not index.
	AllowedVehicleIDs []int
}

// Optional reports whether the location may legally go unserved.
func (l Location) Optional() bool {
	return l.UnservedPenalty != nil
}

// SoftWindow reports whether the location's time window upper bound is soft.
func (l Location) SoftWindow() bool {
	return l.LatePenalty != nil
}

// Vehicle is a single vehicle in the fleet.
type Vehicle struct {
	ID        int
	Capacity  int
	FixedCost int

	// MaxDurationMinutes, if non-nil, caps this vehicle's time of return to
	// the depot (the route's end time, measured on the same clock as the
	// time windows, not relative to its departure).
	MaxDurationMinutes *int
}

// Request is the fully validated, typed input to a solve. It is built by the
// intake package from the wire JSON body; the engine never parses JSON
// itself.
type Request struct {
	WebhookURL string
	ComputeID  int64

	DepotIndex int
	Locations  []Location
	Vehicles   []Vehicle

	// DistanceMatrix is in metres, TimeMatrix in minutes. Both are N×N where
	// N = len(Locations).
	DistanceMatrix [][]int
	TimeMatrix     [][]int

	TimeLimitSeconds int

	// V1 reports whether this request arrived on the v1 endpoint, which
	// omits unserved_locations from the resulting payload and rejects v2-only
	// fields at intake.
	V1 bool
}

// NumNodes returns the number of locations (and matrix dimension) in the
// request.
func (r *Request) NumNodes() int {
	return len(r.Locations)
}

// NumVehicles returns the size of the fleet.
func (r *Request) NumVehicles() int {
	return len(r.Vehicles)
}

// Stop is a single visited location within a route, in visit order.
type Stop struct {
	LocationID  int    `json:"location_id"`
	Name        string `json:"name,omitempty"`
	ArrivalTime int    `json:"arrival_time"`
	Pickup      int    `json:"pickup"`
	Delivery    int    `json:"delivery"`
}

// Route is a single vehicle's ordered sequence of stops, starting and ending
// at the depot.
type Route struct {
	VehicleID     int    `json:"vehicle_id"`
	Stops         []Stop `json:"stops"`
	TotalDistance int    `json:"total_distance"`
	TotalPickup   int    `json:"total_pickup"`
	TotalDelivery int    `json:"total_delivery"`
}

// UnservedLocation is a non-depot location that no route visits, only
// possible when the location carries an unserved_penalty.
type UnservedLocation struct {
	LocationID int    `json:"location_id"`
	Name       string `json:"name,omitempty"`
}

// Payload is the body posted to a request's webhook_url on solve completion,
// and the value returned in-process when no webhook is configured (e.g. in
// tests). Exactly one of the success fields or Message is populated,
// depending on Status.
type Payload struct {
	ComputeID      int64   `json:"compute_id"`
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
	Status         string  `json:"status"`

	// Success fields. TotalDistance and Routes are always present on a
	// success payload, even when zero/empty (e.g. every customer unserved) —
	// see MarshalJSON, which suppresses them only for an error payload.
	TotalDistance     int                `json:"total_distance"`
	Routes            []Route            `json:"routes"`
	UnservedLocations []UnservedLocation `json:"unserved_locations,omitempty"`

	// Error fields.
	Message string `json:"message,omitempty"`

	// unservedSet distinguishes a v1 payload (never emits unserved_locations)
	// from a v2 payload (always emits it, even as an empty list) — see
	// MarshalJSON. A plain `omitempty` tag cannot express that distinction by
	// itself, since an empty v2 list and an absent v1 field both marshal to
	// nothing under it.
	unservedSet bool
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MarshalJSON emits unserved_locations only for a v2 payload (§9 open
// question 2): present and possibly empty for v2, entirely absent for v1,
// regardless of whether the slice itself is nil. It also suppresses
// total_distance and routes entirely on an error payload, while guaranteeing
// they are present (routes as `[]`, not `null`, when no vehicle is used) on a
// success payload.
func (p Payload) MarshalJSON() ([]byte, error) {
	type alias Payload
	aux := struct {
		alias
		TotalDistance     *int                `json:"total_distance,omitempty"`
		Routes            *[]Route            `json:"routes,omitempty"`
		UnservedLocations *[]UnservedLocation `json:"unserved_locations,omitempty"`
	}{alias: alias(p)}

	if p.Status == StatusSuccess {
		dist := p.TotalDistance
		aux.TotalDistance = &dist

		routes := p.Routes
		if routes == nil {
			routes = []Route{}
		}
		aux.Routes = &routes
	}

	if p.unservedSet {
		locs := p.UnservedLocations
		if locs == nil {
			locs = []UnservedLocation{}
		}
		aux.UnservedLocations = &locs
	}

	return json.Marshal(aux)
}
