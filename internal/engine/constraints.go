package engine

import (
	"fmt"

	"vrproute/pkg/apperror"
)

// model is the compiled, solver-ready form of a Request: location/vehicle
// lookups resolved to dense indices, per-location constraint data, and the
// evaluators the search driver consults while building and scoring routes.
// Building a model is the constraint-builder step of spec §4.1; it never
// mutates the Request it was built from.
type model struct {
	req *Request

	depot int // node index of the depot

	locByIndex []Location // node index -> location, including the depot
	locIndex   map[int]int // location id -> node index

	vehicleByIndex []Vehicle // vehicle index -> vehicle
	vehicleIndex   map[int]int // vehicle id -> vehicle index

	// forbidden[node][vehicle] is true when a vehicle-allow constraint
	// excludes that vehicle from visiting that node (spec §4.1 "vehicle-allow
	// constraints" — formulated as a forbidden set, never by removing values
	// from a domain, so it survives disjunction/soft-window interaction).
	forbidden [][]bool

	horizon int // max(time_window_end) across all locations; the dimension's upper bound
}

// buildModel validates capacity/matrix non-negativity (spec §7 kind 2 —
// "model-build errors" reported via the webhook payload, never synchronously)
// and resolves the request into a model ready for the search driver.
//
// Validate (kind-1, request-shape) must already have passed before this is
// called; buildModel assumes the matrices are N×N and ids are unique.
func buildModel(req *Request) (*model, error) {
	n := len(req.Locations)

	for _, row := range req.DistanceMatrix {
		for _, d := range row {
			if d < 0 {
				return nil, apperror.New(apperror.CodeNegativeMatrix,
					"distance_matrix contains a negative entry")
			}
		}
	}
	for _, row := range req.TimeMatrix {
		for _, t := range row {
			if t < 0 {
				return nil, apperror.New(apperror.CodeNegativeMatrix,
					"time_matrix contains a negative entry")
			}
		}
	}
	for _, v := range req.Vehicles {
		if v.Capacity < 0 {
			return nil, apperror.New(apperror.CodeNegativeCapacity,
				fmt.Sprintf("vehicle %d has negative capacity %d", v.ID, v.Capacity))
		}
	}
	for _, loc := range req.Locations {
		if loc.Pickup < 0 || loc.Delivery < 0 {
			return nil, apperror.New(apperror.CodeNegativeCapacity,
				fmt.Sprintf("location %d has a negative pickup/delivery amount", loc.ID))
		}
	}

	m := &model{
		req:            req,
		depot:          req.DepotIndex,
		locByIndex:     make([]Location, n),
		locIndex:       make(map[int]int, n),
		vehicleByIndex: make([]Vehicle, len(req.Vehicles)),
		vehicleIndex:   make(map[int]int, len(req.Vehicles)),
	}

	copy(m.locByIndex, req.Locations)
	for i, loc := range req.Locations {
		m.locIndex[loc.ID] = i
		if loc.TimeWindowEnd > m.horizon {
			m.horizon = loc.TimeWindowEnd
		}
	}

	copy(m.vehicleByIndex, req.Vehicles)
	for i, v := range req.Vehicles {
		m.vehicleIndex[v.ID] = i
	}

	m.forbidden = make([][]bool, n)
	for i, loc := range m.locByIndex {
		m.forbidden[i] = make([]bool, len(m.vehicleByIndex))
		if len(loc.AllowedVehicleIDs) == 0 {
			continue
		}
		allowed := make(map[int]bool, len(loc.AllowedVehicleIDs))
		for _, vid := range loc.AllowedVehicleIDs {
			if vidx, ok := m.vehicleIndex[vid]; ok {
				allowed[vidx] = true
			}
		}
		for vidx := range m.vehicleByIndex {
			if !allowed[vidx] {
				m.forbidden[i][vidx] = true
			}
		}
	}

	return m, nil
}

// numNodes returns the node count, depot included.
func (m *model) numNodes() int { return len(m.locByIndex) }

// numVehicles returns the fleet size.
func (m *model) numVehicles() int { return len(m.vehicleByIndex) }

// allowed reports whether vehicle vidx may legally visit node idx.
func (m *model) allowed(node, vidx int) bool {
	return !m.forbidden[node][vidx]
}

// arcCost is the base distance-only arc cost used by the search driver to
// compare candidate insertions; fixed costs are added separately, once per
// vehicle, only when that vehicle is first used (spec §4.1 "Arc cost").
func (m *model) arcCost(a, b int) int {
	return m.req.DistanceMatrix[a][b]
}

// transitTime is the time-dimension transit from a to b: service at the
// origin, then travel (spec §4.1 "Time dimension").
func (m *model) transitTime(a, b int) int {
	return m.req.TimeMatrix[a][b] + m.locByIndex[a].ServiceTime
}

// demand is the capacity-dimension transit at a node: pickup minus delivery.
func (m *model) demand(node int) int {
	loc := m.locByIndex[node]
	return loc.Pickup - loc.Delivery
}
