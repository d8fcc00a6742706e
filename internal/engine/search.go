package engine

import (
	"time"

	"vrproute/pkg/apperror"
)

// routePlan is one vehicle's route: a sequence of node indices starting and
// ending at the depot, with the arrival time computed for each.
type routePlan struct {
	vehicle int
	nodes   []int
	arrival []int
}

// solution is the search driver's output: one routePlan per vehicle (empty
// routes are depot-only and contribute nothing to the payload) plus the set
// of optional nodes the disjunction left unserved.
type solution struct {
	routes   []*routePlan
	unserved map[int]bool // node index -> left unserved
}

func emptyRoute(m *model, vehicle int) *routePlan {
	return &routePlan{
		vehicle: vehicle,
		nodes:   []int{m.depot, m.depot},
		arrival: []int{m.locByIndex[m.depot].TimeWindowStart, m.locByIndex[m.depot].TimeWindowStart},
	}
}

// simulateRoute walks a candidate node sequence and returns the per-node
// arrival times, whether it satisfies every hard constraint (time windows
// without a late_penalty, capacity bounds, max-duration cap), and the total
// soft-window penalty cost incurred (spec §4.1 "Time dimension").
func simulateRoute(m *model, vehicle int, nodes []int) (arrivals []int, feasible bool, lateCost int) {
	arrivals = make([]int, len(nodes))
	arrivals[0] = m.locByIndex[nodes[0]].TimeWindowStart
	feasible = true

	for k := 1; k < len(nodes); k++ {
		prev, cur := nodes[k-1], nodes[k]
		t := arrivals[k-1] + m.transitTime(prev, cur)
		loc := m.locByIndex[cur]
		if t < loc.TimeWindowStart {
			t = loc.TimeWindowStart
		}
		if loc.SoftWindow() {
			if t > loc.TimeWindowEnd {
				lateCost += (t - loc.TimeWindowEnd) * *loc.LatePenalty
			}
			if t > m.horizon {
				feasible = false
			}
		} else if t > loc.TimeWindowEnd {
			feasible = false
		}
		arrivals[k] = t
	}

	if v := m.vehicleByIndex[vehicle]; v.MaxDurationMinutes != nil {
		if arrivals[len(arrivals)-1] > *v.MaxDurationMinutes {
			feasible = false
		}
	}

	if !routeLoadFeasible(m, nodes, m.vehicleByIndex[vehicle].Capacity) {
		feasible = false
	}

	return arrivals, feasible, lateCost
}

// routeLoadFeasible reports whether some solver-chosen initial load lets the
// cumulative load stay within [0, capacity] for the whole route. The start
// load is not fixed to zero (spec §4.1 "Capacity dimension" — the solver may
// choose a non-zero initial load for a pre-loaded vehicle).
func routeLoadFeasible(m *model, nodes []int, capacity int) bool {
	prefix := 0
	min, max := 0, 0
	for _, n := range nodes {
		prefix += m.demand(n)
		if prefix < min {
			min = prefix
		}
		if prefix > max {
			max = prefix
		}
	}
	return max-min <= capacity
}

// routeDistance sums arcCost along the node sequence. arcCost reads the
// distance matrix directly and never includes fixed_cost, so no fixed cost
// leaks into a per-route figure (spec §4.3 step 2).
func routeDistance(m *model, nodes []int) int {
	total := 0
	for i := 1; i < len(nodes); i++ {
		total += m.arcCost(nodes[i-1], nodes[i])
	}
	return total
}

// insertion describes the cheapest place found to add a node to a route.
type insertion struct {
	vehicle  int
	position int // index in nodes at which the new node is inserted
	nodes    []int
	arrivals []int
	cost     int // arc-distance delta + soft-penalty delta + any newly-incurred fixed cost
}

// cheapestInsertion finds the lowest-cost feasible place to add node across
// every vehicle and every position in that vehicle's current route. It
// returns nil if no feasible placement exists anywhere.
func cheapestInsertion(m *model, routes []*routePlan, used []bool, node int) *insertion {
	var best *insertion

	for vidx, route := range routes {
		if !m.allowed(node, vidx) {
			continue
		}
		oldDist := routeDistance(m, route.nodes)
		_, _, oldLate := simulateRoute(m, vidx, route.nodes)

		for pos := 1; pos < len(route.nodes); pos++ {
			candidate := make([]int, 0, len(route.nodes)+1)
			candidate = append(candidate, route.nodes[:pos]...)
			candidate = append(candidate, node)
			candidate = append(candidate, route.nodes[pos:]...)

			arrivals, feasible, late := simulateRoute(m, vidx, candidate)
			if !feasible {
				continue
			}

			cost := routeDistance(m, candidate) - oldDist + (late - oldLate)
			if !used[vidx] {
				cost += m.vehicleByIndex[vidx].FixedCost
			}

			if best == nil || cost < best.cost {
				best = &insertion{vehicle: vidx, position: pos, nodes: candidate, arrivals: arrivals, cost: cost}
			}
		}
	}

	return best
}

// construct builds an initial solution with cheapest-insertion placement:
// required (non-optional) locations must be placed somewhere feasible or the
// whole solve is infeasible; optional locations are placed only when doing so
// costs less than their unserved_penalty (spec §4.1 "Optional stops").
func construct(m *model) (*solution, error) {
	routes := make([]*routePlan, m.numVehicles())
	used := make([]bool, m.numVehicles())
	for v := range routes {
		routes[v] = emptyRoute(m, v)
	}

	unserved := make(map[int]bool)

	required, optional := partitionNodes(m)

	for _, node := range required {
		best := cheapestInsertion(m, routes, used, node)
		if best == nil {
			return nil, apperror.Wrap(nil, apperror.CodeInfeasible,
				"no feasible solution; time windows or capacity may be too tight")
		}
		routes[best.vehicle].nodes = best.nodes
		routes[best.vehicle].arrival = best.arrivals
		used[best.vehicle] = true
	}

	for _, node := range optional {
		penalty := *m.locByIndex[node].UnservedPenalty
		best := cheapestInsertion(m, routes, used, node)
		if best == nil || best.cost >= penalty {
			unserved[node] = true
			continue
		}
		routes[best.vehicle].nodes = best.nodes
		routes[best.vehicle].arrival = best.arrivals
		used[best.vehicle] = true
	}

	return &solution{routes: routes, unserved: unserved}, nil
}

// partitionNodes splits non-depot nodes into required and optional sets, both
// sorted by node index for deterministic processing order.
func partitionNodes(m *model) (required, optional []int) {
	for i, loc := range m.locByIndex {
		if i == m.depot {
			continue
		}
		if loc.Optional() {
			optional = append(optional, i)
		} else {
			required = append(required, i)
		}
	}
	return required, optional
}

// search runs cheapest-insertion construction followed by descent
// improvement (relocate and 2-opt, strictly-improving moves only) until no
// move helps or the wall-clock deadline passes. There is no penalty-based
// escape from a local optimum: improvement stops at the first one reached.
// It never retries with relaxed constraints.
func search(m *model, deadline time.Time) (*solution, error) {
	sol, err := construct(m)
	if err != nil {
		return nil, err
	}
	improve(m, sol, deadline)
	return sol, nil
}

// improve repeatedly tries relocating a served node to a cheaper feasible
// position (possibly on a different vehicle) and reversing route segments
// (2-opt), applying only strictly-improving moves, until a full pass finds
// none or the deadline passes. Move order is fixed so the result is
// deterministic for identical inputs (spec §8 determinism property).
func improve(m *model, sol *solution, deadline time.Time) {
	for {
		if time.Now().After(deadline) {
			return
		}
		improved := relocatePass(m, sol, deadline)
		improved = twoOptPass(m, sol, deadline) || improved
		if !improved {
			return
		}
	}
}

func usedVehicles(sol *solution) []bool {
	used := make([]bool, len(sol.routes))
	for i, r := range sol.routes {
		used[i] = len(r.nodes) > 2
	}
	return used
}

// relocatePass tries moving each served node out of its route to the
// globally cheapest feasible position (any vehicle, any slot). A move is
// applied only when that position is on a different vehicle and the saved
// distance, plus the fixed cost of a vehicle left empty, exceeds the
// insertion cost. Returns true if any move was applied.
func relocatePass(m *model, sol *solution, deadline time.Time) bool {
	improved := false

	for srcV, route := range sol.routes {
		for pos := 1; pos < len(route.nodes)-1; pos++ {
			if time.Now().After(deadline) {
				return improved
			}
			node := route.nodes[pos]

			withoutNode := make([]int, 0, len(route.nodes)-1)
			withoutNode = append(withoutNode, route.nodes[:pos]...)
			withoutNode = append(withoutNode, route.nodes[pos+1:]...)

			removalSavings := routeDistance(m, route.nodes) - routeDistance(m, withoutNode)

			savedRoutes := make([]*routePlan, len(sol.routes))
			copy(savedRoutes, sol.routes)
			trialArrivals, trialFeasible, _ := simulateRoute(m, srcV, withoutNode)
			if !trialFeasible && len(withoutNode) > 2 {
				continue
			}
			trial := &routePlan{vehicle: srcV, nodes: withoutNode, arrival: trialArrivals}
			savedRoutes[srcV] = trial

			used := usedVehicles(&solution{routes: savedRoutes})
			used[srcV] = len(withoutNode) > 2

			best := cheapestInsertion(m, savedRoutes, used, node)
			if best == nil {
				continue
			}

			fixedSavings := 0
			if len(withoutNode) == 2 && !used[srcV] {
				// removing this node frees up its vehicle entirely
				fixedSavings = m.vehicleByIndex[srcV].FixedCost
			}

			gain := removalSavings + fixedSavings - best.cost
			if best.vehicle == srcV {
				// Re-inserting into the same vehicle after removal is a
				// no-op move; skip to avoid oscillation.
				continue
			}
			if gain <= 0 {
				continue
			}

			savedRoutes[best.vehicle].nodes = best.nodes
			savedRoutes[best.vehicle].arrival = best.arrivals
			sol.routes = savedRoutes
			improved = true

			// Continue on the shortened source route, so the node just moved
			// is not carried into the next trial; the node now at pos is next.
			route = sol.routes[srcV]
			pos--
		}
	}

	return improved
}

// twoOptPass tries reversing each segment within each route, keeping the
// reversal only if it reduces distance and remains feasible.
func twoOptPass(m *model, sol *solution, deadline time.Time) bool {
	improved := false

	for vidx, route := range sol.routes {
		n := len(route.nodes)
		if n < 4 {
			continue
		}
		for i := 1; i < n-2; i++ {
			for j := i + 1; j < n-1; j++ {
				if time.Now().After(deadline) {
					return improved
				}
				candidate := reversedSegment(route.nodes, i, j)
				oldDist := routeDistance(m, route.nodes)
				newDist := routeDistance(m, candidate)
				if newDist >= oldDist {
					continue
				}
				arrivals, feasible, _ := simulateRoute(m, vidx, candidate)
				if !feasible {
					continue
				}
				route.nodes = candidate
				route.arrival = arrivals
				improved = true
			}
		}
	}

	return improved
}

func reversedSegment(nodes []int, i, j int) []int {
	out := make([]int, len(nodes))
	copy(out, nodes)
	for l, r := i, j; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
