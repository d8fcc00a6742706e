package engine

// project walks the solved routes per spec §4.3: emits one Route per used
// vehicle with its stops and aggregates, then computes the unserved set from
// whichever non-depot locations never appear in any emitted stop.
func project(m *model, sol *solution, computeID int64, elapsedSeconds float64, v1 bool) Payload {
	served := make(map[int]bool, m.numNodes())
	var routes []Route
	totalDistance := 0

	for vidx, route := range sol.routes {
		if len(route.nodes) <= 2 {
			continue // unused vehicle: depot -> depot contributes nothing
		}

		var stops []Stop
		pickupTotal, deliveryTotal, distTotal := 0, 0, 0

		for i, node := range route.nodes {
			loc := m.locByIndex[node]
			stop := Stop{
				LocationID:  loc.ID,
				Name:        loc.Name,
				ArrivalTime: route.arrival[i],
			}

			if node != m.depot {
				stop.Pickup = loc.Pickup
				stop.Delivery = loc.Delivery
				pickupTotal += loc.Pickup
				deliveryTotal += loc.Delivery
				served[node] = true
			}

			stops = append(stops, stop)

			if i > 0 {
				distTotal += m.arcCost(route.nodes[i-1], node)
			}
		}

		routes = append(routes, Route{
			VehicleID:     m.vehicleByIndex[vidx].ID,
			Stops:         stops,
			TotalDistance: distTotal,
			TotalPickup:   pickupTotal,
			TotalDelivery: deliveryTotal,
		})
		totalDistance += distTotal
	}

	payload := Payload{
		ComputeID:      computeID,
		ElapsedSeconds: roundSeconds(elapsedSeconds),
		Status:         StatusSuccess,
		TotalDistance:  totalDistance,
		Routes:         routes,
	}

	if !v1 {
		unservedLocs := []UnservedLocation{}
		for i, loc := range m.locByIndex {
			if i == m.depot || served[i] {
				continue
			}
			unservedLocs = append(unservedLocs, UnservedLocation{LocationID: loc.ID, Name: loc.Name})
		}
		payload.UnservedLocations = unservedLocs
		payload.unservedSet = true
	}

	return payload
}

// errorPayload builds the error-status payload for any failure (validation,
// model build, infeasibility, or a recovered panic); the message flows
// through verbatim (spec §4.4 step 3).
func errorPayload(computeID int64, elapsedSeconds float64, message string) Payload {
	return Payload{
		ComputeID:      computeID,
		ElapsedSeconds: roundSeconds(elapsedSeconds),
		Status:         StatusError,
		Message:        message,
	}
}

func roundSeconds(s float64) float64 {
	const scale = 1000.0
	if s < 0 {
		return 0
	}
	return float64(int64(s*scale+0.5)) / scale
}
