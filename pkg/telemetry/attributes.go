package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Standard attribute keys.
const (
	// Request shape.
	AttrLocationCount = "vrp.location_count"
	AttrVehicleCount  = "vrp.vehicle_count"
	AttrDepotIndex    = "vrp.depot_index"
	AttrComputeID     = "vrp.compute_id"

	// Search outcome.
	AttrStatus            = "vrp.status"
	AttrTotalDistance     = "vrp.total_distance"
	AttrVehiclesUsed      = "vrp.vehicles_used"
	AttrUnservedLocations = "vrp.unserved_locations"
	AttrElapsedSeconds    = "vrp.elapsed_seconds"

	// Validation.
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"
)

// RequestAttributes returns the attributes describing an inbound solve
// request's shape.
func RequestAttributes(computeID int64, locationCount, vehicleCount, depotIndex int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrComputeID, computeID),
		attribute.Int(AttrLocationCount, locationCount),
		attribute.Int(AttrVehicleCount, vehicleCount),
		attribute.Int(AttrDepotIndex, depotIndex),
	}
}

// SolveAttributes returns the attributes describing a completed solve.
func SolveAttributes(status string, totalDistance, vehiclesUsed, unserved int, elapsedSeconds float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrStatus, status),
		attribute.Int(AttrTotalDistance, totalDistance),
		attribute.Int(AttrVehiclesUsed, vehiclesUsed),
		attribute.Int(AttrUnservedLocations, unserved),
		attribute.Float64(AttrElapsedSeconds, elapsedSeconds),
	}
}

// ValidationAttributes returns the attributes describing request validation.
func ValidationAttributes(errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}
