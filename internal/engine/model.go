package engine

import (
	"fmt"

	"vrproute/pkg/apperror"
)

// Validate checks a Request's structural shape against the request-shape
// invariants (matrix squareness, location/vehicle counts, depot bounds,
// vehicle-id references, time windows) and collects every violation found
// rather than stopping at the first one, so the intake handler can report a
// complete 422 detail string.
func Validate(req *Request) *apperror.ValidationErrors {
	verrs := apperror.NewValidationErrors()
	n := len(req.Locations)

	if n < 2 {
		verrs.AddErrorWithField(apperror.CodeTooFewLocations,
			"request must contain at least 2 locations", "locations")
	}
	if len(req.Vehicles) < 1 {
		verrs.AddErrorWithField(apperror.CodeNoVehicles,
			"request must contain at least 1 vehicle", "vehicles")
	}

	checkSquare(verrs, "distance_matrix", req.DistanceMatrix, n)
	checkSquare(verrs, "time_matrix", req.TimeMatrix, n)

	if n > 0 && (req.DepotIndex < 0 || req.DepotIndex >= n) {
		verrs.AddErrorWithField(apperror.CodeInvalidDepotIndex,
			fmt.Sprintf("depot_index %d out of range [0, %d)", req.DepotIndex, n), "depot_index")
	}

	seenLocIDs := make(map[int]bool, n)
	for _, loc := range req.Locations {
		if seenLocIDs[loc.ID] {
			verrs.AddErrorWithField(apperror.CodeDuplicateLocationID,
				fmt.Sprintf("duplicate location id %d", loc.ID), "locations")
		}
		seenLocIDs[loc.ID] = true

		if loc.TimeWindowStart > loc.TimeWindowEnd {
			verrs.AddErrorWithField(apperror.CodeInvalidTimeWindow,
				fmt.Sprintf("location %d: time_window_start %d exceeds time_window_end %d",
					loc.ID, loc.TimeWindowStart, loc.TimeWindowEnd), "locations")
		}

		if req.V1 {
			if loc.UnservedPenalty != nil || loc.LatePenalty != nil || len(loc.AllowedVehicleIDs) > 0 {
				verrs.AddErrorWithField(apperror.CodeV1FieldNotAllowed,
					fmt.Sprintf("location %d: v2-only fields are not allowed on the v1 endpoint", loc.ID), "locations")
			}
		}
	}

	vehicleIDs := make(map[int]bool, len(req.Vehicles))
	for _, v := range req.Vehicles {
		if vehicleIDs[v.ID] {
			verrs.AddErrorWithField(apperror.CodeDuplicateVehicleID,
				fmt.Sprintf("duplicate vehicle id %d", v.ID), "vehicles")
		}
		vehicleIDs[v.ID] = true

		if req.V1 && v.MaxDurationMinutes != nil {
			verrs.AddErrorWithField(apperror.CodeV1FieldNotAllowed,
				fmt.Sprintf("vehicle %d: v2-only fields are not allowed on the v1 endpoint", v.ID), "vehicles")
		}
	}

	for _, loc := range req.Locations {
		for _, vid := range loc.AllowedVehicleIDs {
			if !vehicleIDs[vid] {
				verrs.AddErrorWithField(apperror.CodeUnknownVehicleID,
					fmt.Sprintf("location %d: allowed_vehicle_ids references unknown vehicle %d", loc.ID, vid), "locations")
			}
		}
	}

	return verrs
}

func checkSquare(verrs *apperror.ValidationErrors, field string, matrix [][]int, n int) {
	if len(matrix) != n {
		verrs.AddErrorWithField(apperror.CodeMatrixSizeMismatch,
			fmt.Sprintf("%s has %d rows, expected %d", field, len(matrix), n), field)
		return
	}
	for i, row := range matrix {
		if len(row) != n {
			verrs.AddErrorWithField(apperror.CodeMatrixNotSquare,
				fmt.Sprintf("%s row %d has %d columns, expected %d", field, i, len(row), n), field)
		}
	}
}
