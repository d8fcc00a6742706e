package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"vrproute/internal/engine"
)

// RequestHash computes a deterministic hash of a solve request for use as a
// cache key. Two requests that are semantically identical (same locations,
// vehicles and matrices, regardless of slice capacity or map ordering)
// produce the same hash.
func RequestHash(req *engine.Request) string {
	if req == nil {
		return ""
	}

	data := requestToCanonical(req)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// requestToCanonical builds a deterministic byte representation of a request.
// Locations and vehicles are already ordered in the wire payload, but we sort
// by id defensively so two requests differing only in input ordering still
// hash identically.
func requestToCanonical(req *engine.Request) []byte {
	locations := make([]engine.Location, len(req.Locations))
	copy(locations, req.Locations)
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].ID < locations[j].ID
	})

	vehicles := make([]engine.Vehicle, len(req.Vehicles))
	copy(vehicles, req.Vehicles)
	sort.Slice(vehicles, func(i, j int) bool {
		return vehicles[i].ID < vehicles[j].ID
	})

	var buf []byte
	buf = append(buf, []byte(fmt.Sprintf("d:%d;l:%d;v:%d;t:%d;", req.DepotIndex, len(req.Locations), len(req.Vehicles), req.TimeLimitSeconds))...)

	for _, loc := range locations {
		buf = append(buf, []byte(fmt.Sprintf("loc:%d:%d:%d:%d:%d:%d:%d:%d;",
			loc.ID, loc.Pickup, loc.Delivery, loc.ServiceTime,
			loc.TimeWindowStart, loc.TimeWindowEnd,
			intPtrOrSentinel(loc.UnservedPenalty), intPtrOrSentinel(loc.LatePenalty)))...)
		if len(loc.AllowedVehicleIDs) > 0 {
			ids := append([]int(nil), loc.AllowedVehicleIDs...)
			sort.Ints(ids)
			buf = append(buf, []byte(fmt.Sprintf("allow:%v;", ids))...)
		}
	}

	for _, v := range vehicles {
		buf = append(buf, []byte(fmt.Sprintf("veh:%d:%d:%d:%d;", v.ID, v.Capacity, v.FixedCost, intPtrOrSentinel(v.MaxDurationMinutes)))...)
	}

	for _, row := range req.DistanceMatrix {
		buf = append(buf, []byte(fmt.Sprintf("dm:%v;", row))...)
	}
	for _, row := range req.TimeMatrix {
		buf = append(buf, []byte(fmt.Sprintf("tm:%v;", row))...)
	}

	return buf
}

// intPtrOrSentinel dereferences an optional int field for hashing, using -1
// to represent "not set". None of these fields is checked for sign, so an
// explicit -1 hashes the same as an unset field.
func intPtrOrSentinel(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

// BuildSolveKey builds the cache key for a cached solve payload.
func BuildSolveKey(requestHash string, timeLimitSeconds int) string {
	return fmt.Sprintf("solve:%s:%d", requestHash, timeLimitSeconds)
}

// QuickHash is a general-purpose full-length hash for arbitrary data.
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash is a general-purpose short (16 character) hash for arbitrary data.
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
