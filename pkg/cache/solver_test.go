package cache

import (
	"context"
	"testing"
	"time"

	"vrproute/internal/engine"
)

func TestSolveCache_SetGet(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	req := sampleRequest()

	payload := engine.Payload{
		ComputeID:      42,
		ElapsedSeconds: 1.234,
		Status:         "success",
		TotalDistance:  45,
		Routes: []engine.Route{
			{VehicleID: 100, TotalDistance: 45, TotalPickup: 15},
		},
	}

	if err := solveCache.Set(ctx, req, payload, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	got, found, err := solveCache.Get(ctx, req)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if !found {
		t.Fatal("expected to find cached payload")
	}

	if got.Payload.TotalDistance != payload.TotalDistance {
		t.Errorf("expected total distance %d, got %d", payload.TotalDistance, got.Payload.TotalDistance)
	}
	if len(got.Payload.Routes) != 1 {
		t.Errorf("expected 1 route, got %d", len(got.Payload.Routes))
	}
}

func TestSolveCache_GetNotFound(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	req := sampleRequest()

	got, found, err := solveCache.Get(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
	if got != nil {
		t.Error("expected nil result")
	}
}

func TestSolveCache_DifferentTimeLimitMisses(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	req := sampleRequest()
	payload := engine.Payload{ComputeID: 1, Status: "success"}

	if err := solveCache.Set(ctx, req, payload, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	other := sampleRequest()
	other.TimeLimitSeconds = 60

	_, found, _ := solveCache.Get(ctx, other)
	if found {
		t.Error("should not find result for a different time limit")
	}
}

func TestSolveCache_Invalidate(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	req := sampleRequest()
	payload := engine.Payload{ComputeID: 1, Status: "success"}

	if err := solveCache.Set(ctx, req, payload, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	if err := solveCache.Invalidate(ctx, req); err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}

	_, found, _ := solveCache.Get(ctx, req)
	if found {
		t.Error("expected cache to be invalidated")
	}
}

func TestSolveCache_InvalidateAll(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()

	req1 := sampleRequest()
	req2 := sampleRequest()
	req2.TimeLimitSeconds = 60

	payload := engine.Payload{ComputeID: 1, Status: "success"}

	if err := solveCache.Set(ctx, req1, payload, 0); err != nil {
		t.Fatalf("failed to set req1: %v", err)
	}
	if err := solveCache.Set(ctx, req2, payload, 0); err != nil {
		t.Fatalf("failed to set req2: %v", err)
	}

	count, err := solveCache.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("failed to invalidate all: %v", err)
	}

	if count != 2 {
		t.Errorf("expected 2 invalidated, got %d", count)
	}
}
