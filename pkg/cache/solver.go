package cache

import (
	"context"
	"encoding/json"
	"time"

	"vrproute/internal/engine"
)

// SolveCache memoizes solve payloads keyed by the request's content hash and
// time limit. Re-solving the exact same request within the TTL window
// returns the prior payload instead of re-running the search.
type SolveCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedPayload is the on-disk shape stored for a successful solve. It
// mirrors engine.Payload but adds bookkeeping for cache introspection.
type CachedPayload struct {
	Payload    engine.Payload `json:"payload"`
	ComputedAt time.Time      `json:"computed_at"`
}

// NewSolveCache creates a cache for solve results.
func NewSolveCache(cache Cache, defaultTTL time.Duration) *SolveCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolveCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get looks up a cached payload for the given request. The returned payload's
// compute_id and elapsed_seconds are left as cached; callers must overwrite
// compute_id with the requesting call's own id before returning it to a
// caller, since a cache hit reuses another request's solve.
func (sc *SolveCache) Get(ctx context.Context, req *engine.Request) (*CachedPayload, bool, error) {
	key := BuildSolveKey(RequestHash(req), req.TimeLimitSeconds)

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedPayload
	if err := json.Unmarshal(data, &result); err != nil {
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup of corrupt entry
		return nil, false, nil
	}

	return &result, true, nil
}

// Set stores a payload for the given request.
func (sc *SolveCache) Set(ctx context.Context, req *engine.Request, payload engine.Payload, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	key := BuildSolveKey(RequestHash(req), req.TimeLimitSeconds)

	cached := CachedPayload{
		Payload:    payload,
		ComputedAt: time.Now(),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, key, data, ttl)
}

// Invalidate removes the cached payload for the given request, if any.
func (sc *SolveCache) Invalidate(ctx context.Context, req *engine.Request) error {
	key := BuildSolveKey(RequestHash(req), req.TimeLimitSeconds)
	return sc.cache.Delete(ctx, key)
}

// InvalidateAll removes every cached solve payload.
func (sc *SolveCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, "solve:*")
}
