// Package intake implements the HTTP surface of the solve service: request
// decoding, synchronous request-shape validation, and dispatch of accepted
// solves to a bounded worker pool.
package intake

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"vrproute/internal/engine"
	"vrproute/pkg/apperror"
	"vrproute/pkg/audit"
	"vrproute/pkg/cache"
	"vrproute/pkg/logger"
	"vrproute/pkg/metrics"
)

// Handler serves the solve endpoints. Each accepted request is acknowledged
// immediately; the solve itself runs on a goroutine gated by pool.
type Handler struct {
	pool             *SolvePool
	notifier         engine.Notifier
	solveCache       *cache.SolveCache
	auditLogger      audit.Logger
	defaultTimeLimit int
}

// NewHandler builds a Handler. solveCache and auditLogger may be nil, in
// which case caching and audit logging are skipped.
func NewHandler(pool *SolvePool, notifier engine.Notifier, solveCache *cache.SolveCache, auditLogger audit.Logger, defaultTimeLimit int) *Handler {
	if defaultTimeLimit <= 0 {
		defaultTimeLimit = 30
	}
	return &Handler{
		pool:             pool,
		notifier:         notifier,
		solveCache:       solveCache,
		auditLogger:      auditLogger,
		defaultTimeLimit: defaultTimeLimit,
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/vrp/v2/solve", WithMetrics("/vrp/v2/solve", h.solveV2))
	mux.HandleFunc("/vrp/solve", WithMetrics("/vrp/solve", h.solveV1))
	mux.HandleFunc("/healthz", WithMetrics("/healthz", Healthz))
}

func (h *Handler) solveV2(w http.ResponseWriter, r *http.Request) { h.solve(w, r, false) }
func (h *Handler) solveV1(w http.ResponseWriter, r *http.Request) { h.solve(w, r, true) }

func (h *Handler) solve(w http.ResponseWriter, r *http.Request, v1 bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var dto requestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeValidationError(w, apperror.New(apperror.CodeInvalidRequestBody,
			"request body is not valid JSON").Error())
		return
	}

	if dto.TimeLimitSeconds <= 0 {
		dto.TimeLimitSeconds = h.defaultTimeLimit
	}
	req := dto.toEngineRequest(v1)

	if verrs := engine.Validate(req); verrs.HasErrors() {
		writeValidationError(w, verrs.JoinMessages())
		return
	}

	requestID := uuid.NewString()
	logger.Log.Info("accepted solve request",
		"request_id", requestID, "compute_id", req.ComputeID,
		"locations", len(req.Locations), "vehicles", len(req.Vehicles), "v1", v1)

	if m := metrics.Get(); m != nil {
		m.SolveRequestsInFlight.Inc()
	}

	go h.run(requestID, req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // response already committed
		"message":    "solve accepted",
		"compute_id": req.ComputeID,
	})
}

// run performs the actual solve off the request goroutine: it checks the
// solve cache first (a hit is delivered via webhook without taking a pool
// slot); on a miss it acquires a pool slot (blocking if the pool is
// saturated), solves, then delivers the result via webhook.
func (h *Handler) run(requestID string, req *engine.Request) {
	ctx := context.Background()
	defer func() {
		if m := metrics.Get(); m != nil {
			m.SolveRequestsInFlight.Dec()
		}
	}()

	if h.solveCache != nil {
		if cached, hit, err := h.solveCache.Get(ctx, req); err == nil && hit {
			payload := cached.Payload
			payload.ComputeID = req.ComputeID
			h.deliverAndAudit(ctx, requestID, req, payload, true, 0)
			return
		}
	}

	if err := h.pool.Acquire(ctx); err != nil {
		logger.Log.Error("failed to acquire solve slot", "request_id", requestID, "error", err)
		return
	}
	defer h.pool.Release()

	start := time.Now()
	payload := engine.Solve(ctx, req.ComputeID, req, h.notifier)
	duration := time.Since(start)

	if m := metrics.Get(); m != nil {
		m.RecordSolve(payload.Status, duration)
		if payload.Status == engine.StatusSuccess {
			m.RecordSolveShape(payload.TotalDistance, len(payload.Routes), len(payload.UnservedLocations))
		}
	}

	if h.solveCache != nil && payload.Status == engine.StatusSuccess {
		if err := h.solveCache.Set(ctx, req, payload, 0); err != nil {
			logger.Log.Warn("failed to cache solve result", "request_id", requestID, "error", err)
		}
	}

	h.deliverAndAudit(ctx, requestID, req, payload, false, duration)
}

func (h *Handler) deliverAndAudit(ctx context.Context, requestID string, req *engine.Request, payload engine.Payload, cacheHit bool, duration time.Duration) {
	logger.Log.Info("solve completed",
		"request_id", requestID, "compute_id", req.ComputeID,
		"status", payload.Status, "cache_hit", cacheHit, "duration", duration)

	if h.auditLogger != nil {
		outcome := audit.OutcomeSuccess
		if payload.Status == engine.StatusError {
			outcome = audit.OutcomeFailure
		}
		entry := audit.NewEntry().
			Service("vrpengine").
			Method("intake.solve").
			Action(audit.ActionSolve).
			Outcome(outcome).
			RequestID(requestID).
			Duration(duration).
			Meta("compute_id", req.ComputeID).
			Meta("cache_hit", cacheHit).
			Build()
		if err := h.auditLogger.Log(ctx, entry); err != nil {
			logger.Log.Warn("failed to write audit entry", "request_id", requestID, "error", err)
		}
	}

	if req.WebhookURL != "" && cacheHit && h.notifier != nil {
		deliverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := h.notifier.Deliver(deliverCtx, req.WebhookURL, payload); err != nil {
			logger.Log.Warn("webhook delivery failed for cached result",
				"request_id", requestID, "compute_id", req.ComputeID, "error", err)
		}
	}
}

func writeValidationError(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail}) //nolint:errcheck // response already committed
}

// Healthz is a liveness probe: it reports healthy as soon as the process can
// serve HTTP, without checking downstream dependencies.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck // response already committed
}
