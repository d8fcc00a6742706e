package engine

import (
	"context"
	"fmt"
	"time"

	"vrproute/pkg/apperror"
)

// Notifier delivers a completed payload to the caller-supplied webhook URL.
// Implemented by the webhook package; injected here so the engine itself
// stays free of transport concerns (spec §4.4 step 4).
type Notifier interface {
	Deliver(ctx context.Context, url string, payload Payload) error
}

// Solve is the engine facade's single entry point (spec §4.4): build, search,
// project, then hand the payload to the notifier. It never returns a Go
// error for a domain failure — validation, model-build, infeasibility, and
// even a recovered panic all fold into an error-status Payload, since the
// contract guarantees either a full success or a full error payload, never a
// partial one.
func Solve(ctx context.Context, computeID int64, req *Request, notifier Notifier) Payload {
	start := time.Now()
	payload := run(computeID, req, start)

	if req.WebhookURL != "" && notifier != nil {
		deliverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_ = notifier.Deliver(deliverCtx, req.WebhookURL, payload)
		// A delivery failure is the notifier's concern to log; it never
		// alters the payload already computed, since the caller's
		// acknowledgement has already been sent (spec §4.4 step 4).
	}

	return payload
}

func run(computeID int64, req *Request, start time.Time) (payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			payload = errorPayload(computeID, time.Since(start).Seconds(),
				fmt.Sprintf("internal error: %v", r))
		}
	}()

	if verrs := Validate(req); verrs.HasErrors() {
		return errorPayload(computeID, time.Since(start).Seconds(), verrs.JoinMessages())
	}

	m, err := buildModel(req)
	if err != nil {
		return errorPayload(computeID, time.Since(start).Seconds(), messageOf(err))
	}

	if err := precheck(m); err != nil {
		return errorPayload(computeID, time.Since(start).Seconds(), messageOf(err))
	}

	limit := req.TimeLimitSeconds
	if limit <= 0 {
		limit = 30
	}
	deadline := start.Add(time.Duration(limit) * time.Second)

	sol, err := search(m, deadline)
	if err != nil {
		return errorPayload(computeID, time.Since(start).Seconds(), messageOf(err))
	}

	return project(m, sol, computeID, time.Since(start).Seconds(), req.V1)
}

// messageOf extracts the human-readable message an error should carry
// through to the webhook payload verbatim.
func messageOf(err error) string {
	if appErr, ok := err.(*apperror.Error); ok {
		return appErr.Message
	}
	return err.Error()
}
