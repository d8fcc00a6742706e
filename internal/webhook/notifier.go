// Package webhook delivers a completed solve's payload to the caller-supplied
// webhook_url.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vrproute/internal/engine"
	"vrproute/pkg/logger"
	"vrproute/pkg/metrics"
)

// Notifier posts a solve payload to a webhook URL over plain HTTP. Delivery
// is best-effort: failures are logged and counted, never retried.
type Notifier struct {
	client *http.Client
}

// New creates a Notifier whose requests time out after the given duration.
// A non-positive timeout falls back to 10 seconds.
func New(timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{client: &http.Client{Timeout: timeout}}
}

// Deliver satisfies engine.Notifier. The passed ctx governs cancellation; the
// Notifier's own client timeout is a second, independent bound.
func (n *Notifier) Deliver(ctx context.Context, url string, payload engine.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	outcome := "success"
	defer func() {
		if m := metrics.Get(); m != nil {
			m.RecordWebhookDelivery(outcome)
		}
	}()

	resp, err := n.client.Do(req)
	if err != nil {
		outcome = "error"
		logger.Log.Warn("webhook delivery failed",
			"url", url, "compute_id", payload.ComputeID, "error", err)
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // response body, nothing actionable on close failure

	if resp.StatusCode >= 400 {
		outcome = "error"
		logger.Log.Warn("webhook endpoint rejected delivery",
			"url", url, "compute_id", payload.ComputeID, "status", resp.StatusCode)
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	logger.Log.Info("webhook delivered", "url", url, "compute_id", payload.ComputeID)
	return nil
}
