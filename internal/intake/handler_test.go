package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrproute/internal/engine"
)

type stubNotifier struct {
	calls int
}

func (s *stubNotifier) Deliver(context.Context, string, engine.Payload) error {
	s.calls++
	return nil
}

func validBody(v2Fields bool) map[string]any {
	body := map[string]any{
		"depot_index": 0,
		"locations": []map[string]any{
			{"id": 0, "time_window_end": 1440},
			{"id": 1, "time_window_end": 1440},
		},
		"vehicles":          []map[string]any{{"id": 1, "capacity": 100}},
		"distance_matrix":   [][]int{{0, 10}, {10, 0}},
		"time_matrix":       [][]int{{0, 5}, {5, 0}},
		"time_limit_seconds": 2,
	}
	if v2Fields {
		body["locations"].([]map[string]any)[1]["unserved_penalty"] = 5
	}
	return body
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandler_SolveV2AcceptsValidRequest(t *testing.T) {
	notifier := &stubNotifier{}
	h := NewHandler(NewSolvePool(2), notifier, nil, nil, 30)

	rec := postJSON(t, h.solveV2, "/vrp/v2/solve", validBody(false))

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "solve accepted", resp["message"])
}

func TestHandler_SolveV1RejectsV2OnlyFields(t *testing.T) {
	h := NewHandler(NewSolvePool(2), &stubNotifier{}, nil, nil, 30)

	rec := postJSON(t, h.solveV1, "/vrp/solve", validBody(true))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["detail"])
}

func TestHandler_SolveRejectsMalformedJSON(t *testing.T) {
	h := NewHandler(NewSolvePool(2), &stubNotifier{}, nil, nil, 30)

	req := httptest.NewRequest(http.MethodPost, "/vrp/v2/solve", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.solveV2(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_SolveRejectsTooFewLocations(t *testing.T) {
	h := NewHandler(NewSolvePool(2), &stubNotifier{}, nil, nil, 30)

	body := map[string]any{
		"depot_index":      0,
		"locations":        []map[string]any{{"id": 0}},
		"vehicles":         []map[string]any{{"id": 1, "capacity": 100}},
		"distance_matrix":  [][]int{{0}},
		"time_matrix":      [][]int{{0}},
	}

	rec := postJSON(t, h.solveV2, "/vrp/v2/solve", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_SolveDispatchesAsyncWork(t *testing.T) {
	notifier := &stubNotifier{}
	h := NewHandler(NewSolvePool(2), notifier, nil, nil, 30)

	body := validBody(false)
	body["webhook_url"] = "https://example.test/hook"
	body["compute_id"] = 99

	rec := postJSON(t, h.solveV2, "/vrp/v2/solve", body)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool { return notifier.calls == 1 }, time.Second, 10*time.Millisecond)
}

func TestHealthz_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	Healthz(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
