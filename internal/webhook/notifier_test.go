package webhook

import (
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

func TestNotifier_DeliverPostsJSONPayload(t *testing.T) {
	var received engine.Payload
	var method, contentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(time.Second)
	payload := engine.Payload{ComputeID: 42, Status: engine.StatusSuccess, TotalDistance: 100}

	err := n.Deliver(context.Background(), srv.URL, payload)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, int64(42), received.ComputeID)
}

func TestNotifier_DeliverReturnsErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(time.Second)
	err := n.Deliver(context.Background(), srv.URL, engine.Payload{ComputeID: 1})
	assert.Error(t, err)
}

func TestNotifier_DeliverReturnsErrorOnUnreachableHost(t *testing.T) {
	n := New(50 * time.Millisecond)
	err := n.Deliver(context.Background(), "http://127.0.0.1:0", engine.Payload{ComputeID: 1})
	assert.Error(t, err)
}
