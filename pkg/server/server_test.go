package server

import (
	"net/http"
	"testing"

	"vrproute/pkg/config"
	"vrproute/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func init() {
	logger.Init("error")
}

func noopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Name: "test-app"},
		HTTP: config.HTTPConfig{Port: 8000},
		RateLimit: config.RateLimitConfig{
			Enabled: false,
		},
		Audit: config.AuditConfig{
			Enabled: false,
		},
	}

	srv := New(cfg, noopHandler())
	assert.NotNil(t, srv)
	assert.NotNil(t, srv.httpServer)

	// Audit logger should be nil since it's disabled.
	assert.Nil(t, srv.GetAuditLogger())
	assert.Nil(t, srv.GetRateLimiter())
}

func TestNewServer_WithOptions(t *testing.T) {
	cfg := &config.Config{
		App:   config.AppConfig{Name: "test-app"},
		HTTP:  config.HTTPConfig{Port: 8010},
		Audit: config.AuditConfig{Enabled: true},
	}

	// A nil AuditLogger in options leaves NewWithOptions to build one from
	// cfg.Audit, as it does when no options are passed.
	opts := &Options{
		AuditLogger: nil,
	}

	srv := NewWithOptions(cfg, noopHandler(), opts)
	assert.NotNil(t, srv)
}

func TestServer_NotServingUntilRun(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Name: "test-app"},
		HTTP: config.HTTPConfig{Port: 8020},
	}

	srv := New(cfg, noopHandler())
	assert.False(t, srv.Serving())
}

func TestWithRateLimit_NilLimiterPassesThrough(t *testing.T) {
	handler := withRateLimit(noopHandler(), nil, nil)
	assert.NotNil(t, handler)
}
