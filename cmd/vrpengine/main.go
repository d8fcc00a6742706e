// Command vrpengine runs the vehicle routing solve service.
//
// It exposes two HTTP solve endpoints (/vrp/v2/solve and /vrp/solve, a v1
// feature subset of the former) plus /healthz. A solve request is validated
// and acknowledged synchronously; the search itself runs on a background
// goroutine bounded by engine.max_concurrent_solves, with its result
// delivered to the request's webhook_url.
//
// Configuration is loaded with LoadWithServiceDefaults: environment
// variables (VRPROUTE_* prefix) override a config.yaml, which overrides
// compiled-in defaults. See pkg/config/loader.go for the full default set.
package main

import (
	"net/http"

	"vrproute/internal/intake"
	"vrproute/internal/webhook"
	"vrproute/pkg/audit"
	"vrproute/pkg/cache"
	"vrproute/pkg/config"
	"vrproute/pkg/logger"
	"vrproute/pkg/metrics"
	"vrproute/pkg/server"
)

const (
	serviceName = "vrpengine"
	defaultPort = 8000
)

func main() {
	cfg, err := config.LoadWithServiceDefaults(serviceName, defaultPort)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	var solveCache *cache.SolveCache
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("failed to create cache, continuing without it", "error", err)
		} else {
			solveCache = cache.NewSolveCache(baseCache, cfg.Cache.DefaultTTL)
			logger.Log.Info("solve cache initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.DefaultTTL)
		}
	}

	auditLogger, err := audit.New(&audit.Config{
		Enabled:         cfg.Audit.Enabled,
		Backend:         cfg.Audit.Backend,
		FilePath:        cfg.Audit.FilePath,
		BufferSize:      cfg.Audit.BufferSize,
		FlushPeriod:     cfg.Audit.FlushPeriod,
		ExcludeMethods:  cfg.Audit.ExcludeMethods,
		IncludeRequest:  cfg.Audit.IncludeRequest,
		IncludeResponse: cfg.Audit.IncludeResponse,
	})
	if err != nil {
		logger.Log.Warn("failed to create audit logger, continuing without it", "error", err)
		auditLogger = nil
	}

	notifier := webhook.New(cfg.Webhook.Timeout)
	pool := intake.NewSolvePool(cfg.Engine.MaxConcurrentSolves)

	mux := http.NewServeMux()
	handler := intake.NewHandler(pool, notifier, solveCache, auditLogger, cfg.Engine.DefaultTimeLimitSeconds)
	handler.Register(mux)

	srv := server.NewWithOptions(cfg, mux, &server.Options{AuditLogger: auditLogger})

	logger.Info("starting vrp solve service",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"max_concurrent_solves", cfg.Engine.MaxConcurrentSolves,
		"cache_enabled", solveCache != nil,
	)

	if err := srv.Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
