package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vrproute/pkg/audit"
	"vrproute/pkg/config"
	"vrproute/pkg/logger"
	"vrproute/pkg/metrics"
	"vrproute/pkg/ratelimit"
	"vrproute/pkg/telemetry"
)

// Server wraps a net/http.Server with the ambient concerns shared by every
// entrypoint: rate limiting, audit logging, telemetry, a metrics goroutine,
// and graceful shutdown on SIGINT/SIGTERM.
type Server struct {
	httpServer  *http.Server
	serviceName string
	config      *config.Config
	telemetry   *telemetry.Provider
	rateLimiter ratelimit.Limiter
	auditLogger audit.Logger
	serving     bool
}

// New creates a server wrapping the given handler.
func New(cfg *config.Config, handler http.Handler) *Server {
	return NewWithOptions(cfg, handler, nil)
}

// Options carries dependencies the caller may already have constructed,
// so New doesn't build duplicate rate limiters or audit loggers.
type Options struct {
	RateLimiter  ratelimit.Limiter
	AuditLogger  audit.Logger
	KeyExtractor ratelimit.KeyExtractor
}

// NewWithOptions creates a server with explicit dependencies, building any
// that are left nil from cfg.
func NewWithOptions(cfg *config.Config, handler http.Handler, opts *Options) *Server {
	if opts == nil {
		opts = &Options{}
	}

	rateLimiter := opts.RateLimiter
	if rateLimiter == nil && cfg.RateLimit.Enabled {
		var err error
		rateLimiter, err = ratelimit.New(&ratelimit.Config{
			Requests:        cfg.RateLimit.Requests,
			Window:          cfg.RateLimit.Window,
			Strategy:        cfg.RateLimit.Strategy,
			Backend:         cfg.RateLimit.Backend,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			RedisAddr:       cfg.RateLimit.RedisAddr,
		})
		if err != nil {
			logger.Log.Warn("Failed to create rate limiter, continuing without it", "error", err)
			rateLimiter = nil
		} else {
			logger.Log.Info("Rate limiter initialized",
				"requests", cfg.RateLimit.Requests,
				"window", cfg.RateLimit.Window,
				"strategy", cfg.RateLimit.Strategy,
			)
		}
	}

	auditLogger := opts.AuditLogger
	if auditLogger == nil && cfg.Audit.Enabled {
		var err error
		auditLogger, err = audit.New(&audit.Config{
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
			logger.Log.Warn("Failed to create audit logger, continuing without it", "error", err)
			auditLogger = nil
		} else {
			audit.SetGlobal(auditLogger)
			logger.Log.Info("Audit logger initialized", "backend", cfg.Audit.Backend)
		}
	}

	wrapped := handler
	if cfg.Tracing.Enabled {
		wrapped = telemetry.Middleware(wrapped)
	}
	wrapped = withRateLimit(wrapped, rateLimiter, opts.KeyExtractor)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      wrapped,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Server{
		httpServer:  httpServer,
		serviceName: cfg.App.Name,
		config:      cfg,
		rateLimiter: rateLimiter,
		auditLogger: auditLogger,
	}
}

// withRateLimit rejects requests over the configured limit with HTTP 429.
// Requests are keyed by the extractor (defaulting to client IP via
// X-Forwarded-For / X-Real-IP / RemoteAddr).
func withRateLimit(next http.Handler, limiter ratelimit.Limiter, keyExtractor ratelimit.KeyExtractor) http.Handler {
	if limiter == nil {
		return next
	}
	if keyExtractor == nil {
		keyExtractor = ratelimit.DefaultKeyExtractor
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metadata := map[string]string{
			"x-forwarded-for": r.Header.Get("X-Forwarded-For"),
			"x-real-ip":       r.Header.Get("X-Real-Ip"),
			":authority":      r.RemoteAddr,
		}
		key := keyExtractor(r.Context(), r.URL.Path, metadata)

		allowed, err := limiter.Allow(r.Context(), key)
		if err != nil {
			logger.Log.Warn("Rate limiter error, allowing request", "error", err)
			allowed = true
		}
		if !allowed {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetAuditLogger returns the server's audit logger, or nil if audit logging
// is disabled.
func (s *Server) GetAuditLogger() audit.Logger {
	return s.auditLogger
}

// GetRateLimiter returns the server's rate limiter, or nil if disabled.
func (s *Server) GetRateLimiter() ratelimit.Limiter {
	return s.rateLimiter
}

// Run starts telemetry, the metrics server, and the HTTP listener, then
// blocks until a shutdown signal arrives or the listener fails.
func (s *Server) Run() error {
	ctx := context.Background()

	if s.config.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     s.config.Tracing.Enabled,
			Endpoint:    s.config.Tracing.Endpoint,
			ServiceName: s.config.Tracing.ServiceName,
			Version:     s.config.App.Version,
			Environment: s.config.App.Environment,
			SampleRate:  s.config.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			s.telemetry = tp
			logger.Log.Info("Telemetry initialized",
				"endpoint", s.config.Tracing.Endpoint,
				"sample_rate", s.config.Tracing.SampleRate,
			)
		}
	}

	if s.config.Metrics.Enabled {
		go func() {
			logger.Log.Info("Starting metrics server",
				"port", s.config.Metrics.Port,
				"path", s.config.Metrics.Path,
			)
			if err := metrics.StartMetricsServer(s.config.Metrics.Port); err != nil {
				logger.Log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.serving = true

	errCh := make(chan error, 1)

	go func() {
		logger.Log.Info("Starting HTTP server",
			"service", s.serviceName,
			"addr", s.httpServer.Addr,
			"environment", s.config.App.Environment,
			"version", s.config.App.Version,
		)
		if err := s.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if m := metrics.Get(); m != nil {
		m.SetServiceInfo(s.config.App.Version, s.config.App.Environment)
	}

	if s.auditLogger != nil {
		entry := audit.NewEntry().
			Service(s.serviceName).
			Method("server.Start").
			Action(audit.ActionCreate).
			Outcome(audit.OutcomeSuccess).
			Meta("addr", s.httpServer.Addr).
			Meta("version", s.config.App.Version).
			Meta("environment", s.config.App.Environment).
			Build()
		if err := s.auditLogger.Log(ctx, entry); err != nil {
			logger.Log.Warn("Failed to log audit entry", "error", err)
		}
	}

	return s.waitForShutdown(errCh)
}

func (s *Server) waitForShutdown(errCh chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Log.Info("Received shutdown signal", "signal", sig)
	}

	if s.auditLogger != nil {
		entry := audit.NewEntry().
			Service(s.serviceName).
			Method("server.Shutdown").
			Action(audit.ActionUpdate).
			Outcome(audit.OutcomeSuccess).
			Meta("reason", "signal").
			Build()
		if err := s.auditLogger.Log(context.Background(), entry); err != nil {
			logger.Log.Warn("Failed to log audit entry", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
	defer cancel()

	s.serving = false

	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			logger.Log.Warn("Failed to shutdown telemetry", "error", err)
		}
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Close(); err != nil {
			logger.Log.Warn("Failed to close rate limiter", "error", err)
		}
	}

	if s.auditLogger != nil {
		if err := s.auditLogger.Close(); err != nil {
			logger.Log.Warn("Failed to close audit logger", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		_ = s.httpServer.Shutdown(ctx)
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("Server stopped gracefully")
	case <-ctx.Done():
		logger.Log.Warn("Forcing server stop")
		_ = s.httpServer.Close()
	}

	return nil
}

// Serving reports whether the server is currently accepting requests.
func (s *Server) Serving() bool {
	return s.serving
}

// Stop closes the server immediately.
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// GracefulStop shuts the server down, waiting for in-flight requests.
func (s *Server) GracefulStop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
